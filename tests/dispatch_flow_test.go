package tests

import (
	"testing"
	"time"

	businessflow "github.com/amirphl/Susanoo/business_flow"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatchFixture(testDB *testingutil.TestDB, mock *services.MockEmailProvider) businessflow.DispatchFlow {
	registry := services.NewProviderRegistry()
	registry.Register(models.CampaignProviderSendGrid, mock)
	registry.Register(models.CampaignProviderResend, mock)

	deliveryConfig := &config.DeliveryConfig{
		ProviderTimeout:    5 * time.Second,
		DispatchLockTTL:    30 * time.Second,
		UnsubscribeBaseURL: "https://mail.example.com/unsubscribe",
	}

	return businessflow.NewDispatchFlow(
		repository.NewCampaignSendRepository(testDB.DB),
		repository.NewCampaignRepository(testDB.DB),
		repository.NewEmailTemplateRepository(testDB.DB),
		repository.NewContactRepository(testDB.DB),
		repository.NewOrganisationRepository(testDB.DB),
		registry,
		nil,
		&config.CacheConfig{},
		deliveryConfig,
		testDB.DB,
	)
}

func TestSendNow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		sendRepo := repository.NewCampaignSendRepository(testDB.DB)
		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("192.168.1.1", "test-agent")

		t.Run("Success", func(t *testing.T) {
			mock := services.NewMockEmailProvider("sendgrid")
			flow := newDispatchFixture(testDB, mock)

			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusQueued)
			require.NoError(t, err)

			resp, err := flow.SendNow(ctx, &dto.DispatchSendRequest{SendUUID: send.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusSent.String(), resp.Status)
			assert.False(t, resp.AlreadyDispatched)
			require.NotNil(t, resp.ProviderMessageID)
			assert.Equal(t, "mock-1", *resp.ProviderMessageID)
			require.NotNil(t, resp.SentAt)

			require.Len(t, mock.SentMessages, 1)
			msg := mock.SentMessages[0].Message
			assert.Equal(t, "jane@example.com", msg.ToEmail)
			assert.Equal(t, campaign.FromEmail, msg.FromEmail)
			assert.Equal(t, send.UUID.String(), msg.CustomArgs["send_id"])
			assert.Equal(t, campaign.UUID.String(), msg.CustomArgs["campaign_id"])
			// Placeholders are substituted from the stored metadata
			assert.NotContains(t, msg.Subject, "{{")
			assert.Contains(t, msg.HTMLBody, "https://mail.example.com/unsubscribe/"+send.UUID.String())

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusSent, updated.Status)
			require.NotNil(t, updated.ProviderMessageID)

			updatedCampaign, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), updatedCampaign.TotalSent)
			require.NotNil(t, updatedCampaign.LastSentAt)
		})

		t.Run("IdempotentOnRedispatch", func(t *testing.T) {
			mock := services.NewMockEmailProvider("sendgrid")
			flow := newDispatchFixture(testDB, mock)

			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusQueued)
			require.NoError(t, err)

			req := &dto.DispatchSendRequest{SendUUID: send.UUID.String()}
			_, err = flow.SendNow(ctx, req, metadata)
			require.NoError(t, err)

			resp, err := flow.SendNow(ctx, req, metadata)
			require.NoError(t, err)
			assert.True(t, resp.AlreadyDispatched)
			assert.Equal(t, models.SendStatusSent.String(), resp.Status)

			// Exactly one provider call despite two dispatch requests
			assert.Len(t, mock.SentMessages, 1)
		})

		t.Run("ProviderFailureRecordedNotRaised", func(t *testing.T) {
			mock := services.NewMockEmailProvider("sendgrid")
			mock.FailWith = services.NewProviderTransportError("sendgrid", "status 503", nil)
			flow := newDispatchFixture(testDB, mock)

			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusQueued)
			require.NoError(t, err)

			resp, err := flow.SendNow(ctx, &dto.DispatchSendRequest{SendUUID: send.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusFailed.String(), resp.Status)
			require.NotNil(t, resp.ErrorMessage)
			assert.Contains(t, *resp.ErrorMessage, "status 503")
			assert.Empty(t, mock.SentMessages)

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusFailed, updated.Status)

			// Failed sends stay re-dispatchable
			mock.FailWith = nil
			resp, err = flow.SendNow(ctx, &dto.DispatchSendRequest{SendUUID: send.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusSent.String(), resp.Status)
		})

		t.Run("TemplateNotResolvable", func(t *testing.T) {
			mock := services.NewMockEmailProvider("sendgrid")
			flow := newDispatchFixture(testDB, mock)

			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)

			// Strip every template in the chain
			campaign.DefaultTemplateID = nil
			require.NoError(t, campaignRepo.Update(ctx, campaign))
			require.NoError(t, testDB.DB.Model(&models.CampaignStep{}).
				Where("campaign_id = ?", campaign.ID).
				Update("template_id", nil).Error)

			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusQueued)
			require.NoError(t, err)
			send.TemplateID = nil
			require.NoError(t, sendRepo.Update(ctx, send))

			_, err = flow.SendNow(ctx, &dto.DispatchSendRequest{SendUUID: send.UUID.String()}, metadata)
			assertBusinessErrorCode(t, err, "TEMPLATE_NOT_RESOLVABLE")

			// The send is untouched: still claimable later
			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusQueued, updated.Status)
			assert.Empty(t, mock.SentMessages)
		})

		t.Run("ValidationAndNotFound", func(t *testing.T) {
			flow := newDispatchFixture(testDB, services.NewMockEmailProvider("sendgrid"))

			_, err := flow.SendNow(ctx, &dto.DispatchSendRequest{}, metadata)
			assertBusinessErrorCode(t, err, "SEND_UUID_REQUIRED")

			_, err = flow.SendNow(ctx, &dto.DispatchSendRequest{SendUUID: "00000000-0000-0000-0000-000000000000"}, metadata)
			assertBusinessErrorCode(t, err, "SEND_NOT_FOUND")
		})

		return nil
	})
	require.NoError(t, err)
}
