package tests

import (
	"testing"
	"time"

	businessflow "github.com/amirphl/Susanoo/business_flow"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecipients(emails ...string) []dto.Recipient {
	recipients := make([]dto.Recipient, 0, len(emails))
	for _, email := range emails {
		recipients = append(recipients, dto.Recipient{
			Email:       email,
			DisplayName: "Test Recipient",
		})
	}
	return recipients
}

func TestScheduleCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		sendRepo := repository.NewCampaignSendRepository(testDB.DB)
		flow := businessflow.NewScheduleFlow(campaignRepo, sendRepo, testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("192.168.1.1", "test-agent")

		t.Run("ImmediateSingleStep", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)

			req := &dto.ScheduleCampaignRequest{
				CampaignUUID: campaign.UUID.String(),
				Recipients:   testRecipients("a@example.com", "b@example.com"),
			}

			resp, err := flow.ScheduleCampaign(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 2, resp.TotalRecipients)
			assert.Equal(t, 2, resp.SendsCreated)
			assert.Equal(t, 2, resp.SendsQueued)
			assert.Equal(t, 0, resp.SendsScheduled)
			assert.Equal(t, models.CampaignStatusRunning.String(), resp.CampaignStatus)

			updated, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusRunning, updated.Status)
			assert.Equal(t, models.ScheduleTypeImmediate, updated.ScheduleType)
			assert.Equal(t, 2, updated.TotalRecipients)

			sends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &campaign.ID}, "created_at ASC", 10, 0)
			require.NoError(t, err)
			require.Len(t, sends, 2)
			for _, send := range sends {
				assert.Equal(t, models.SendStatusQueued, send.Status)
				assert.Nil(t, send.Variant)
				assert.Equal(t, "Test Recipient", send.Metadata["contact"].(map[string]any)["display_name"])
			}
		})

		t.Run("FutureScheduledAt", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderResend)
			require.NoError(t, err)

			future := utils.UTCNow().Add(2 * time.Hour)
			req := &dto.ScheduleCampaignRequest{
				CampaignUUID: campaign.UUID.String(),
				ScheduledAt:  &future,
				Recipients:   testRecipients("a@example.com"),
			}

			resp, err := flow.ScheduleCampaign(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 0, resp.SendsQueued)
			assert.Equal(t, 1, resp.SendsScheduled)
			assert.Equal(t, models.CampaignStatusScheduled.String(), resp.CampaignStatus)

			updated, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ScheduleTypeScheduled, updated.ScheduleType)

			sends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &campaign.ID}, "created_at ASC", 10, 0)
			require.NoError(t, err)
			require.Len(t, sends, 1)
			assert.Equal(t, models.SendStatusScheduled, sends[0].Status)
			assert.WithinDuration(t, future, sends[0].ScheduledAt, time.Second)
		})

		t.Run("ABSplitAllVariantA", func(t *testing.T) {
			// With a 100% split everyone lands on A, so the variant-B
			// follow-up step never materializes a send.
			campaign, err := fixtures.CreateTestABCampaign(100, 24)
			require.NoError(t, err)

			req := &dto.ScheduleCampaignRequest{
				CampaignUUID: campaign.UUID.String(),
				Recipients:   testRecipients("a@example.com", "b@example.com", "c@example.com"),
			}

			resp, err := flow.ScheduleCampaign(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 3, resp.SendsCreated)

			sends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &campaign.ID}, "created_at ASC", 10, 0)
			require.NoError(t, err)
			require.Len(t, sends, 3)
			for _, send := range sends {
				require.NotNil(t, send.Variant)
				assert.Equal(t, models.VariantA, *send.Variant)
				assert.Equal(t, "A", send.Metadata["variant"])
			}
		})

		t.Run("ABSplitAllVariantB", func(t *testing.T) {
			// 0% split puts everyone on B: the base step plus the B
			// follow-up, with the follow-up delayed into scheduled.
			campaign, err := fixtures.CreateTestABCampaign(0, 24)
			require.NoError(t, err)

			req := &dto.ScheduleCampaignRequest{
				CampaignUUID: campaign.UUID.String(),
				Recipients:   testRecipients("a@example.com"),
			}

			resp, err := flow.ScheduleCampaign(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 2, resp.SendsCreated)
			assert.Equal(t, 1, resp.SendsQueued)
			assert.Equal(t, 1, resp.SendsScheduled)

			sends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &campaign.ID}, "scheduled_at ASC", 10, 0)
			require.NoError(t, err)
			require.Len(t, sends, 2)

			assert.Equal(t, models.SendStatusQueued, sends[0].Status)
			require.NotNil(t, sends[0].Variant)
			assert.Equal(t, models.VariantB, *sends[0].Variant)

			assert.Equal(t, models.SendStatusScheduled, sends[1].Status)
			assert.WithinDuration(t, sends[0].ScheduledAt.Add(24*time.Hour), sends[1].ScheduledAt, time.Second)
		})

		t.Run("VariantAssignmentIsDeterministic", func(t *testing.T) {
			first, err := fixtures.CreateTestABCampaign(50, 24)
			require.NoError(t, err)
			second, err := fixtures.CreateTestABCampaign(50, 24)
			require.NoError(t, err)

			recipients := testRecipients("same@example.com")
			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{CampaignUUID: first.UUID.String(), Recipients: recipients}, metadata)
			require.NoError(t, err)
			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{CampaignUUID: second.UUID.String(), Recipients: recipients}, metadata)
			require.NoError(t, err)

			firstSends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &first.ID}, "scheduled_at ASC", 10, 0)
			require.NoError(t, err)
			secondSends, err := sendRepo.ByFilter(ctx, models.CampaignSendFilter{CampaignID: &second.ID}, "scheduled_at ASC", 10, 0)
			require.NoError(t, err)

			require.NotEmpty(t, firstSends)
			require.NotEmpty(t, secondSends)
			assert.Equal(t, *firstSends[0].Variant, *secondSends[0].Variant)
		})

		t.Run("ValidationErrors", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)

			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{Recipients: testRecipients("a@example.com")}, metadata)
			assertBusinessErrorCode(t, err, "CAMPAIGN_UUID_REQUIRED")

			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{CampaignUUID: campaign.UUID.String()}, metadata)
			assertBusinessErrorCode(t, err, "NO_RECIPIENTS")

			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{
				CampaignUUID: campaign.UUID.String(),
				Recipients:   []dto.Recipient{{Email: ""}},
			}, metadata)
			assertBusinessErrorCode(t, err, "RECIPIENT_EMAIL_REQUIRED")

			_, err = flow.ScheduleCampaign(ctx, &dto.ScheduleCampaignRequest{
				CampaignUUID: "00000000-0000-0000-0000-000000000000",
				Recipients:   testRecipients("a@example.com"),
			}, metadata)
			assertBusinessErrorCode(t, err, "CAMPAIGN_NOT_FOUND")
		})

		return nil
	})
	require.NoError(t, err)
}

func assertBusinessErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var bizErr *businessflow.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, code, bizErr.Code)
}
