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

func TestGetCampaignStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		sendRepo := repository.NewCampaignSendRepository(testDB.DB)
		eventRepo := repository.NewEmailEventRepository(testDB.DB)
		flow := businessflow.NewStatsFlow(campaignRepo, sendRepo, eventRepo)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("192.168.1.1", "test-agent")

		t.Run("RatesFromUniqueCounts", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)

			engaged, err := fixtures.CreateTestSend(campaign, "engaged@example.com", models.SendStatusClicked)
			require.NoError(t, err)
			_, err = fixtures.CreateTestSend(campaign, "quiet@example.com", models.SendStatusDelivered)
			require.NoError(t, err)

			now := utils.UTCNow()
			// The engaged recipient opened twice and clicked once; raw
			// counts keep the duplicate, unique counts and rates do not
			_, err = fixtures.CreateTestEvent(engaged.ID, models.EventTypeOpened, now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEvent(engaged.ID, models.EventTypeOpened, now.Add(time.Minute))
			require.NoError(t, err)
			_, err = fixtures.CreateTestEvent(engaged.ID, models.EventTypeClicked, now.Add(2*time.Minute))
			require.NoError(t, err)

			resp, err := flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{CampaignUUID: campaign.UUID.String()}, metadata)
			require.NoError(t, err)

			assert.Equal(t, campaign.Name, resp.CampaignName)
			assert.False(t, resp.IsABTest)
			assert.Empty(t, resp.Variants)

			assert.Equal(t, int64(2), resp.Metrics.TotalSent)
			assert.Equal(t, int64(2), resp.Metrics.Opens)
			assert.Equal(t, int64(1), resp.Metrics.UniqueOpens)
			assert.Equal(t, int64(1), resp.Metrics.Clicks)
			assert.Equal(t, int64(1), resp.Metrics.UniqueClicks)
			assert.InDelta(t, 50.0, resp.Metrics.OpenRate, 0.0001)
			assert.InDelta(t, 50.0, resp.Metrics.ClickRate, 0.0001)
		})

		t.Run("DeliveryAndBounceRates", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)

			delivered, err := fixtures.CreateTestSend(campaign, "ok@example.com", models.SendStatusDelivered)
			require.NoError(t, err)
			bounced, err := fixtures.CreateTestSend(campaign, "gone@example.com", models.SendStatusBounced)
			require.NoError(t, err)

			now := utils.UTCNow()
			_, err = fixtures.CreateTestEvent(delivered.ID, models.EventTypeDelivered, now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEvent(bounced.ID, models.EventTypeBounced, now)
			require.NoError(t, err)

			resp, err := flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{CampaignUUID: campaign.UUID.String()}, metadata)
			require.NoError(t, err)

			assert.Equal(t, int64(1), resp.Metrics.Delivered)
			assert.Equal(t, int64(1), resp.Metrics.Bounces)
			assert.InDelta(t, 50.0, resp.Metrics.DeliveryRate, 0.0001)
			assert.InDelta(t, 50.0, resp.Metrics.BounceRate, 0.0001)
		})

		t.Run("VariantBreakdown", func(t *testing.T) {
			campaign, err := fixtures.CreateTestABCampaign(50, 24)
			require.NoError(t, err)

			variantA := models.VariantA
			variantB := models.VariantB

			sendA, err := fixtures.CreateTestSend(campaign, "a@example.com", models.SendStatusSent)
			require.NoError(t, err)
			sendA.Variant = &variantA
			require.NoError(t, sendRepo.Update(ctx, sendA))

			sendB, err := fixtures.CreateTestSend(campaign, "b@example.com", models.SendStatusSent)
			require.NoError(t, err)
			sendB.Variant = &variantB
			require.NoError(t, sendRepo.Update(ctx, sendB))

			now := utils.UTCNow()
			_, err = fixtures.CreateTestEvent(sendA.ID, models.EventTypeOpened, now)
			require.NoError(t, err)

			resp, err := flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{CampaignUUID: campaign.UUID.String()}, metadata)
			require.NoError(t, err)

			assert.True(t, resp.IsABTest)
			require.Len(t, resp.Variants, 2)

			byVariant := make(map[string]dto.CampaignStatsMetrics)
			for _, v := range resp.Variants {
				byVariant[v.Variant] = v.Metrics
			}

			assert.Equal(t, int64(1), byVariant["A"].TotalSent)
			assert.Equal(t, int64(1), byVariant["A"].UniqueOpens)
			assert.InDelta(t, 100.0, byVariant["A"].OpenRate, 0.0001)

			assert.Equal(t, int64(1), byVariant["B"].TotalSent)
			assert.Equal(t, int64(0), byVariant["B"].UniqueOpens)
			assert.InDelta(t, 0.0, byVariant["B"].OpenRate, 0.0001)
		})

		t.Run("CampaignWithNoEvents", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderResend)
			require.NoError(t, err)
			_, err = fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			resp, err := flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{CampaignUUID: campaign.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.Metrics.TotalSent)
			assert.Zero(t, resp.Metrics.Opens)
			assert.Zero(t, resp.Metrics.OpenRate)
		})

		t.Run("NotFoundAndValidation", func(t *testing.T) {
			_, err := flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{}, metadata)
			assertBusinessErrorCode(t, err, "CAMPAIGN_UUID_REQUIRED")

			_, err = flow.GetCampaignStats(ctx, &dto.GetCampaignStatsRequest{CampaignUUID: "00000000-0000-0000-0000-000000000000"}, metadata)
			assertBusinessErrorCode(t, err, "CAMPAIGN_NOT_FOUND")
		})

		return nil
	})
	require.NoError(t, err)
}
