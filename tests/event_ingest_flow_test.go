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

func TestIngestWebhookBatch(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		sendRepo := repository.NewCampaignSendRepository(testDB.DB)
		eventRepo := repository.NewEmailEventRepository(testDB.DB)
		batchRepo := repository.NewIngestionBatchRepository(testDB.DB)
		flow := businessflow.NewEventIngestFlow(sendRepo, eventRepo, batchRepo, nil, testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("192.168.1.1", "sendgrid-webhook")

		t.Run("ResolveByCustomArgs", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{{
					Event:           "delivered",
					Timestamp:       utils.UTCNow().Unix(),
					ProviderEventID: "evt-delivered-1",
					CustomArgs:      map[string]string{"send_id": send.UUID.String()},
				}},
			}

			resp, err := flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Received)
			assert.Equal(t, 1, resp.Ingested)
			assert.Equal(t, 0, resp.Skipped)

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusDelivered, updated.Status)

			events, err := eventRepo.ByFilter(ctx, models.EmailEventFilter{SendID: &send.ID}, "", 10, 0)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, models.EventTypeDelivered, events[0].Type)
		})

		t.Run("ResolveByStrippedMessageID", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)
			send.ProviderMessageID = utils.ToPtr("sgmsg123")
			require.NoError(t, sendRepo.Update(ctx, send))

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{{
					Event:             "open",
					Timestamp:         utils.UTCNow().Unix(),
					ProviderMessageID: "sgmsg123.filterdrecv-5645d9c87f-p2zmt",
				}},
			}

			resp, err := flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Ingested)

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusOpened, updated.Status)
		})

		t.Run("ResolveByRecipientFallback", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderResend)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "fallback@example.com", models.SendStatusSent)
			require.NoError(t, err)

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderResend.String(),
				Events: []dto.WebhookEvent{{
					Event:     "email.clicked",
					Timestamp: utils.UTCNow().Unix(),
					Email:     "fallback@example.com",
					URL:       "https://example.com/offer",
				}},
			}

			resp, err := flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Ingested)

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusClicked, updated.Status)

			events, err := eventRepo.ByFilter(ctx, models.EmailEventFilter{SendID: &send.ID}, "", 10, 0)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.NotNil(t, events[0].ClickURL)
			assert.Equal(t, "https://example.com/offer", *events[0].ClickURL)
		})

		t.Run("UnknownEventNameSkipped", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{
					{Event: "processed", CustomArgs: map[string]string{"send_id": send.UUID.String()}},
					{Event: "delivered", CustomArgs: map[string]string{"send_id": send.UUID.String()}},
				},
			}

			resp, err := flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 2, resp.Received)
			assert.Equal(t, 1, resp.Ingested)
			assert.Equal(t, 1, resp.Skipped)
		})

		t.Run("UnresolvableEventSkipped", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{{
					Event: "delivered",
					Email: "nobody@example.com",
				}},
			}

			resp, err := flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, 0, resp.Ingested)
			assert.Equal(t, 1, resp.Skipped)
		})

		t.Run("MonotonicStatusOnLateDelivery", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			now := utils.UTCNow()
			ingest := func(event string, ts time.Time) {
				t.Helper()
				_, err := flow.IngestWebhookBatch(ctx, &dto.IngestWebhookBatchRequest{
					Provider: models.CampaignProviderSendGrid.String(),
					Events: []dto.WebhookEvent{{
						Event:      event,
						Timestamp:  ts.Unix(),
						CustomArgs: map[string]string{"send_id": send.UUID.String()},
					}},
				}, metadata)
				require.NoError(t, err)
			}

			// Click arrives before the delivery receipt; the late receipt
			// must not regress the status
			ingest("click", now)
			ingest("delivered", now.Add(time.Minute))

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusClicked, updated.Status)

			// Both events are still recorded
			events, err := eventRepo.ByFilter(ctx, models.EmailEventFilter{SendID: &send.ID}, "", 10, 0)
			require.NoError(t, err)
			assert.Len(t, events, 2)
		})

		t.Run("ReplayIsHarmless", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{{
					Event:           "open",
					Timestamp:       utils.UTCNow().Unix(),
					ProviderEventID: "evt-replayed",
					CustomArgs:      map[string]string{"send_id": send.UUID.String()},
				}},
			}

			_, err = flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)
			_, err = flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)

			updated, err := sendRepo.ByID(ctx, send.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SendStatusOpened, updated.Status)
		})

		t.Run("BatchAuditRowWritten", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			campaign, err := fixtures.CreateTestCampaign(models.CampaignProviderSendGrid)
			require.NoError(t, err)
			send, err := fixtures.CreateTestSend(campaign, "jane@example.com", models.SendStatusSent)
			require.NoError(t, err)

			req := &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
				Events: []dto.WebhookEvent{
					{Event: "delivered", ProviderEventID: "evt-audit-1", CustomArgs: map[string]string{"send_id": send.UUID.String()}},
					{Event: "processed"},
				},
			}

			_, err = flow.IngestWebhookBatch(ctx, req, metadata)
			require.NoError(t, err)

			var batches []models.IngestionBatch
			require.NoError(t, testDB.DB.Find(&batches).Error)
			require.Len(t, batches, 1)
			assert.Equal(t, models.CampaignProviderSendGrid, batches[0].Provider)
			assert.Equal(t, 2, batches[0].EventCount)
			assert.Equal(t, 1, batches[0].IngestedCount)
			assert.Equal(t, 1, batches[0].SkippedCount)
			assert.Equal(t, []string{"evt-audit-1"}, []string(batches[0].ProviderEventIDs))
		})

		t.Run("EmptyBatchRejected", func(t *testing.T) {
			_, err := flow.IngestWebhookBatch(ctx, &dto.IngestWebhookBatchRequest{
				Provider: models.CampaignProviderSendGrid.String(),
			}, metadata)
			assertBusinessErrorCode(t, err, "EMPTY_WEBHOOK_BATCH")
		})

		return nil
	})
	require.NoError(t, err)
}
