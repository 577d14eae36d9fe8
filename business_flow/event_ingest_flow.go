// Package businessflow contains the core business logic and use cases for webhook ingestion workflows
package businessflow

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// sendGridEventNames maps SendGrid wire names to normalized event types
var sendGridEventNames = map[string]models.EventType{
	"delivered":   models.EventTypeDelivered,
	"open":        models.EventTypeOpened,
	"click":       models.EventTypeClicked,
	"bounce":      models.EventTypeBounced,
	"spamreport":  models.EventTypeComplained,
	"unsubscribe": models.EventTypeUnsubscribed,
	"dropped":     models.EventTypeDropped,
}

// resendEventNames maps Resend wire names to normalized event types
var resendEventNames = map[string]models.EventType{
	"email.delivered":  models.EventTypeDelivered,
	"email.opened":     models.EventTypeOpened,
	"email.clicked":    models.EventTypeClicked,
	"email.bounced":    models.EventTypeBounced,
	"email.complained": models.EventTypeComplained,
}

// NormalizeEventName maps a provider's wire event name to the normalized
// EventType. Unknown names return false: providers add event types over time
// and unmapped ones are silently dropped, never an error.
func NormalizeEventName(provider, name string) (models.EventType, bool) {
	switch provider {
	case models.CampaignProviderSendGrid.String():
		t, ok := sendGridEventNames[name]
		return t, ok
	case models.CampaignProviderResend.String():
		t, ok := resendEventNames[name]
		return t, ok
	default:
		t := models.EventType(name)
		if t.Valid() {
			return t, true
		}
		return "", false
	}
}

// StripMessageIDSuffix removes the routing metadata some providers append to
// message ids in webhook payloads. SendGrid suffixes the original id after a
// dot separator; the stored id never carries one.
func StripMessageIDSuffix(messageID string) string {
	if idx := strings.Index(messageID, "."); idx >= 0 {
		return messageID[:idx]
	}
	return messageID
}

// EventIngestFlow handles the webhook batch ingestion business logic
type EventIngestFlow interface {
	IngestWebhookBatch(ctx context.Context, req *dto.IngestWebhookBatchRequest, metadata *ClientMetadata) (*dto.IngestWebhookBatchResponse, error)
}

// EventIngestFlowImpl implements the webhook ingestion business flow
type EventIngestFlowImpl struct {
	sendRepo  repository.CampaignSendRepository
	eventRepo repository.EmailEventRepository
	batchRepo repository.IngestionBatchRepository
	logger    *log.Logger
	db        *gorm.DB
}

// NewEventIngestFlow creates a new event ingest flow instance
func NewEventIngestFlow(
	sendRepo repository.CampaignSendRepository,
	eventRepo repository.EmailEventRepository,
	batchRepo repository.IngestionBatchRepository,
	logger *log.Logger,
	db *gorm.DB,
) EventIngestFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &EventIngestFlowImpl{
		sendRepo:  sendRepo,
		eventRepo: eventRepo,
		batchRepo: batchRepo,
		logger:    logger,
		db:        db,
	}
}

// IngestWebhookBatch processes one webhook delivery in a single transaction.
// Unresolvable or unknown payloads are skipped, never fatal; only a failed
// commit rolls the whole batch back, which the caller may then retry. Replays
// are safe: the monotonic status rule absorbs duplicates and Event rows are
// simply appended again.
func (e *EventIngestFlowImpl) IngestWebhookBatch(ctx context.Context, req *dto.IngestWebhookBatchRequest, metadata *ClientMetadata) (*dto.IngestWebhookBatchResponse, error) {
	if len(req.Events) == 0 {
		return nil, NewValidationError("EMPTY_WEBHOOK_BATCH", "Webhook batch is empty", ErrEmptyWebhookBatch)
	}

	var ingested, skipped int
	providerEventIDs := make([]string, 0, len(req.Events))

	err := repository.WithTransaction(ctx, e.db, func(txCtx context.Context) error {
		for i := range req.Events {
			event := &req.Events[i]

			eventType, ok := NormalizeEventName(req.Provider, event.Event)
			if !ok {
				skipped++
				webhookEventsIngestedTotal.WithLabelValues(event.Event, "skipped").Inc()
				continue
			}

			occurredAt := utils.UTCNow()
			if event.Timestamp > 0 {
				occurredAt = time.Unix(event.Timestamp, 0).UTC()
			}

			send, err := e.resolveSend(txCtx, event, occurredAt)
			if err != nil {
				return err
			}
			if send == nil {
				skipped++
				webhookEventsIngestedTotal.WithLabelValues(eventType.String(), "skipped").Inc()
				e.logger.Printf("webhook event unresolvable: provider=%s event=%s email=%s message_id=%s",
					req.Provider, event.Event, event.Email, event.ProviderMessageID)
				continue
			}

			if err := e.eventRepo.Save(txCtx, buildEventRow(send.ID, eventType, occurredAt, event)); err != nil {
				return err
			}

			if candidate, ok := eventType.CandidateStatus(); ok {
				if send.ApplyEventStatus(candidate) {
					if err := e.sendRepo.Update(txCtx, send); err != nil {
						return err
					}
				}
			}

			ingested++
			webhookEventsIngestedTotal.WithLabelValues(eventType.String(), "ingested").Inc()
			if event.ProviderEventID != "" {
				providerEventIDs = append(providerEventIDs, event.ProviderEventID)
			}
		}

		return e.batchRepo.Save(txCtx, &models.IngestionBatch{
			Provider:         models.CampaignProvider(req.Provider),
			EventCount:       len(req.Events),
			IngestedCount:    ingested,
			SkippedCount:     skipped,
			ProviderEventIDs: pq.StringArray(providerEventIDs),
		})
	})
	if err != nil {
		return nil, NewIngestionError("INGESTION_COMMIT_FAILED", "Webhook batch ingestion failed", err)
	}

	return &dto.IngestWebhookBatchResponse{
		Provider: req.Provider,
		Received: len(req.Events),
		Ingested: ingested,
		Skipped:  skipped,
	}, nil
}

// resolveSend resolves the target send for one event, in priority order: the
// custom-args send_id echo, the stored provider message id (suffix stripped),
// then the most recent send to the recipient address within the 48h look-back
// window ending at the event timestamp. The fallback can misattribute when a
// recipient got two campaigns inside the window with no identifiers in the
// payload; that ambiguity is inherited behavior, kept as is.
func (e *EventIngestFlowImpl) resolveSend(ctx context.Context, event *dto.WebhookEvent, occurredAt time.Time) (*models.CampaignSend, error) {
	if sendUUID, ok := event.CustomArgs["send_id"]; ok && sendUUID != "" {
		send, err := e.sendRepo.ByUUID(ctx, sendUUID)
		if err == nil && send != nil {
			return send, nil
		}
		// Invalid or stale echo falls through to the next strategy
	}

	if event.ProviderMessageID != "" {
		stripped := StripMessageIDSuffix(event.ProviderMessageID)
		send, err := e.sendRepo.ByProviderMessageID(ctx, stripped)
		if err != nil {
			return nil, err
		}
		if send != nil {
			return send, nil
		}
	}

	if event.Email != "" {
		from := occurredAt.Add(-utils.EventLookbackWindow)
		send, err := e.sendRepo.LatestByRecipientBetween(ctx, event.Email, from, occurredAt)
		if err != nil {
			return nil, err
		}
		return send, nil
	}

	return nil, nil
}

// buildEventRow converts one webhook payload into the append-only event row,
// keeping the raw payload for audit.
func buildEventRow(sendID uint, eventType models.EventType, occurredAt time.Time, event *dto.WebhookEvent) *models.EmailEvent {
	row := &models.EmailEvent{
		SendID:     sendID,
		Type:       eventType,
		OccurredAt: occurredAt,
		Payload:    event.Raw,
	}
	if event.ProviderEventID != "" {
		row.ProviderEventID = utils.ToPtr(event.ProviderEventID)
	}
	if event.ProviderMessageID != "" {
		row.ProviderMessageID = utils.ToPtr(event.ProviderMessageID)
	}
	if event.IP != "" {
		row.IPAddress = utils.ToPtr(event.IP)
	}
	if event.UserAgent != "" {
		row.UserAgent = utils.ToPtr(event.UserAgent)
	}
	if event.URL != "" {
		row.ClickURL = utils.ToPtr(event.URL)
	}
	return row
}
