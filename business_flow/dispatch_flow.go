// Package businessflow contains the core business logic and use cases for send dispatch workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DispatchFlow handles the send dispatch business logic
type DispatchFlow interface {
	SendNow(ctx context.Context, req *dto.DispatchSendRequest, metadata *ClientMetadata) (*dto.DispatchSendResponse, error)
}

// DispatchFlowImpl implements the send dispatch business flow
type DispatchFlowImpl struct {
	sendRepo       repository.CampaignSendRepository
	campaignRepo   repository.CampaignRepository
	templateRepo   repository.EmailTemplateRepository
	contactRepo    repository.ContactRepository
	orgRepo        repository.OrganisationRepository
	registry       *services.ProviderRegistry
	rc             *redis.Client
	cacheConfig    *config.CacheConfig
	deliveryConfig *config.DeliveryConfig
	db             *gorm.DB
}

// NewDispatchFlow creates a new dispatch flow instance. rc may be nil when no
// Redis deployment exists; the transactional claim alone still prevents
// double-dispatch within one database.
func NewDispatchFlow(
	sendRepo repository.CampaignSendRepository,
	campaignRepo repository.CampaignRepository,
	templateRepo repository.EmailTemplateRepository,
	contactRepo repository.ContactRepository,
	orgRepo repository.OrganisationRepository,
	registry *services.ProviderRegistry,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	deliveryConfig *config.DeliveryConfig,
	db *gorm.DB,
) DispatchFlow {
	return &DispatchFlowImpl{
		sendRepo:       sendRepo,
		campaignRepo:   campaignRepo,
		templateRepo:   templateRepo,
		contactRepo:    contactRepo,
		orgRepo:        orgRepo,
		registry:       registry,
		rc:             rc,
		cacheConfig:    cacheConfig,
		deliveryConfig: deliveryConfig,
		db:             db,
	}
}

// SendNow dispatches one send through its campaign's provider. Idempotent for
// sends already in the delivered-or-better set. Provider failures are recorded
// on the send and not re-raised, so one failing send never aborts a batch.
func (d *DispatchFlowImpl) SendNow(ctx context.Context, req *dto.DispatchSendRequest, metadata *ClientMetadata) (*dto.DispatchSendResponse, error) {
	if req.SendUUID == "" {
		return nil, NewValidationError("SEND_UUID_REQUIRED", "Send UUID is required", ErrSendUUIDRequired)
	}

	send, err := d.sendRepo.ByUUID(ctx, req.SendUUID)
	if err != nil {
		return nil, NewBusinessError("SEND_LOOKUP_FAILED", "Failed to lookup send", KindInternal, err)
	}
	if send == nil {
		return nil, NewNotFoundError("SEND_NOT_FOUND", "Send not found", ErrSendNotFound)
	}

	if send.IsDispatched() {
		sendsDispatchedTotal.WithLabelValues("skipped").Inc()
		return toDispatchResponse(send, true), nil
	}

	campaign, err := d.campaignRepo.ByID(ctx, send.CampaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", KindInternal, err)
	}
	if campaign == nil {
		return nil, NewNotFoundError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	// Template resolution happens before any mutation so an unresolvable
	// template aborts cleanly with the send untouched.
	template, err := d.resolveTemplate(ctx, send, campaign)
	if err != nil {
		return nil, err
	}

	unlock, err := d.acquireDispatchLock(ctx, send)
	if err != nil {
		return nil, err
	}
	defer unlock()

	claimed, err := d.sendRepo.ClaimForDispatch(ctx, send.ID)
	if err != nil {
		return nil, NewBusinessError("DISPATCH_CLAIM_FAILED", "Failed to claim send for dispatch", KindInternal, err)
	}
	if !claimed {
		// Lost the race: either a concurrent dispatcher holds it or it
		// completed in the meantime. Re-read and report, never re-send.
		current, err := d.sendRepo.ByUUID(ctx, req.SendUUID)
		if err != nil || current == nil {
			return nil, NewBusinessError("SEND_RELOAD_FAILED", "Failed to reload send after lost claim", KindInternal, err)
		}
		if current.IsDispatched() {
			sendsDispatchedTotal.WithLabelValues("skipped").Inc()
			return toDispatchResponse(current, true), nil
		}
		return nil, NewBusinessError("DISPATCH_CLAIM_LOST", "Send is already being dispatched", KindValidation, ErrDispatchClaimLost)
	}
	send.Status = models.SendStatusSending
	send.ErrorMessage = nil

	renderCtx := d.buildDispatchContext(ctx, send, campaign)
	contextMap := renderCtx.ToMap()
	subject := Render(template.Subject, contextMap)
	htmlBody := Render(template.HTMLContent, contextMap)

	adapter, err := d.registry.Resolve(campaign.Provider)
	if err != nil {
		return d.recordFailure(ctx, send, campaign, err)
	}

	msg := services.OutboundMessage{
		FromEmail:   campaign.FromEmail,
		FromName:    campaign.FromName,
		ToEmail:     send.RecipientEmail,
		ToName:      send.RecipientName,
		Subject:     subject,
		HTMLBody:    htmlBody,
		TrackOpens:  campaign.TrackOpens,
		TrackClicks: campaign.TrackClicks,
		CustomArgs: map[string]string{
			"campaign_id": campaign.UUID.String(),
			"send_id":     send.UUID.String(),
		},
	}
	if campaign.ReplyTo != nil {
		msg.ReplyTo = *campaign.ReplyTo
	}

	providerCtx, cancel := context.WithTimeout(ctx, d.deliveryConfig.ProviderTimeout)
	defer cancel()

	providerMessageID, sendErr := adapter.Send(providerCtx, msg)
	if sendErr != nil {
		return d.recordFailure(ctx, send, campaign, sendErr)
	}

	now := utils.UTCNow()
	send.Status = models.SendStatusSent
	send.SentAt = &now
	if providerMessageID != "" {
		send.ProviderMessageID = &providerMessageID
	}

	err = repository.WithTransaction(ctx, d.db, func(txCtx context.Context) error {
		if err := d.sendRepo.Update(txCtx, send); err != nil {
			return err
		}
		return d.campaignRepo.IncrementTotalSent(txCtx, campaign.ID, now)
	})
	if err != nil {
		return nil, NewBusinessError("DISPATCH_RECORD_FAILED", "Failed to record dispatch outcome", KindInternal, err)
	}

	sendsDispatchedTotal.WithLabelValues("sent").Inc()
	return toDispatchResponse(send, false), nil
}

// resolveTemplate walks the template priority chain: send's own, then step's,
// then the campaign default.
func (d *DispatchFlowImpl) resolveTemplate(ctx context.Context, send *models.CampaignSend, campaign *models.Campaign) (*models.EmailTemplate, error) {
	templateID := send.TemplateID
	if templateID == nil {
		for i := range campaign.Steps {
			if campaign.Steps[i].ID == send.StepID {
				templateID = campaign.Steps[i].TemplateID
				break
			}
		}
	}
	if templateID == nil {
		templateID = campaign.DefaultTemplateID
	}
	if templateID == nil {
		return nil, NewValidationError("TEMPLATE_NOT_RESOLVABLE", "No template resolvable for send", ErrTemplateNotResolvable)
	}

	template, err := d.templateRepo.ByID(ctx, *templateID)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LOOKUP_FAILED", "Failed to lookup template", KindInternal, err)
	}
	if template == nil {
		return nil, NewValidationError("TEMPLATE_NOT_FOUND", "Template not found", ErrTemplateNotFound)
	}

	return template, nil
}

// acquireDispatchLock takes the per-send Redis lock when a Redis client is
// configured. The returned release function is always safe to call.
func (d *DispatchFlowImpl) acquireDispatchLock(ctx context.Context, send *models.CampaignSend) (func(), error) {
	if d.rc == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("%s:dispatch:send:%s", d.cacheConfig.RedisPrefix, send.UUID.String())
	ok, err := d.rc.SetNX(ctx, lockKey, "1", d.deliveryConfig.DispatchLockTTL).Result()
	if err != nil {
		return nil, NewBusinessError("DISPATCH_LOCK_FAILED", "Failed to acquire dispatch lock", KindInternal, err)
	}
	if !ok {
		return nil, NewBusinessError("DISPATCH_LOCK_BUSY", "Another worker is dispatching this send", KindValidation, ErrDispatchLockUnavailable)
	}

	return func() {
		_ = d.rc.Del(context.Background(), lockKey).Err()
	}, nil
}

// buildDispatchContext merges the context stored at scheduling time with live
// contact/organisation data. Stored metadata stays authoritative; live data
// only fills gaps. A system block with the unsubscribe URL is always set.
func (d *DispatchFlowImpl) buildDispatchContext(ctx context.Context, send *models.CampaignSend, campaign *models.Campaign) RenderContext {
	rc := renderContextFromMetadata(send.Metadata)

	if rc.Contact.Email == "" {
		rc.Contact.Email = send.RecipientEmail
	}
	if send.ContactID != nil && (rc.Contact.FirstName == "" || rc.Contact.LastName == "" || rc.Contact.DisplayName == "") {
		if contact, err := d.contactRepo.ByID(ctx, *send.ContactID); err == nil && contact != nil {
			if rc.Contact.FirstName == "" && contact.FirstName != nil {
				rc.Contact.FirstName = *contact.FirstName
			}
			if rc.Contact.LastName == "" && contact.LastName != nil {
				rc.Contact.LastName = *contact.LastName
			}
			if rc.Contact.DisplayName == "" {
				rc.Contact.DisplayName = contact.DisplayName
			}
		}
	}
	if send.OrganisationID != nil && rc.Organisation.Name == "" {
		if org, err := d.orgRepo.ByID(ctx, *send.OrganisationID); err == nil && org != nil {
			rc.Organisation.Name = org.Name
			if org.Domain != nil {
				rc.Organisation.Domain = *org.Domain
			}
		}
	}
	if rc.Campaign.Name == "" {
		rc.Campaign.Name = campaign.Name
	}
	if rc.Campaign.FromName == "" {
		rc.Campaign.FromName = campaign.FromName
	}

	rc.System.UnsubscribeURL = fmt.Sprintf("%s/%s", d.deliveryConfig.UnsubscribeBaseURL, send.UUID.String())

	return rc
}

// recordFailure reconciles a claimed send to failed and returns the send-level
// outcome without re-raising the provider error.
func (d *DispatchFlowImpl) recordFailure(ctx context.Context, send *models.CampaignSend, campaign *models.Campaign, cause error) (*dto.DispatchSendResponse, error) {
	errMsg := cause.Error()
	send.Status = models.SendStatusFailed
	send.ErrorMessage = &errMsg

	if err := d.sendRepo.Update(ctx, send); err != nil {
		return nil, NewBusinessError("DISPATCH_RECORD_FAILED", "Failed to record dispatch failure", KindInternal, err)
	}

	sendsDispatchedTotal.WithLabelValues("failed").Inc()
	return toDispatchResponse(send, false), nil
}

// toDispatchResponse converts a send to the dispatch response DTO
func toDispatchResponse(send *models.CampaignSend, alreadyDispatched bool) *dto.DispatchSendResponse {
	return &dto.DispatchSendResponse{
		SendUUID:          send.UUID.String(),
		Status:            send.Status.String(),
		ProviderMessageID: send.ProviderMessageID,
		SentAt:            send.SentAt,
		ErrorMessage:      send.ErrorMessage,
		AlreadyDispatched: alreadyDispatched,
	}
}
