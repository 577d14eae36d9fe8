// Package businessflow contains the core business logic and use cases for campaign scheduling workflows
package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleFlow handles the campaign scheduling business logic
type ScheduleFlow interface {
	ScheduleCampaign(ctx context.Context, req *dto.ScheduleCampaignRequest, metadata *ClientMetadata) (*dto.ScheduleCampaignResponse, error)
}

// ScheduleFlowImpl implements the campaign scheduling business flow
type ScheduleFlowImpl struct {
	campaignRepo repository.CampaignRepository
	sendRepo     repository.CampaignSendRepository
	db           *gorm.DB
}

// NewScheduleFlow creates a new schedule flow instance
func NewScheduleFlow(
	campaignRepo repository.CampaignRepository,
	sendRepo repository.CampaignSendRepository,
	db *gorm.DB,
) ScheduleFlow {
	return &ScheduleFlowImpl{
		campaignRepo: campaignRepo,
		sendRepo:     sendRepo,
		db:           db,
	}
}

// ScheduleCampaign materializes one send per (recipient, eligible step) for a
// campaign. Not idempotent across repeated calls with the same recipients:
// callers must clear prior sends before re-scheduling.
func (s *ScheduleFlowImpl) ScheduleCampaign(ctx context.Context, req *dto.ScheduleCampaignRequest, metadata *ClientMetadata) (*dto.ScheduleCampaignResponse, error) {
	if req.CampaignUUID == "" {
		return nil, NewValidationError("CAMPAIGN_UUID_REQUIRED", "Campaign UUID is required", ErrCampaignUUIDRequired)
	}
	if len(req.Recipients) == 0 {
		return nil, NewValidationError("NO_RECIPIENTS", "Recipient list is empty", ErrNoRecipients)
	}
	for _, recipient := range req.Recipients {
		if recipient.Email == "" {
			return nil, NewValidationError("RECIPIENT_EMAIL_REQUIRED", "Recipient email is required", ErrRecipientEmailRequired)
		}
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", KindInternal, err)
	}
	if campaign == nil {
		return nil, NewNotFoundError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if len(campaign.Steps) == 0 {
		return nil, NewValidationError("CAMPAIGN_HAS_NO_STEPS", "Campaign has no steps", ErrCampaignHasNoSteps)
	}
	if campaign.IsABTest && (campaign.ABSplitPercentage < 0 || campaign.ABSplitPercentage > 100) {
		return nil, NewValidationError("INVALID_SPLIT_PERCENTAGE", "Split percentage must be between 0 and 100", ErrInvalidSplitPercentage)
	}

	now := utils.UTCNow()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = utils.TimeToUTC(*req.ScheduledAt)
	}

	sends := s.buildSends(campaign, req.Recipients, scheduledAt, now)

	var queued, scheduled int
	for _, send := range sends {
		if send.Status == models.SendStatusQueued {
			queued++
		} else {
			scheduled++
		}
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.sendRepo.SaveBatch(txCtx, sends); err != nil {
			return err
		}

		campaign.TotalRecipients = len(req.Recipients)
		campaign.ScheduledAt = &scheduledAt
		if req.ScheduledAt == nil {
			campaign.ScheduleType = models.ScheduleTypeImmediate
		} else {
			campaign.ScheduleType = models.ScheduleTypeScheduled
		}
		if campaign.ScheduleType == models.ScheduleTypeImmediate && queued > 0 {
			campaign.Status = models.CampaignStatusRunning
		} else {
			campaign.Status = models.CampaignStatusScheduled
		}

		return s.campaignRepo.Update(txCtx, campaign)
	})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_SCHEDULING_FAILED", "Campaign scheduling failed", KindInternal, err)
	}

	return &dto.ScheduleCampaignResponse{
		CampaignUUID:    campaign.UUID.String(),
		CampaignStatus:  campaign.Status.String(),
		TotalRecipients: campaign.TotalRecipients,
		SendsCreated:    len(sends),
		SendsQueued:     queued,
		SendsScheduled:  scheduled,
		ScheduledAt:     scheduledAt,
	}, nil
}

// buildSends runs the per-recipient scheduling algorithm: one variant per
// recipient, one render context, then one send per step that applies to the
// recipient's arm. Pure except for UUID generation.
func (s *ScheduleFlowImpl) buildSends(campaign *models.Campaign, recipients []dto.Recipient, scheduledAt, now time.Time) []*models.CampaignSend {
	sends := make([]*models.CampaignSend, 0, len(recipients)*len(campaign.Steps))

	for _, recipient := range recipients {
		token := VariantToken(recipient.Email, recipient.ContactID, recipient.OrganisationID, recipient.DisplayName)
		recipientVariant := AssignVariant(campaign.IsABTest, campaign.ABSplitPercentage, token)

		renderCtx := buildRecipientContext(campaign, recipient)

		for _, step := range campaign.Steps {
			if !step.AppliesTo(campaign.IsABTest, recipientVariant) {
				continue
			}

			sendTime := scheduledAt.Add(time.Duration(step.DelayHours) * time.Hour)
			status := models.SendStatusScheduled
			if !sendTime.After(now) {
				status = models.SendStatusQueued
			}

			// The step's explicit variant wins over the recipient's
			// assigned one so branch-specific sends stay attributable.
			variant := recipientVariant
			if step.Variant != nil {
				variant = step.Variant
			}

			templateID := step.TemplateID
			if templateID == nil {
				templateID = campaign.DefaultTemplateID
			}

			metadata := models.JSONMap(renderCtx.ToMap())
			if variant != nil {
				metadata["variant"] = variant.String()
			}

			sends = append(sends, &models.CampaignSend{
				UUID:           uuid.New(),
				CampaignID:     campaign.ID,
				StepID:         step.ID,
				TemplateID:     templateID,
				RecipientEmail: recipient.Email,
				RecipientName:  recipient.DisplayName,
				ContactID:      recipient.ContactID,
				OrganisationID: recipient.OrganisationID,
				Variant:        variant,
				Status:         status,
				ScheduledAt:    sendTime,
				Metadata:       metadata,
			})
		}
	}

	return sends
}

// buildRecipientContext builds the typed render context persisted in the
// send's metadata. Organisation name is filled from live data at dispatch
// time when not already present.
func buildRecipientContext(campaign *models.Campaign, recipient dto.Recipient) RenderContext {
	rc := RenderContext{
		Contact: ContactContext{
			Email:       recipient.Email,
			DisplayName: recipient.DisplayName,
		},
		Campaign: CampaignContext{
			Name:     campaign.Name,
			FromName: campaign.FromName,
		},
		Custom: recipient.CustomData,
	}
	if recipient.FirstName != nil {
		rc.Contact.FirstName = *recipient.FirstName
	}
	if recipient.LastName != nil {
		rc.Contact.LastName = *recipient.LastName
	}
	return rc
}
