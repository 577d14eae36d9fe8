// Package businessflow contains the core business logic and use cases for campaign analytics workflows
package businessflow

import (
	"context"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// StatsFlow handles the campaign analytics business logic
type StatsFlow interface {
	GetCampaignStats(ctx context.Context, req *dto.GetCampaignStatsRequest, metadata *ClientMetadata) (*dto.GetCampaignStatsResponse, error)
}

// StatsFlowImpl implements the campaign analytics business flow
type StatsFlowImpl struct {
	campaignRepo repository.CampaignRepository
	sendRepo     repository.CampaignSendRepository
	eventRepo    repository.EmailEventRepository
}

// NewStatsFlow creates a new stats flow instance
func NewStatsFlow(
	campaignRepo repository.CampaignRepository,
	sendRepo repository.CampaignSendRepository,
	eventRepo repository.EmailEventRepository,
) StatsFlow {
	return &StatsFlowImpl{
		campaignRepo: campaignRepo,
		sendRepo:     sendRepo,
		eventRepo:    eventRepo,
	}
}

// GetCampaignStats aggregates events per campaign and per A/B variant into
// rate metrics. Read-only; duplicate events inflate raw counts but unique
// metrics count distinct sends, so webhook replays stay harmless.
func (s *StatsFlowImpl) GetCampaignStats(ctx context.Context, req *dto.GetCampaignStatsRequest, metadata *ClientMetadata) (*dto.GetCampaignStatsResponse, error) {
	if req.CampaignUUID == "" {
		return nil, NewValidationError("CAMPAIGN_UUID_REQUIRED", "Campaign UUID is required", ErrCampaignUUIDRequired)
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", KindInternal, err)
	}
	if campaign == nil {
		return nil, NewNotFoundError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	totalSent, err := s.sendRepo.Count(ctx, models.CampaignSendFilter{CampaignID: &campaign.ID})
	if err != nil {
		return nil, NewBusinessError("SEND_COUNT_FAILED", "Failed to count sends", KindInternal, err)
	}

	aggregates, err := s.eventRepo.AggregateByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("EVENT_AGGREGATION_FAILED", "Failed to aggregate events", KindInternal, err)
	}

	resp := &dto.GetCampaignStatsResponse{
		CampaignUUID: campaign.UUID.String(),
		CampaignName: campaign.Name,
		IsABTest:     campaign.IsABTest,
		Metrics:      buildMetrics(totalSent, aggregates),
	}

	if campaign.IsABTest {
		variants, err := s.variantBreakdown(ctx, campaign)
		if err != nil {
			return nil, err
		}
		resp.Variants = variants
	}

	return resp, nil
}

// variantBreakdown computes the same metrics grouped by send variant,
// restricted to sends that carry one.
func (s *StatsFlowImpl) variantBreakdown(ctx context.Context, campaign *models.Campaign) ([]dto.VariantStats, error) {
	aggregates, err := s.eventRepo.AggregateByCampaignVariant(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("EVENT_AGGREGATION_FAILED", "Failed to aggregate variant events", KindInternal, err)
	}

	byVariant := make(map[models.Variant][]repository.EventAggregate)
	for _, agg := range aggregates {
		if agg.Variant == nil {
			continue
		}
		byVariant[*agg.Variant] = append(byVariant[*agg.Variant], agg)
	}

	variants := make([]dto.VariantStats, 0, 2)
	for _, variant := range []models.Variant{models.VariantA, models.VariantB} {
		sent, err := s.sendRepo.Count(ctx, models.CampaignSendFilter{
			CampaignID: &campaign.ID,
			Variant:    utils.ToPtr(variant),
		})
		if err != nil {
			return nil, NewBusinessError("SEND_COUNT_FAILED", "Failed to count variant sends", KindInternal, err)
		}
		if sent == 0 && len(byVariant[variant]) == 0 {
			continue
		}

		variants = append(variants, dto.VariantStats{
			Variant: variant.String(),
			Metrics: buildMetrics(sent, byVariant[variant]),
		})
	}

	return variants, nil
}

// buildMetrics folds grouped event counts into the metrics DTO. Rates are
// unique counts over total sends, as percentages; zero sends means zero rates.
func buildMetrics(totalSent int64, aggregates []repository.EventAggregate) dto.CampaignStatsMetrics {
	m := dto.CampaignStatsMetrics{TotalSent: totalSent}

	var uniqueDelivered, uniqueBounces, uniqueUnsubs int64
	for _, agg := range aggregates {
		switch agg.Type {
		case models.EventTypeDelivered:
			m.Delivered = agg.Total
			uniqueDelivered = agg.UniqueSends
		case models.EventTypeOpened:
			m.Opens = agg.Total
			m.UniqueOpens = agg.UniqueSends
		case models.EventTypeClicked:
			m.Clicks = agg.Total
			m.UniqueClicks = agg.UniqueSends
		case models.EventTypeBounced:
			m.Bounces = agg.Total
			uniqueBounces = agg.UniqueSends
		case models.EventTypeUnsubscribed:
			m.Unsubscribes = agg.Total
			uniqueUnsubs = agg.UniqueSends
		case models.EventTypeComplained:
			m.Complaints = agg.Total
		}
	}

	if totalSent > 0 {
		m.DeliveryRate = rate(uniqueDelivered, totalSent)
		m.OpenRate = rate(m.UniqueOpens, totalSent)
		m.ClickRate = rate(m.UniqueClicks, totalSent)
		m.BounceRate = rate(uniqueBounces, totalSent)
		m.UnsubscribeRate = rate(uniqueUnsubs, totalSent)
	}

	return m
}

func rate(count, total int64) float64 {
	return float64(count) / float64(total) * 100
}
