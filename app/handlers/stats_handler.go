package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/gofiber/fiber/v3"
)

// StatsHandlerInterface defines the contract for stats handlers
type StatsHandlerInterface interface {
	GetCampaignStats(c fiber.Ctx) error
}

// StatsHandler handles campaign analytics HTTP requests
type StatsHandler struct {
	statsFlow businessflow.StatsFlow
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsFlow businessflow.StatsFlow) *StatsHandler {
	return &StatsHandler{
		statsFlow: statsFlow,
	}
}

func (h *StatsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *StatsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetCampaignStats handles campaign statistics retrieval
// @Summary Get Campaign Stats
// @Description Aggregate delivery and engagement statistics for a campaign, with A/B variant breakdown
// @Tags Analytics
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetCampaignStatsResponse} "Statistics computed"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/stats [get]
func (h *StatsHandler) GetCampaignStats(c fiber.Ctx) error {
	req := dto.GetCampaignStatsRequest{
		CampaignUUID: c.Params("uuid"),
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.statsFlow.GetCampaignStats(h.createRequestContext(c), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.ErrorKindOf(err) == businessflow.KindValidation {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid stats request", "STATS_VALIDATION_FAILED", err.Error())
		}

		log.Println("Campaign stats retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign stats retrieval failed", "CAMPAIGN_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign stats computed", result)
}

// createRequestContext creates a context with a bounded timeout
func (h *StatsHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "cancel_func", cancel)
	return ctx
}
