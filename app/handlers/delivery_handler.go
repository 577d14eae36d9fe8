package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// DeliveryHandlerInterface defines the contract for delivery handlers
type DeliveryHandlerInterface interface {
	ScheduleCampaign(c fiber.Ctx) error
	DispatchSend(c fiber.Ctx) error
}

// DeliveryHandler handles scheduling and dispatch HTTP requests
type DeliveryHandler struct {
	scheduleFlow businessflow.ScheduleFlow
	dispatchFlow businessflow.DispatchFlow
	validator    *validator.Validate
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(scheduleFlow businessflow.ScheduleFlow, dispatchFlow businessflow.DispatchFlow) *DeliveryHandler {
	return &DeliveryHandler{
		scheduleFlow: scheduleFlow,
		dispatchFlow: dispatchFlow,
		validator:    validator.New(),
	}
}

func (h *DeliveryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DeliveryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ScheduleCampaign handles the campaign scheduling process
// @Summary Schedule Campaign
// @Description Materialize send records for a campaign and its recipient list
// @Tags Delivery
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.ScheduleCampaignRequest true "Recipients and schedule time"
// @Success 201 {object} dto.APIResponse{data=dto.ScheduleCampaignResponse} "Campaign scheduled successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/schedule [post]
func (h *DeliveryHandler) ScheduleCampaign(c fiber.Ctx) error {
	var req dto.ScheduleCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	req.CampaignUUID = c.Params("uuid")

	result, err := h.scheduleFlow.ScheduleCampaign(h.createRequestContext(c, "/api/v1/campaigns/schedule"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.ErrorKindOf(err) == businessflow.KindValidation {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign scheduling rejected", "SCHEDULING_VALIDATION_FAILED", err.Error())
		}

		log.Println("Campaign scheduling failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign scheduling failed", "CAMPAIGN_SCHEDULING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign scheduled successfully", result)
}

// DispatchSend handles dispatching one send immediately
// @Summary Dispatch Send
// @Description Dispatch one send record through its campaign's email provider
// @Tags Delivery
// @Accept json
// @Produce json
// @Param uuid path string true "Send UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DispatchSendResponse} "Dispatch outcome recorded"
// @Failure 400 {object} dto.APIResponse "Validation error or claim lost"
// @Failure 404 {object} dto.APIResponse "Send not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/sends/{uuid}/dispatch [post]
func (h *DeliveryHandler) DispatchSend(c fiber.Ctx) error {
	req := dto.DispatchSendRequest{
		SendUUID: c.Params("uuid"),
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.dispatchFlow.SendNow(h.createRequestContext(c, "/api/v1/sends/dispatch"), &req, metadata)
	if err != nil {
		if businessflow.IsSendNotFound(err) || businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Send not found", "SEND_NOT_FOUND", nil)
		}
		if businessflow.IsDispatchClaimLost(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Send is already being dispatched", "DISPATCH_CLAIM_LOST", nil)
		}
		if businessflow.ErrorKindOf(err) == businessflow.KindValidation {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Dispatch rejected", "DISPATCH_VALIDATION_FAILED", err.Error())
		}

		log.Println("Send dispatch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Send dispatch failed", "SEND_DISPATCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dispatch completed", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *DeliveryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}
