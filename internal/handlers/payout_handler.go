package handlers

import (
	"io"
	"net/http"
	"time"

	"poolride/internal/services"
	"poolride/internal/utils"
	"poolride/pkg/payment"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	payoutService services.PayoutService
	gateway       payment.Gateway
	windowDays    int
}

func NewPayoutHandler(payoutService services.PayoutService, gateway payment.Gateway, windowDays int) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		gateway:       gateway,
		windowDays:    windowDays,
	}
}

// GetMyEarnings itemizes the authenticated driver's earnings for the trailing
// window (or an explicit ?start=/&end= RFC3339 range)
func (h *PayoutHandler) GetMyEarnings(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -h.windowDays)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid start time, expected RFC3339")
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid end time, expected RFC3339")
			return
		}
		end = parsed
	}

	earnings, err := h.payoutService.GetDriverEarnings(c.Request.Context(), driverID, start, end)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Earnings retrieved", earnings)
}

// GetMyPayouts lists the authenticated driver's payout history
func (h *PayoutHandler) GetMyPayouts(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	payouts, total, err := h.payoutService.GetDriverPayouts(c.Request.Context(), driverID, params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Payouts retrieved", payouts, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// RunPayouts triggers a full weekly payout run immediately
func (h *PayoutHandler) RunPayouts(c *gin.Context) {
	report, err := h.payoutService.RunWeeklyPayouts(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYOUT_RUN_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Payout run finished", report)
}

// StripeWebhook receives processor events and mirrors payout transitions onto
// local records. Signature verification rejects forged payloads.
func (h *PayoutHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read payload")
		return
	}

	event, err := h.gateway.ValidateWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_SIGNATURE", err.Error())
		return
	}

	if err := h.payoutService.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "WEBHOOK_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
