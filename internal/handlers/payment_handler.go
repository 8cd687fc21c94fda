package handlers

import (
	"net/http"

	"poolride/internal/services"
	"poolride/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CapturePayment settles an authorized payment intent
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var request struct {
		PaymentIntentID string  `json:"payment_intent_id" binding:"required"`
		Amount          float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	intent, err := h.paymentService.CapturePayment(c.Request.Context(), request.PaymentIntentID, request.Amount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "CAPTURE_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Payment captured", intent)
}

// RefundPayment refunds all or part of a captured payment
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var request services.RefundPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.paymentService.RefundPayment(c.Request.Context(), &request)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "REFUND_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Refund created", response)
}

// CancelPayment voids an uncaptured payment intent
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	var request struct {
		PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.paymentService.CancelPayment(c.Request.Context(), request.PaymentIntentID); err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "CANCEL_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Payment cancelled", nil)
}

// RetryPayment creates a fresh payment intent for a failed booking payment
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	riderID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request struct {
		PaymentMethodID string `json:"payment_method_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	booking, err := h.paymentService.RetryPayment(c.Request.Context(), &services.RetryPaymentRequest{
		BookingID:       bookingID,
		PaymentMethodID: request.PaymentMethodID,
		RiderID:         riderID,
	})
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "RETRY_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Payment retried", booking)
}
