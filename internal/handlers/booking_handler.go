package handlers

import (
	"net/http"

	"poolride/internal/services"
	"poolride/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateBooking reserves seats on a ride and authorizes payment
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	riderID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.CreateBookingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), riderID, &request)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "BOOKING_FAILED", err.Error())
		return
	}

	utils.CreatedResponse(c, "Booking created successfully", booking)
}

// GetBooking returns one booking by id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		utils.NotFoundResponse(c, "Booking")
		return
	}

	utils.SuccessResponse(c, "Booking retrieved", booking)
}

// GetMyBookings lists the authenticated rider's bookings
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	riderID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	bookings, total, err := h.bookingService.GetRiderBookings(c.Request.Context(), riderID, params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved", bookings, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// CancelBooking voids the booking and releases its seats
func (h *BookingHandler) CancelBooking(c *gin.Context) {
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

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), riderID, bookingID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "CANCELLATION_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Booking cancelled", booking)
}
