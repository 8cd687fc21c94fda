package handlers

import (
	"context"
	"net/http"

	"poolride/internal/models"
	"poolride/internal/services"
	"poolride/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideHandler struct {
	rideService     services.RideService
	locationService services.LocationService
}

func NewRideHandler(rideService services.RideService, locationService services.LocationService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		locationService: locationService,
	}
}

// CreateRide publishes a new ride offer
func (h *RideHandler) CreateRide(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.CreateRideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), driverID, &request)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "RIDE_CREATION_FAILED", err.Error())
		return
	}

	utils.CreatedResponse(c, "Ride created successfully", ride)
}

// ListUpcomingRides lists bookable rides
func (h *RideHandler) ListUpcomingRides(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	rides, total, err := h.rideService.GetUpcomingRides(c.Request.Context(), params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved", rides, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// GetRide returns one ride by id
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ride ID")
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.NotFoundResponse(c, "Ride")
		return
	}

	utils.SuccessResponse(c, "Ride retrieved", ride)
}

// GetMyRides lists the authenticated driver's rides
func (h *RideHandler) GetMyRides(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.GetDriverRides(c.Request.Context(), driverID, params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved", rides, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// StartRide transitions the ride to in-progress
func (h *RideHandler) StartRide(c *gin.Context) {
	h.transitionRide(c, h.rideService.StartRide, "Ride started")
}

// CompleteRide ends the ride, making it earnable
func (h *RideHandler) CompleteRide(c *gin.Context) {
	h.transitionRide(c, h.rideService.CompleteRide, "Ride completed")
}

// CancelRide cancels the ride and its bookings
func (h *RideHandler) CancelRide(c *gin.Context) {
	h.transitionRide(c, h.rideService.CancelRide, "Ride cancelled")
}

// GetDriverLocation returns the driver's last reported position
func (h *RideHandler) GetDriverLocation(c *gin.Context) {
	driverID, err := primitive.ObjectIDFromHex(c.Param("driver_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid driver ID")
		return
	}

	location, err := h.locationService.GetDriverLocation(c.Request.Context(), driverID)
	if err != nil {
		utils.NotFoundResponse(c, "Driver location")
		return
	}

	utils.SuccessResponse(c, "Location retrieved", location)
}

func (h *RideHandler) transitionRide(
	c *gin.Context,
	transition func(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error),
	message string,
) {
	driverID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	rideID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ride ID")
		return
	}

	ride, err := transition(c.Request.Context(), driverID, rideID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "RIDE_TRANSITION_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, message, ride)
}
