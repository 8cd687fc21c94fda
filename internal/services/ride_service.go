package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"
	"poolride/pkg/logger"
	"poolride/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideNotifier pushes live ride updates to connected clients. Nil-safe at the
// call sites so the service works without a socket layer (CLI runs, tests).
type RideNotifier interface {
	SendRideUpdate(rideID primitive.ObjectID, updateType string, data map[string]interface{})
	SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{})
}

type RideService interface {
	CreateRide(ctx context.Context, driverID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	GetUpcomingRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetDriverRides(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)

	StartRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	CompleteRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	CancelRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
}

type CreateRideRequest struct {
	Origin        models.Location `json:"origin" validate:"required"`
	Destination   models.Location `json:"destination" validate:"required"`
	DepartureTime time.Time       `json:"departure_time" validate:"required"`
	SeatsTotal    int             `json:"seats_total" validate:"required,min=1"`
	PricePerSeat  float64         `json:"price_per_seat" validate:"required,min=0"`
	DistanceKm    float64         `json:"distance_km"`
}

type rideService struct {
	rideRepo    interfaces.RideRepository
	bookingRepo interfaces.BookingRepository
	gateway     payment.Gateway
	notifier    RideNotifier
	logger      *logger.Logger
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	gateway payment.Gateway,
	notifier RideNotifier,
	log *logger.Logger,
) RideService {
	return &rideService{
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		notifier:    notifier,
		logger:      log,
	}
}

func (s *rideService) CreateRide(ctx context.Context, driverID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error) {
	if request.SeatsTotal < 1 || request.SeatsTotal > utils.MaxSeatsPerRide {
		return nil, fmt.Errorf("seats must be between 1 and %d", utils.MaxSeatsPerRide)
	}
	if request.DepartureTime.Before(time.Now()) {
		return nil, fmt.Errorf("departure time must be in the future")
	}

	ride := &models.Ride{
		DriverID:       driverID,
		Origin:         request.Origin,
		Destination:    request.Destination,
		DepartureTime:  request.DepartureTime,
		SeatsTotal:     request.SeatsTotal,
		SeatsAvailable: request.SeatsTotal,
		PricePerSeat:   request.PricePerSeat,
		Currency:       utils.DefaultCurrency,
		DistanceKm:     request.DistanceKm,
		Status:         models.RideStatusScheduled,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.WithRideID(ride.ID).WithDriverID(driverID).Info("Ride created")
	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetByID(ctx, id)
}

func (s *rideService) GetUpcomingRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetUpcoming(ctx, params)
}

func (s *rideService) GetDriverRides(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetByDriverID(ctx, driverID, params)
}

func (s *rideService) StartRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.ownedRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != models.RideStatusScheduled {
		return nil, fmt.Errorf("ride cannot start from status %s", ride.Status)
	}

	now := time.Now()
	if err := s.rideRepo.Update(ctx, rideID, map[string]interface{}{
		"status":     models.RideStatusInProgress,
		"started_at": now,
	}); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusInProgress
	ride.StartedAt = &now

	s.notifyRide(ride, "ride_started")
	return ride, nil
}

// CompleteRide ends the trip and marks its active bookings completed, making
// the ride eligible for the driver's next earnings window.
func (s *rideService) CompleteRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.ownedRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != models.RideStatusInProgress {
		return nil, fmt.Errorf("ride cannot complete from status %s", ride.Status)
	}

	now := time.Now()
	if err := s.rideRepo.Update(ctx, rideID, map[string]interface{}{
		"status":       models.RideStatusCompleted,
		"completed_at": now,
	}); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusCompleted
	ride.CompletedAt = &now

	bookings, err := s.bookingRepo.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		if booking.Status != models.BookingStatusConfirmed {
			continue
		}
		if err := s.bookingRepo.Update(ctx, booking.ID, map[string]interface{}{
			"status": models.BookingStatusCompleted,
		}); err != nil {
			s.logger.WithBookingID(booking.ID).WithError(err).Error("Failed to complete booking")
		}
	}

	s.logger.WithRideID(rideID).WithDriverID(driverID).Info("Ride completed")
	s.notifyRide(ride, "ride_completed")
	return ride, nil
}

func (s *rideService) CancelRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.ownedRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}

	if ride.Status == models.RideStatusCompleted || ride.Status == models.RideStatusCancelled {
		return nil, fmt.Errorf("ride cannot cancel from status %s", ride.Status)
	}

	now := time.Now()
	if err := s.rideRepo.Update(ctx, rideID, map[string]interface{}{
		"status":       models.RideStatusCancelled,
		"cancelled_at": now,
	}); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusCancelled
	ride.CancelledAt = &now

	bookings, err := s.bookingRepo.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		if booking.Status == models.BookingStatusCancelled {
			continue
		}

		updates := map[string]interface{}{
			"status": models.BookingStatusCancelled,
		}

		// Void the rider's card hold so local and processor state stay in
		// step. Captured bookings keep their payment state; those need an
		// explicit refund.
		if booking.PaymentIntentID != "" && booking.PaymentStatus == models.BookingPaymentAuthorized {
			if _, err := s.gateway.CancelPaymentIntent(ctx, booking.PaymentIntentID); err != nil {
				s.logger.WithBookingID(booking.ID).WithError(err).Error("Failed to void payment authorization")
			} else {
				updates["payment_status"] = models.BookingPaymentFailed
			}
		}

		if err := s.bookingRepo.Update(ctx, booking.ID, updates); err != nil {
			s.logger.WithBookingID(booking.ID).WithError(err).Error("Failed to cancel booking")
		}
		if s.notifier != nil {
			s.notifier.SendUserNotification(booking.RiderID, "ride_cancelled", map[string]interface{}{
				"ride_id":    rideID.Hex(),
				"booking_id": booking.ID.Hex(),
			})
		}
	}

	s.notifyRide(ride, "ride_cancelled")
	return ride, nil
}

func (s *rideService) ownedRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, errors.New(utils.ErrForbidden)
	}
	return ride, nil
}

func (s *rideService) notifyRide(ride *models.Ride, updateType string) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendRideUpdate(ride.ID, updateType, map[string]interface{}{
		"ride_id": ride.ID.Hex(),
		"status":  string(ride.Status),
	})
}
