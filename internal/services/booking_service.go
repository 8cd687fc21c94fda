package services

import (
	"context"
	"errors"
	"fmt"

	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"
	"poolride/pkg/logger"
	"poolride/pkg/payment"
	"poolride/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	CreateBooking(ctx context.Context, riderID primitive.ObjectID, request *CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetRiderBookings(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	CancelBooking(ctx context.Context, riderID, bookingID primitive.ObjectID) (*models.Booking, error)
}

type CreateBookingRequest struct {
	RideID          primitive.ObjectID `json:"ride_id" validate:"required"`
	NumberOfSeats   int                `json:"number_of_seats" validate:"required,min=1"`
	PaymentMethodID string             `json:"payment_method_id" validate:"required"`
}

type bookingService struct {
	bookingRepo interfaces.BookingRepository
	rideRepo    interfaces.RideRepository
	userRepo    interfaces.UserRepository
	gateway     payment.Gateway
	pusher      push.Provider
	currency    string
	logger      *logger.Logger
}

func NewBookingService(
	bookingRepo interfaces.BookingRepository,
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	gateway payment.Gateway,
	pusher push.Provider,
	currency string,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		pusher:      pusher,
		currency:    currency,
		logger:      log,
	}
}

// CreateBooking reserves seats and authorizes the rider's payment. The ride's
// current price is locked onto the booking so later price edits never change
// what this rider owes or what the driver earns from it. The payment intent is
// created in manual-capture mode; money settles at capture, not here.
func (s *bookingService) CreateBooking(ctx context.Context, riderID primitive.ObjectID, request *CreateBookingRequest) (*models.Booking, error) {
	if request.NumberOfSeats < 1 || request.NumberOfSeats > utils.MaxSeatsPerBooking {
		return nil, fmt.Errorf("seats must be between 1 and %d", utils.MaxSeatsPerBooking)
	}

	ride, err := s.rideRepo.GetByID(ctx, request.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusScheduled {
		return nil, fmt.Errorf("ride is not open for booking")
	}
	if ride.DriverID == riderID {
		return nil, fmt.Errorf("driver cannot book their own ride")
	}

	rider, err := s.userRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	// Reserve seats first; the atomic decrement is what prevents overbooking
	// under concurrent requests.
	if err := s.rideRepo.DecrementSeats(ctx, ride.ID, request.NumberOfSeats); err != nil {
		return nil, err
	}

	lockedPrice := ride.PricePerSeat
	amount := utils.RoundCurrency(float64(request.NumberOfSeats) * lockedPrice)

	customerID := rider.StripeCustomerID
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, &payment.CustomerRequest{
			Email:    rider.Email,
			Name:     rider.FirstName + " " + rider.LastName,
			Metadata: map[string]string{"user_id": rider.ID.Hex()},
		})
		if err != nil {
			s.rideRepo.IncrementSeats(ctx, ride.ID, request.NumberOfSeats)
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		s.userRepo.Update(ctx, rider.ID, map[string]interface{}{"stripe_customer_id": customerID})
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, &payment.PaymentIntentRequest{
		Amount:          amount,
		Currency:        s.currency,
		CustomerID:      customerID,
		PaymentMethodID: request.PaymentMethodID,
		Description:     fmt.Sprintf("Booking for ride %s", ride.ID.Hex()),
		ManualCapture:   true,
		Confirm:         true,
		Metadata:        map[string]string{"ride_id": ride.ID.Hex()},
	})
	if err != nil {
		s.rideRepo.IncrementSeats(ctx, ride.ID, request.NumberOfSeats)
		return nil, fmt.Errorf("failed to authorize payment: %w", err)
	}

	booking := &models.Booking{
		RideID:          ride.ID,
		RiderID:         riderID,
		NumberOfSeats:   request.NumberOfSeats,
		PricePerSeat:    &lockedPrice,
		Status:          models.BookingStatusConfirmed,
		PaymentIntentID: intent.ID,
		PaymentStatus:   mapIntentStatus(intent.Status),
		PaidAmount:      amount,
		Currency:        s.currency,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.rideRepo.IncrementSeats(ctx, ride.ID, request.NumberOfSeats)
		return nil, err
	}

	s.logger.WithBookingID(booking.ID).WithRideID(ride.ID).Info("Booking created")
	s.notifyDriver(ctx, ride, booking)

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) GetRiderBookings(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return s.bookingRepo.GetByRiderID(ctx, riderID, params)
}

// CancelBooking releases the seats and voids the uncaptured authorization.
// Captured bookings must go through an explicit refund instead.
func (s *bookingService) CancelBooking(ctx context.Context, riderID, bookingID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RiderID != riderID {
		return nil, errors.New(utils.ErrForbidden)
	}
	if booking.Status == models.BookingStatusCancelled {
		return booking, nil
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusScheduled {
		return nil, fmt.Errorf("booking cannot be cancelled after the ride started")
	}

	if booking.PaymentStatus == models.BookingPaymentCaptured {
		return nil, fmt.Errorf("captured booking must be refunded, not cancelled")
	}

	if booking.PaymentIntentID != "" && booking.PaymentStatus == models.BookingPaymentAuthorized {
		if _, err := s.gateway.CancelPaymentIntent(ctx, booking.PaymentIntentID); err != nil {
			return nil, fmt.Errorf("failed to void payment authorization: %w", err)
		}
	}

	updates := map[string]interface{}{
		"status":         models.BookingStatusCancelled,
		"payment_status": models.BookingPaymentFailed,
	}
	if err := s.bookingRepo.Update(ctx, booking.ID, updates); err != nil {
		return nil, err
	}

	if err := s.rideRepo.IncrementSeats(ctx, booking.RideID, booking.Seats()); err != nil {
		s.logger.WithBookingID(booking.ID).WithError(err).Error("Failed to release seats")
	}

	booking.Status = models.BookingStatusCancelled
	booking.PaymentStatus = models.BookingPaymentFailed
	return booking, nil
}

func (s *bookingService) notifyDriver(ctx context.Context, ride *models.Ride, booking *models.Booking) {
	if s.pusher == nil {
		return
	}

	driver, err := s.userRepo.GetByID(ctx, ride.DriverID)
	if err != nil || driver.DeviceToken == "" {
		return
	}

	_, err = s.pusher.SendNotification(ctx, &push.NotificationRequest{
		Token: driver.DeviceToken,
		Title: "New booking",
		Body:  fmt.Sprintf("%d seat(s) booked on your ride", booking.Seats()),
		Data: map[string]string{
			"ride_id":    ride.ID.Hex(),
			"booking_id": booking.ID.Hex(),
		},
	})
	if err != nil {
		s.logger.WithBookingID(booking.ID).WithError(err).Warn("Failed to push booking notification")
	}
}
