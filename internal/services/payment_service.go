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

type PaymentService interface {
	// Lifecycle operations
	CapturePayment(ctx context.Context, paymentIntentID string, amount float64) (*payment.PaymentIntent, error)
	RefundPayment(ctx context.Context, request *RefundPaymentRequest) (*RefundPaymentResponse, error)
	CancelPayment(ctx context.Context, paymentIntentID string) error
	RetryPayment(ctx context.Context, request *RetryPaymentRequest) (*models.Booking, error)
}

type RefundPaymentRequest struct {
	PaymentIntentID string  `json:"payment_intent_id" validate:"required"`
	Amount          float64 `json:"amount"` // 0 means full refund
	Reason          string  `json:"reason"`
}

type RefundPaymentResponse struct {
	RefundID      string                      `json:"refund_id"`
	Amount        float64                     `json:"amount"`
	PaymentStatus models.BookingPaymentStatus `json:"payment_status"`
}

type RetryPaymentRequest struct {
	BookingID       primitive.ObjectID `json:"booking_id" validate:"required"`
	PaymentMethodID string             `json:"payment_method_id" validate:"required"`

	// RiderID, when set, restricts the retry to the booking's owner.
	RiderID primitive.ObjectID `json:"-"`
}

type paymentService struct {
	bookingRepo interfaces.BookingRepository
	rideRepo    interfaces.RideRepository
	userRepo    interfaces.UserRepository
	gateway     payment.Gateway
	currency    string
	logger      *logger.Logger
}

func NewPaymentService(
	bookingRepo interfaces.BookingRepository,
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	gateway payment.Gateway,
	currency string,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		currency:    currency,
		logger:      log,
	}
}

// CapturePayment settles an authorized payment intent. Capturing an already
// succeeded intent is a no-op so retried requests stay safe. Amount 0 captures
// the full authorized amount.
func (s *paymentService) CapturePayment(ctx context.Context, paymentIntentID string, amount float64) (*payment.PaymentIntent, error) {
	intent, err := s.gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if intent.Status == "succeeded" {
		return intent, nil
	}

	if intent.Status != "requires_capture" {
		return nil, fmt.Errorf("payment intent %s is not capturable in status %s", paymentIntentID, intent.Status)
	}

	captured, err := s.gateway.CapturePaymentIntent(ctx, paymentIntentID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to capture payment: %w", err)
	}

	if err := s.updateBookingPayment(ctx, paymentIntentID, map[string]interface{}{
		"payment_status": models.BookingPaymentCaptured,
		"paid_amount":    captured.AmountReceived,
		"currency":       captured.Currency,
	}); err != nil {
		return nil, err
	}

	s.logger.LogPaymentEvent(paymentIntentID, "captured", captured.AmountReceived, captured.Currency)
	return captured, nil
}

// RefundPayment refunds the charge behind a payment intent and classifies the
// booking as refunded or partially refunded depending on whether the refunded
// total reaches the charged amount.
func (s *paymentService) RefundPayment(ctx context.Context, request *RefundPaymentRequest) (*RefundPaymentResponse, error) {
	intent, err := s.gateway.GetPaymentIntent(ctx, request.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if intent.LatestChargeID == "" {
		return nil, fmt.Errorf("payment intent %s has no charge to refund", request.PaymentIntentID)
	}

	refund, err := s.gateway.CreateRefund(ctx, &payment.RefundRequest{
		ChargeID: intent.LatestChargeID,
		Amount:   request.Amount,
		Reason:   request.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	booking, err := s.bookingRepo.GetByPaymentIntentID(ctx, request.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	refundedTotal := booking.RefundAmount + refund.Amount
	status := models.BookingPaymentPartiallyRefunded
	if refundedTotal >= intent.AmountReceived {
		status = models.BookingPaymentRefunded
	}

	now := time.Now()
	if err := s.bookingRepo.Update(ctx, booking.ID, map[string]interface{}{
		"payment_status": status,
		"refund_amount":  refundedTotal,
		"refunded_at":    now,
	}); err != nil {
		return nil, fmt.Errorf("failed to update booking after refund: %w", err)
	}

	s.logger.LogPaymentEvent(request.PaymentIntentID, "refunded", refund.Amount, refund.Currency)

	return &RefundPaymentResponse{
		RefundID:      refund.RefundID,
		Amount:        refund.Amount,
		PaymentStatus: status,
	}, nil
}

// CancelPayment voids an uncaptured payment intent. Already-canceled intents
// are a no-op; captured intents cannot be un-captured and must be refunded
// instead.
func (s *paymentService) CancelPayment(ctx context.Context, paymentIntentID string) error {
	intent, err := s.gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("failed to get payment intent: %w", err)
	}

	if intent.Status == "canceled" {
		return nil
	}

	if intent.Status == "succeeded" {
		return fmt.Errorf("cannot cancel captured payment intent %s, refund it instead", paymentIntentID)
	}

	if _, err := s.gateway.CancelPaymentIntent(ctx, paymentIntentID); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	if err := s.updateBookingPayment(ctx, paymentIntentID, map[string]interface{}{
		"payment_status": models.BookingPaymentFailed,
	}); err != nil {
		return err
	}

	s.logger.LogPaymentEvent(paymentIntentID, "canceled", intent.Amount, intent.Currency)
	return nil
}

// RetryPayment creates a fresh manual-capture payment intent for a booking
// whose previous attempt failed, recomputing the charge from the booking's
// seats and locked-in price. The booking's payment fields are overwritten with
// the new intent.
func (s *paymentService) RetryPayment(ctx context.Context, request *RetryPaymentRequest) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		return nil, err
	}

	if !request.RiderID.IsZero() && booking.RiderID != request.RiderID {
		return nil, errors.New(utils.ErrForbidden)
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}

	rider, err := s.userRepo.GetByID(ctx, booking.RiderID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, rider)
	if err != nil {
		return nil, err
	}

	amount := utils.RoundCurrency(float64(booking.Seats()) * booking.EffectivePrice(ride.PricePerSeat))

	intent, err := s.gateway.CreatePaymentIntent(ctx, &payment.PaymentIntentRequest{
		Amount:          amount,
		Currency:        s.currency,
		CustomerID:      customerID,
		PaymentMethodID: request.PaymentMethodID,
		Description:     fmt.Sprintf("Retry payment for booking %s", booking.ID.Hex()),
		ManualCapture:   true,
		Confirm:         true,
		Metadata: map[string]string{
			"booking_id": booking.ID.Hex(),
			"retry_of":   booking.PaymentIntentID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create retry payment intent: %w", err)
	}

	status := mapIntentStatus(intent.Status)
	updates := map[string]interface{}{
		"payment_intent_id": intent.ID,
		"payment_status":    status,
		"paid_amount":       amount,
		"currency":          s.currency,
	}
	if err := s.bookingRepo.Update(ctx, booking.ID, updates); err != nil {
		return nil, fmt.Errorf("failed to update booking after retry: %w", err)
	}

	s.logger.LogPaymentEvent(intent.ID, "retry_created", amount, s.currency)

	booking.PaymentIntentID = intent.ID
	booking.PaymentStatus = status
	booking.PaidAmount = amount
	booking.Currency = s.currency
	return booking, nil
}

func (s *paymentService) updateBookingPayment(ctx context.Context, paymentIntentID string, updates map[string]interface{}) error {
	booking, err := s.bookingRepo.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}

	if err := s.bookingRepo.Update(ctx, booking.ID, updates); err != nil {
		return fmt.Errorf("failed to update booking payment state: %w", err)
	}

	return nil
}

func (s *paymentService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, &payment.CustomerRequest{
		Email:    user.Email,
		Name:     user.FirstName + " " + user.LastName,
		Metadata: map[string]string{"user_id": user.ID.Hex()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"stripe_customer_id": customerID,
	}); err != nil {
		return "", fmt.Errorf("failed to persist customer id: %w", err)
	}

	user.StripeCustomerID = customerID
	return customerID, nil
}

// mapIntentStatus maps the processor's payment-intent status onto the local
// booking payment enum.
func mapIntentStatus(status string) models.BookingPaymentStatus {
	switch status {
	case "succeeded":
		return models.BookingPaymentCaptured
	case "requires_capture":
		return models.BookingPaymentAuthorized
	case "canceled":
		return models.BookingPaymentFailed
	default:
		return models.BookingPaymentPending
	}
}
