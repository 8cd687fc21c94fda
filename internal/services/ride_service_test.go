package services

import (
	"context"
	"testing"

	"poolride/internal/models"
	"poolride/internal/utils"
	"poolride/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideFixture struct {
	rideRepo    *mockRideRepo
	bookingRepo *mockBookingRepo
	gateway     *mockGateway
	service     RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rideRepo:    newMockRideRepo(),
		bookingRepo: newMockBookingRepo(),
		gateway:     newMockGateway(),
	}
	f.service = NewRideService(f.rideRepo, f.bookingRepo, f.gateway, nil, testLogger())
	return f
}

func TestCancelRide(t *testing.T) {
	setup := func(paymentStatus models.BookingPaymentStatus) (*rideFixture, *models.Ride, *models.Booking) {
		f := newRideFixture()
		ride := f.rideRepo.add(&models.Ride{
			DriverID:       primitive.NewObjectID(),
			Status:         models.RideStatusScheduled,
			SeatsTotal:     4,
			SeatsAvailable: 2,
			PricePerSeat:   25,
		})
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "requires_capture", Amount: 50})
		booking := f.bookingRepo.add(&models.Booking{
			RideID:          ride.ID,
			RiderID:         primitive.NewObjectID(),
			NumberOfSeats:   2,
			Status:          models.BookingStatusConfirmed,
			PaymentIntentID: "pi_1",
			PaymentStatus:   paymentStatus,
		})
		return f, ride, booking
	}

	t.Run("voids the riders' authorized holds", func(t *testing.T) {
		f, ride, booking := setup(models.BookingPaymentAuthorized)

		cancelled, err := f.service.CancelRide(context.Background(), ride.DriverID, ride.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cancelled.Status != models.RideStatusCancelled {
			t.Errorf("ride status = %s, want cancelled", cancelled.Status)
		}
		if len(f.gateway.cancelCalls) != 1 {
			t.Fatalf("authorization voided %d times, want 1", len(f.gateway.cancelCalls))
		}
		updates := f.bookingRepo.updates[booking.ID]
		if updates["status"] != models.BookingStatusCancelled {
			t.Errorf("booking status = %v, want cancelled", updates["status"])
		}
		if updates["payment_status"] != models.BookingPaymentFailed {
			t.Errorf("booking payment_status = %v, want failed", updates["payment_status"])
		}
	})

	t.Run("leaves captured payments for an explicit refund", func(t *testing.T) {
		f, ride, booking := setup(models.BookingPaymentCaptured)

		if _, err := f.service.CancelRide(context.Background(), ride.DriverID, ride.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.gateway.cancelCalls) != 0 {
			t.Errorf("captured intent was voided")
		}
		updates := f.bookingRepo.updates[booking.ID]
		if updates["status"] != models.BookingStatusCancelled {
			t.Errorf("booking status = %v, want cancelled", updates["status"])
		}
		if _, touched := updates["payment_status"]; touched {
			t.Errorf("captured payment_status changed on ride cancel")
		}
	})

	t.Run("rejects a cancel by a different driver", func(t *testing.T) {
		f, ride, _ := setup(models.BookingPaymentAuthorized)

		_, err := f.service.CancelRide(context.Background(), primitive.NewObjectID(), ride.ID)
		if err == nil {
			t.Fatal("expected forbidden error")
		}
		if err.Error() != utils.ErrForbidden {
			t.Errorf("error = %q, want %q", err.Error(), utils.ErrForbidden)
		}
	})
}

func TestCompleteRide(t *testing.T) {
	f := newRideFixture()
	ride := f.rideRepo.add(&models.Ride{
		DriverID: primitive.NewObjectID(),
		Status:   models.RideStatusInProgress,
	})
	booking := f.bookingRepo.add(&models.Booking{
		RideID:  ride.ID,
		RiderID: primitive.NewObjectID(),
		Status:  models.BookingStatusConfirmed,
	})

	completed, err := f.service.CompleteRide(context.Background(), ride.DriverID, ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completed.Status != models.RideStatusCompleted {
		t.Errorf("ride status = %s, want completed", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Errorf("completed_at not stamped")
	}
	if f.bookingRepo.updates[booking.ID]["status"] != models.BookingStatusCompleted {
		t.Errorf("confirmed booking not completed with the ride")
	}
}
