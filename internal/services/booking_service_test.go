package services

import (
	"context"
	"testing"

	"poolride/internal/models"
	"poolride/pkg/payment"
)

type bookingFixture struct {
	bookingRepo *mockBookingRepo
	rideRepo    *mockRideRepo
	userRepo    *mockUserRepo
	gateway     *mockGateway
	service     BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookingRepo: newMockBookingRepo(),
		rideRepo:    newMockRideRepo(),
		userRepo:    newMockUserRepo(),
		gateway:     newMockGateway(),
	}
	f.service = NewBookingService(f.bookingRepo, f.rideRepo, f.userRepo, f.gateway, nil, "usd", testLogger())
	return f
}

func TestCreateBooking(t *testing.T) {
	setup := func() (*bookingFixture, *models.Ride, *models.User) {
		f := newBookingFixture()
		driver := f.userRepo.add(&models.User{UserType: models.UserTypeDriver})
		rider := f.userRepo.add(&models.User{
			Email:            "rider@example.com",
			UserType:         models.UserTypeRider,
			StripeCustomerID: "cus_1",
		})
		ride := f.rideRepo.add(&models.Ride{
			DriverID:       driver.ID,
			Status:         models.RideStatusScheduled,
			SeatsTotal:     4,
			SeatsAvailable: 4,
			PricePerSeat:   25,
		})
		return f, ride, rider
	}

	t.Run("locks the ride price onto the booking", func(t *testing.T) {
		f, ride, rider := setup()

		booking, err := f.service.CreateBooking(context.Background(), rider.ID, &CreateBookingRequest{
			RideID:          ride.ID,
			NumberOfSeats:   2,
			PaymentMethodID: "pm_1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if booking.PricePerSeat == nil || *booking.PricePerSeat != 25 {
			t.Fatalf("locked price = %v, want 25", booking.PricePerSeat)
		}
		if !almostEqual(booking.PaidAmount, 50) {
			t.Errorf("paid amount = %v, want 50", booking.PaidAmount)
		}

		// later price edits must not affect the locked booking
		ride.PricePerSeat = 40
		if *booking.PricePerSeat != 25 {
			t.Errorf("locked price changed with the ride price")
		}
	})

	t.Run("reserves seats on the ride", func(t *testing.T) {
		f, ride, rider := setup()

		if _, err := f.service.CreateBooking(context.Background(), rider.ID, &CreateBookingRequest{
			RideID:          ride.ID,
			NumberOfSeats:   3,
			PaymentMethodID: "pm_1",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ride.SeatsAvailable != 1 {
			t.Errorf("seats available = %d, want 1", ride.SeatsAvailable)
		}
	})

	t.Run("rejects overbooking", func(t *testing.T) {
		f, ride, rider := setup()
		ride.SeatsAvailable = 1

		if _, err := f.service.CreateBooking(context.Background(), rider.ID, &CreateBookingRequest{
			RideID:          ride.ID,
			NumberOfSeats:   2,
			PaymentMethodID: "pm_1",
		}); err == nil {
			t.Fatal("expected error when not enough seats remain")
		}
	})

	t.Run("rejects the driver booking their own ride", func(t *testing.T) {
		f, ride, _ := setup()

		if _, err := f.service.CreateBooking(context.Background(), ride.DriverID, &CreateBookingRequest{
			RideID:          ride.ID,
			NumberOfSeats:   1,
			PaymentMethodID: "pm_1",
		}); err == nil {
			t.Fatal("expected error for driver self-booking")
		}
	})
}

func TestCancelBooking(t *testing.T) {
	setup := func(paymentStatus models.BookingPaymentStatus) (*bookingFixture, *models.Booking, *models.Ride, *models.User) {
		f := newBookingFixture()
		rider := f.userRepo.add(&models.User{UserType: models.UserTypeRider})
		ride := f.rideRepo.add(&models.Ride{
			Status:         models.RideStatusScheduled,
			SeatsTotal:     4,
			SeatsAvailable: 2,
			PricePerSeat:   25,
		})
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "requires_capture", Amount: 50})
		booking := f.bookingRepo.add(&models.Booking{
			RideID:          ride.ID,
			RiderID:         rider.ID,
			NumberOfSeats:   2,
			Status:          models.BookingStatusConfirmed,
			PaymentIntentID: "pi_1",
			PaymentStatus:   paymentStatus,
		})
		return f, booking, ride, rider
	}

	t.Run("releases seats and voids the authorization", func(t *testing.T) {
		f, booking, ride, rider := setup(models.BookingPaymentAuthorized)

		cancelled, err := f.service.CancelBooking(context.Background(), rider.ID, booking.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cancelled.Status != models.BookingStatusCancelled {
			t.Errorf("status = %s, want cancelled", cancelled.Status)
		}
		if ride.SeatsAvailable != 4 {
			t.Errorf("seats available = %d, want 4", ride.SeatsAvailable)
		}
		if len(f.gateway.cancelCalls) != 1 {
			t.Errorf("authorization not voided")
		}
	})

	t.Run("rejects cancelling a captured booking", func(t *testing.T) {
		f, booking, _, rider := setup(models.BookingPaymentCaptured)

		if _, err := f.service.CancelBooking(context.Background(), rider.ID, booking.ID); err == nil {
			t.Fatal("expected error cancelling a captured booking")
		}
	})

	t.Run("rejects cancellation by a different rider", func(t *testing.T) {
		f, booking, _, _ := setup(models.BookingPaymentAuthorized)
		other := f.userRepo.add(&models.User{UserType: models.UserTypeRider})

		if _, err := f.service.CancelBooking(context.Background(), other.ID, booking.ID); err == nil {
			t.Fatal("expected forbidden error")
		}
	})
}
