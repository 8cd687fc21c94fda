package services

import (
	"context"
	"testing"

	"poolride/internal/models"
	"poolride/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentFixture struct {
	bookingRepo *mockBookingRepo
	rideRepo    *mockRideRepo
	userRepo    *mockUserRepo
	gateway     *mockGateway
	service     PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		bookingRepo: newMockBookingRepo(),
		rideRepo:    newMockRideRepo(),
		userRepo:    newMockUserRepo(),
		gateway:     newMockGateway(),
	}
	f.service = NewPaymentService(f.bookingRepo, f.rideRepo, f.userRepo, f.gateway, "usd", testLogger())
	return f
}

func TestCapturePayment(t *testing.T) {
	t.Run("captures an authorized intent and marks the booking", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "requires_capture", Amount: 50, Currency: "usd"})
		booking := f.bookingRepo.add(&models.Booking{PaymentIntentID: "pi_1", PaymentStatus: models.BookingPaymentAuthorized})

		intent, err := f.service.CapturePayment(context.Background(), "pi_1", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if intent.Status != "succeeded" {
			t.Errorf("intent status = %s, want succeeded", intent.Status)
		}

		updates := f.bookingRepo.updates[booking.ID]
		if updates["payment_status"] != models.BookingPaymentCaptured {
			t.Errorf("booking payment_status = %v, want captured", updates["payment_status"])
		}
	})

	t.Run("capture is idempotent on a succeeded intent", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "succeeded", Amount: 50, AmountReceived: 50})

		for i := 0; i < 2; i++ {
			if _, err := f.service.CapturePayment(context.Background(), "pi_1", 0); err != nil {
				t.Fatalf("capture attempt %d errored: %v", i+1, err)
			}
		}

		if len(f.gateway.captureCalls) != 0 {
			t.Errorf("capture called %d times on succeeded intent, want 0", len(f.gateway.captureCalls))
		}
	})

	t.Run("rejects non-capturable states", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "requires_payment_method"})

		if _, err := f.service.CapturePayment(context.Background(), "pi_1", 0); err == nil {
			t.Fatal("expected error for non-capturable intent")
		}
	})
}

func TestRefundPayment(t *testing.T) {
	setup := func() (*paymentFixture, *models.Booking) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{
			ID: "pi_1", Status: "succeeded",
			Amount: 50, AmountReceived: 50,
			LatestChargeID: "ch_1",
		})
		booking := f.bookingRepo.add(&models.Booking{
			PaymentIntentID: "pi_1",
			PaymentStatus:   models.BookingPaymentCaptured,
			PaidAmount:      50,
		})
		return f, booking
	}

	t.Run("full refund classifies as refunded", func(t *testing.T) {
		f, booking := setup()

		response, err := f.service.RefundPayment(context.Background(), &RefundPaymentRequest{
			PaymentIntentID: "pi_1",
			Amount:          50,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if response.PaymentStatus != models.BookingPaymentRefunded {
			t.Errorf("status = %s, want refunded", response.PaymentStatus)
		}
		updates := f.bookingRepo.updates[booking.ID]
		if updates["payment_status"] != models.BookingPaymentRefunded {
			t.Errorf("booking status = %v, want refunded", updates["payment_status"])
		}
	})

	t.Run("partial refund classifies as partially refunded", func(t *testing.T) {
		f, booking := setup()

		response, err := f.service.RefundPayment(context.Background(), &RefundPaymentRequest{
			PaymentIntentID: "pi_1",
			Amount:          20,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if response.PaymentStatus != models.BookingPaymentPartiallyRefunded {
			t.Errorf("status = %s, want partially_refunded", response.PaymentStatus)
		}
		updates := f.bookingRepo.updates[booking.ID]
		if !almostEqual(updates["refund_amount"].(float64), 20) {
			t.Errorf("refund_amount = %v, want 20", updates["refund_amount"])
		}
	})

	t.Run("omitted amount refunds the full charge", func(t *testing.T) {
		f, _ := setup()

		response, err := f.service.RefundPayment(context.Background(), &RefundPaymentRequest{
			PaymentIntentID: "pi_1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if response.PaymentStatus != models.BookingPaymentRefunded {
			t.Errorf("status = %s, want refunded", response.PaymentStatus)
		}
		if !almostEqual(response.Amount, 50) {
			t.Errorf("refunded amount = %v, want 50", response.Amount)
		}
	})

	t.Run("fails when the intent has no charge", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_2", Status: "requires_capture"})

		_, err := f.service.RefundPayment(context.Background(), &RefundPaymentRequest{PaymentIntentID: "pi_2"})
		if err == nil {
			t.Fatal("expected error refunding an uncharged intent")
		}
	})
}

func TestCancelPayment(t *testing.T) {
	t.Run("cancels an authorized intent and fails the booking", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "requires_capture"})
		booking := f.bookingRepo.add(&models.Booking{PaymentIntentID: "pi_1", PaymentStatus: models.BookingPaymentAuthorized})

		if err := f.service.CancelPayment(context.Background(), "pi_1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updates := f.bookingRepo.updates[booking.ID]
		if updates["payment_status"] != models.BookingPaymentFailed {
			t.Errorf("booking status = %v, want failed", updates["payment_status"])
		}
	})

	t.Run("cancel is a no-op on an already canceled intent", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "canceled"})

		if err := f.service.CancelPayment(context.Background(), "pi_1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.gateway.cancelCalls) != 0 {
			t.Errorf("cancel called on already-canceled intent")
		}
	})

	t.Run("rejects cancelling a captured payment", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.addIntent(&payment.PaymentIntent{ID: "pi_1", Status: "succeeded"})

		if err := f.service.CancelPayment(context.Background(), "pi_1"); err == nil {
			t.Fatal("expected error cancelling a captured payment")
		}
	})
}

func TestRetryPayment(t *testing.T) {
	setup := func(customerID string) (*paymentFixture, *models.Booking, *models.User) {
		f := newPaymentFixture()
		rider := f.userRepo.add(&models.User{
			Email:            "rider@example.com",
			FirstName:        "Dana",
			LastName:         "Lee",
			UserType:         models.UserTypeRider,
			StripeCustomerID: customerID,
		})
		ride := f.rideRepo.add(&models.Ride{
			DriverID:     primitive.NewObjectID(),
			PricePerSeat: 25,
			Status:       models.RideStatusScheduled,
		})
		booking := f.bookingRepo.add(&models.Booking{
			RideID:          ride.ID,
			RiderID:         rider.ID,
			NumberOfSeats:   2,
			PricePerSeat:    floatPtr(20),
			PaymentIntentID: "pi_old",
			PaymentStatus:   models.BookingPaymentFailed,
		})
		return f, booking, rider
	}

	t.Run("recomputes the amount from seats and locked-in price", func(t *testing.T) {
		f, booking, _ := setup("cus_existing")

		updated, err := f.service.RetryPayment(context.Background(), &RetryPaymentRequest{
			BookingID:       booking.ID,
			PaymentMethodID: "pm_1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 2 seats × locked-in 20, not the ride's current 25
		if !almostEqual(updated.PaidAmount, 40) {
			t.Errorf("amount = %v, want 40", updated.PaidAmount)
		}
		if updated.PaymentIntentID == "pi_old" {
			t.Errorf("payment intent id was not replaced")
		}
		if updated.PaymentStatus != models.BookingPaymentAuthorized {
			t.Errorf("status = %s, want authorized", updated.PaymentStatus)
		}
	})

	t.Run("creates and persists a customer when missing", func(t *testing.T) {
		f, booking, rider := setup("")

		if _, err := f.service.RetryPayment(context.Background(), &RetryPaymentRequest{
			BookingID:       booking.ID,
			PaymentMethodID: "pm_1",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.gateway.customerCalls) != 1 {
			t.Fatalf("customer created %d times, want 1", len(f.gateway.customerCalls))
		}
		if rider.StripeCustomerID == "" {
			t.Errorf("customer id not persisted on user")
		}
	})

	t.Run("reuses an existing customer", func(t *testing.T) {
		f, booking, _ := setup("cus_existing")

		if _, err := f.service.RetryPayment(context.Background(), &RetryPaymentRequest{
			BookingID:       booking.ID,
			PaymentMethodID: "pm_1",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.gateway.customerCalls) != 0 {
			t.Errorf("customer created despite existing id")
		}
	})

	t.Run("rejects a retry by someone other than the booking owner", func(t *testing.T) {
		f, booking, _ := setup("cus_existing")

		_, err := f.service.RetryPayment(context.Background(), &RetryPaymentRequest{
			BookingID:       booking.ID,
			PaymentMethodID: "pm_1",
			RiderID:         primitive.NewObjectID(),
		})
		if err == nil {
			t.Fatal("expected forbidden error")
		}
	})
}

func TestMapIntentStatus(t *testing.T) {
	cases := []struct {
		in   string
		want models.BookingPaymentStatus
	}{
		{"succeeded", models.BookingPaymentCaptured},
		{"requires_capture", models.BookingPaymentAuthorized},
		{"canceled", models.BookingPaymentFailed},
		{"processing", models.BookingPaymentPending},
		{"requires_action", models.BookingPaymentPending},
	}

	for _, tc := range cases {
		if got := mapIntentStatus(tc.in); got != tc.want {
			t.Errorf("mapIntentStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
