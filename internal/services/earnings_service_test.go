package services

import (
	"math"
	"testing"

	"poolride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func defaultSchedule() FeeSchedule {
	return FeeSchedule{
		ProcessingFeePercent: 0.029,
		ProcessingFeeFixed:   0.30,
		CommissionPerRide:    2.00,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func captured(rideID primitive.ObjectID, seats int, price *float64) *models.Booking {
	return &models.Booking{
		ID:            primitive.NewObjectID(),
		RideID:        rideID,
		NumberOfSeats: seats,
		PricePerSeat:  price,
		Status:        models.BookingStatusCompleted,
		PaymentStatus: models.BookingPaymentCaptured,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestCalculateRideEarnings(t *testing.T) {
	svc := NewEarningsService(defaultSchedule())
	rideID := primitive.NewObjectID()

	t.Run("fee math on 100 gross", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 25, Status: models.RideStatusCompleted}
		bookings := []*models.Booking{
			captured(rideID, 4, floatPtr(25)), // 4 × 25 = 100
		}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		if !almostEqual(breakdown.Gross, 100) {
			t.Fatalf("gross = %v, want 100", breakdown.Gross)
		}
		if !almostEqual(breakdown.ProcessingFee, 3.20) {
			t.Errorf("processing fee = %v, want 3.20", breakdown.ProcessingFee)
		}
		if !almostEqual(breakdown.Commission, 2.00) {
			t.Errorf("commission = %v, want 2.00", breakdown.Commission)
		}
		if !almostEqual(breakdown.TotalFees, 5.20) {
			t.Errorf("total fees = %v, want 5.20", breakdown.TotalFees)
		}
		if !almostEqual(breakdown.Net, 94.80) {
			t.Errorf("net = %v, want 94.80", breakdown.Net)
		}
	})

	t.Run("small positive gross is not clamped", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 3, Status: models.RideStatusCompleted}
		bookings := []*models.Booking{captured(rideID, 1, floatPtr(3))}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		// 3 − (3×0.029 + 0.30 + 2.00) = 0.613
		if !almostEqual(breakdown.Net, 0.613) {
			t.Errorf("net = %v, want 0.613", breakdown.Net)
		}
	})

	t.Run("zero gross floors at zero", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 10, Status: models.RideStatusCompleted}

		breakdown := svc.CalculateRideEarnings(ride, nil)

		if breakdown.Net != 0 {
			t.Errorf("net = %v, want exactly 0", breakdown.Net)
		}
		if breakdown.Gross != 0 {
			t.Errorf("gross = %v, want 0", breakdown.Gross)
		}
	})

	t.Run("locked-in price wins over current ride price", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 25, Status: models.RideStatusCompleted}
		bookings := []*models.Booking{captured(rideID, 1, floatPtr(20))}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		if !almostEqual(breakdown.Gross, 20) {
			t.Errorf("gross = %v, want 20 (locked-in price)", breakdown.Gross)
		}
	})

	t.Run("legacy booking without locked price falls back to ride price", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 15, Status: models.RideStatusCompleted}
		bookings := []*models.Booking{captured(rideID, 2, nil)}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		if !almostEqual(breakdown.Gross, 30) {
			t.Errorf("gross = %v, want 30", breakdown.Gross)
		}
	})

	t.Run("cancelled bookings are excluded", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 10, Status: models.RideStatusCompleted}
		cancelled := captured(rideID, 2, floatPtr(10))
		cancelled.Status = models.BookingStatusCancelled
		bookings := []*models.Booking{
			captured(rideID, 1, floatPtr(10)),
			cancelled,
		}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		if !almostEqual(breakdown.Gross, 10) {
			t.Errorf("gross = %v, want 10 (cancelled booking excluded)", breakdown.Gross)
		}
		if breakdown.SeatsSold != 1 {
			t.Errorf("seats sold = %d, want 1", breakdown.SeatsSold)
		}
	})

	t.Run("unset seat count defaults to one", func(t *testing.T) {
		ride := &models.Ride{ID: rideID, PricePerSeat: 12, Status: models.RideStatusCompleted}
		bookings := []*models.Booking{captured(rideID, 0, floatPtr(12))}

		breakdown := svc.CalculateRideEarnings(ride, bookings)

		if !almostEqual(breakdown.Gross, 12) {
			t.Errorf("gross = %v, want 12", breakdown.Gross)
		}
	})
}
