package services

import (
	"poolride/internal/models"
)

// FeeSchedule is the platform's cut of a completed ride. The percentage+fixed
// pair covers card processing; the commission is flat per ride.
type FeeSchedule struct {
	ProcessingFeePercent float64
	ProcessingFeeFixed   float64
	CommissionPerRide    float64
}

// EarningsBreakdown itemizes what a single completed ride pays the driver.
type EarningsBreakdown struct {
	RideID        string  `json:"ride_id"`
	Gross         float64 `json:"gross"`
	ProcessingFee float64 `json:"processing_fee"`
	Commission    float64 `json:"commission"`
	TotalFees     float64 `json:"total_fees"`
	Net           float64 `json:"net"`
	SeatsSold     int     `json:"seats_sold"`
}

type EarningsService interface {
	CalculateRideEarnings(ride *models.Ride, bookings []*models.Booking) *EarningsBreakdown
	Schedule() FeeSchedule
}

type earningsService struct {
	schedule FeeSchedule
}

func NewEarningsService(schedule FeeSchedule) EarningsService {
	return &earningsService{schedule: schedule}
}

func (s *earningsService) Schedule() FeeSchedule {
	return s.schedule
}

// CalculateRideEarnings computes the driver's net for one completed ride.
// Gross sums each booking's seats at the price locked in when it was made, so
// later price changes on the ride never move settled money. Rides that gross
// less than their fees net zero, never negative.
func (s *earningsService) CalculateRideEarnings(ride *models.Ride, bookings []*models.Booking) *EarningsBreakdown {
	breakdown := &EarningsBreakdown{
		RideID:     ride.ID.Hex(),
		Commission: s.schedule.CommissionPerRide,
	}

	for _, booking := range bookings {
		if !booking.CountsTowardEarnings() {
			continue
		}

		seats := booking.Seats()
		breakdown.SeatsSold += seats
		breakdown.Gross += float64(seats) * booking.EffectivePrice(ride.PricePerSeat)
	}

	breakdown.ProcessingFee = breakdown.Gross*s.schedule.ProcessingFeePercent + s.schedule.ProcessingFeeFixed
	breakdown.TotalFees = breakdown.ProcessingFee + breakdown.Commission

	net := breakdown.Gross - breakdown.TotalFees
	if net < 0 {
		net = 0
	}
	breakdown.Net = net

	return breakdown
}
