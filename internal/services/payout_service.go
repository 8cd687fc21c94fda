package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"poolride/internal/config"
	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"
	"poolride/pkg/cache"
	"poolride/pkg/logger"
	"poolride/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/semaphore"
)

// Locker is the advisory-lock surface the payout run uses to keep two
// concurrent runs from paying the same driver twice.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*cache.Lock, error)
	ReleaseLock(ctx context.Context, lock *cache.Lock) error
}

type PayoutService interface {
	// Weekly run
	RunWeeklyPayouts(ctx context.Context) (*PayoutRunReport, error)
	ProcessDriverPayout(ctx context.Context, driver *models.User) (*DriverPayoutResult, error)
	IsDue(now time.Time) bool

	// Earnings
	GetDriverEarnings(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) (*DriverEarnings, error)
	GetDriverPayouts(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)

	// Webhooks
	HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error
}

// PayoutRunReport summarizes one weekly run across all eligible drivers.
type PayoutRunReport struct {
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	PeriodStart time.Time             `json:"period_start"`
	PeriodEnd   time.Time             `json:"period_end"`
	Drivers     int                   `json:"drivers"`
	Paid        int                   `json:"paid"`
	Skipped     int                   `json:"skipped"`
	Failed      int                   `json:"failed"`
	TotalAmount float64               `json:"total_amount"`
	Results     []*DriverPayoutResult `json:"results"`
}

// DriverPayoutResult records the outcome for a single driver. Exactly one of
// Paid, Skipped or Error describes what happened.
type DriverPayoutResult struct {
	DriverID   primitive.ObjectID `json:"driver_id"`
	Paid       bool               `json:"paid"`
	Skipped    bool               `json:"skipped"`
	SkipReason string             `json:"skip_reason,omitempty"`
	Amount     float64            `json:"amount"`
	PayoutID   string             `json:"payout_id,omitempty"`
	TransferID string             `json:"transfer_id,omitempty"`
	Error      error              `json:"-"`
}

// DriverEarnings itemizes a driver's earnings over a period.
type DriverEarnings struct {
	DriverID         primitive.ObjectID   `json:"driver_id"`
	PeriodStart      time.Time            `json:"period_start"`
	PeriodEnd        time.Time            `json:"period_end"`
	Rides            []*EarningsBreakdown `json:"rides"`
	TotalGross       float64              `json:"total_gross"`
	TotalFees        float64              `json:"total_fees"`
	TotalNet         float64              `json:"total_net"`
	PendingPayouts   float64              `json:"pending_payouts"`
	AvailableBalance float64              `json:"available_balance"`
	Currency         string               `json:"currency"`
}

type payoutService struct {
	userRepo    interfaces.UserRepository
	rideRepo    interfaces.RideRepository
	bookingRepo interfaces.BookingRepository
	payoutRepo  interfaces.PayoutRepository
	earnings    EarningsService
	gateway     payment.Gateway
	locker      Locker
	config      *config.PayoutConfig
	currency    string
	logger      *logger.Logger
}

func NewPayoutService(
	userRepo interfaces.UserRepository,
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	payoutRepo interfaces.PayoutRepository,
	earnings EarningsService,
	gateway payment.Gateway,
	locker Locker,
	cfg *config.PayoutConfig,
	currency string,
	log *logger.Logger,
) PayoutService {
	return &payoutService{
		userRepo:    userRepo,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		payoutRepo:  payoutRepo,
		earnings:    earnings,
		gateway:     gateway,
		locker:      locker,
		config:      cfg,
		currency:    currency,
		logger:      log,
	}
}

// IsDue reports whether a weekly run should start at the given time. The
// caller supplies the clock so schedules can be tested and replayed.
func (s *payoutService) IsDue(now time.Time) bool {
	return now.Weekday() == time.Weekday(s.config.Weekday) && now.Hour() == s.config.Hour
}

// RunWeeklyPayouts pays every eligible driver for the trailing window. Driver
// failures are isolated: one driver erroring never stops the others, and the
// run reports per-driver outcomes rather than failing wholesale.
func (s *payoutService) RunWeeklyPayouts(ctx context.Context) (*PayoutRunReport, error) {
	startedAt := time.Now()
	periodEnd := startedAt
	periodStart := periodEnd.AddDate(0, 0, -s.config.WindowDays)

	drivers, err := s.userRepo.GetPayoutEligibleDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible drivers: %w", err)
	}

	report := &PayoutRunReport{
		StartedAt:   startedAt,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Drivers:     len(drivers),
		Results:     make([]*DriverPayoutResult, 0, len(drivers)),
	}

	s.logger.WithField("drivers", len(drivers)).Info("Starting weekly payout run")

	sem := semaphore.NewWeighted(s.config.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, driver := range drivers {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			report.Results = append(report.Results, &DriverPayoutResult{
				DriverID: driver.ID,
				Error:    err,
			})
			report.Failed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(driver *models.User) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := s.ProcessDriverPayout(ctx, driver)
			if err != nil {
				s.logger.WithDriverID(driver.ID).WithError(err).Error("Driver payout failed")
				result = &DriverPayoutResult{DriverID: driver.ID, Error: err}
			}

			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, result)
			switch {
			case result.Error != nil:
				report.Failed++
			case result.Skipped:
				report.Skipped++
			default:
				report.Paid++
				report.TotalAmount += result.Amount
			}
		}(driver)
	}

	wg.Wait()
	report.FinishedAt = time.Now()

	s.logger.WithFields(map[string]interface{}{
		"drivers": report.Drivers,
		"paid":    report.Paid,
		"skipped": report.Skipped,
		"failed":  report.Failed,
		"amount":  report.TotalAmount,
	}).Info("Weekly payout run finished")

	return report, nil
}

// ProcessDriverPayout settles one driver's balance for the trailing window:
// compute what completed rides earned, subtract what is already on its way to
// the bank, then move the remainder through a transfer+payout pair and mirror
// the processor's state locally.
func (s *payoutService) ProcessDriverPayout(ctx context.Context, driver *models.User) (*DriverPayoutResult, error) {
	result := &DriverPayoutResult{DriverID: driver.ID}

	lock, err := s.locker.AcquireLock(ctx, utils.PayoutLockPrefix+driver.ID.Hex(), utils.PayoutLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			result.Skipped = true
			result.SkipReason = "payout already in progress"
			return result, nil
		}
		return nil, fmt.Errorf("failed to lock driver payout: %w", err)
	}
	defer s.locker.ReleaseLock(ctx, lock)

	if !driver.IsDriver() || !driver.HasPayoutAccount() {
		result.Skipped = true
		result.SkipReason = "no payout account"
		return result, nil
	}

	enabled, err := s.gateway.PayoutsEnabled(ctx, driver.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payout account: %w", err)
	}
	if !enabled {
		result.Skipped = true
		result.SkipReason = "payouts disabled on account"
		return result, nil
	}

	periodEnd := time.Now()
	periodStart := periodEnd.AddDate(0, 0, -s.config.WindowDays)

	earnings, err := s.GetDriverEarnings(ctx, driver.ID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	if earnings.AvailableBalance <= 0 {
		result.Skipped = true
		result.SkipReason = "no available balance"
		return result, nil
	}

	amount := earnings.AvailableBalance
	description := fmt.Sprintf("Weekly payout %s to %s",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))

	transfer, err := s.gateway.CreateTransfer(ctx, &payment.TransferRequest{
		Amount:      amount,
		Currency:    s.currency,
		Destination: driver.StripeAccountID,
		Description: description,
		Metadata:    map[string]string{"driver_id": driver.ID.Hex()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	payoutResp, err := s.gateway.CreatePayout(ctx, &payment.PayoutRequest{
		AccountID:   driver.StripeAccountID,
		Amount:      amount,
		Currency:    s.currency,
		Method:      "standard",
		Description: description,
		Metadata: map[string]string{
			"driver_id":   driver.ID.Hex(),
			"transfer_id": transfer.TransferID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	record := &models.Payout{
		DriverID:         driver.ID,
		StripePayoutID:   payoutResp.PayoutID,
		StripeTransferID: transfer.TransferID,
		Amount:           amount,
		Currency:         s.currency,
		Status:           mapPayoutStatus(payoutResp.Status),
		Method:           payoutResp.Method,
		Description:      description,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
	}
	if payoutResp.ArrivalDate > 0 {
		arrival := time.Unix(payoutResp.ArrivalDate, 0)
		record.ArrivalDate = &arrival
	}

	if err := s.payoutRepo.Create(ctx, record); err != nil {
		// Money already moved; surface the record failure loudly so it can
		// be reconciled against the processor's ledger.
		s.logger.WithDriverID(driver.ID).WithFields(map[string]interface{}{
			"stripe_payout_id":   payoutResp.PayoutID,
			"stripe_transfer_id": transfer.TransferID,
		}).WithError(err).Error("Payout succeeded but local record failed")
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	s.logger.LogPayoutEvent(driver.ID, "payout_created", amount, s.currency)

	result.Paid = true
	result.Amount = amount
	result.PayoutID = payoutResp.PayoutID
	result.TransferID = transfer.TransferID
	return result, nil
}

// GetDriverEarnings itemizes completed rides in [start, end) and derives the
// available balance: net earnings minus payouts still in flight, floored at
// zero.
func (s *payoutService) GetDriverEarnings(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) (*DriverEarnings, error) {
	rides, err := s.rideRepo.GetCompletedInWindow(ctx, driverID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed rides: %w", err)
	}

	earnings := &DriverEarnings{
		DriverID:    driverID,
		PeriodStart: start,
		PeriodEnd:   end,
		Rides:       make([]*EarningsBreakdown, 0, len(rides)),
		Currency:    s.currency,
	}

	for _, ride := range rides {
		bookings, err := s.bookingRepo.GetEarnableByRideID(ctx, ride.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings for ride %s: %w", ride.ID.Hex(), err)
		}

		breakdown := s.earnings.CalculateRideEarnings(ride, bookings)
		earnings.Rides = append(earnings.Rides, breakdown)
		earnings.TotalGross += breakdown.Gross
		earnings.TotalFees += breakdown.TotalFees
		earnings.TotalNet += breakdown.Net
	}

	pending, err := s.payoutRepo.GetPendingAmount(ctx, driverID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payouts: %w", err)
	}
	earnings.PendingPayouts = pending

	available := utils.RoundCurrency(earnings.TotalNet - pending)
	if available < 0 {
		available = 0
	}
	earnings.AvailableBalance = available

	return earnings, nil
}

func (s *payoutService) GetDriverPayouts(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return s.payoutRepo.GetByDriverID(ctx, driverID, params)
}

// HandleWebhookEvent mirrors processor-side payout transitions onto local
// records. Events for payouts we have no record of are ignored; the processor
// also sends events for payouts created outside this system.
func (s *payoutService) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	switch event.EventType {
	case "payout.paid", "payout.failed", "payout.canceled", "payout.updated":
	default:
		return nil
	}

	payoutID, _ := event.Data["id"].(string)
	if payoutID == "" {
		return fmt.Errorf("webhook event %s missing payout id", event.EventID)
	}

	record, err := s.payoutRepo.GetByStripePayoutID(ctx, payoutID)
	if err != nil {
		s.logger.WithField("stripe_payout_id", payoutID).Warn("Webhook for unknown payout")
		return nil
	}

	updates := map[string]interface{}{}

	switch event.EventType {
	case "payout.paid":
		updates["status"] = models.PayoutStatusCompleted
		if arrival, ok := event.Data["arrival_date"].(float64); ok {
			updates["arrival_date"] = time.Unix(int64(arrival), 0)
		}
	case "payout.failed":
		updates["status"] = models.PayoutStatusFailed
		if code, ok := event.Data["failure_code"].(string); ok {
			updates["failure_code"] = code
		}
		if msg, ok := event.Data["failure_message"].(string); ok {
			updates["failure_message"] = msg
		}
	case "payout.canceled":
		updates["status"] = models.PayoutStatusCanceled
	case "payout.updated":
		if status, ok := event.Data["status"].(string); ok {
			updates["status"] = mapPayoutStatus(status)
		}
	}

	if len(updates) == 0 {
		return nil
	}

	if err := s.payoutRepo.Update(ctx, record.ID, updates); err != nil {
		return fmt.Errorf("failed to update payout from webhook: %w", err)
	}

	s.logger.LogPayoutEvent(record.DriverID, event.EventType, record.Amount, record.Currency)
	return nil
}

// mapPayoutStatus maps the processor's payout status onto the local enum.
// Anything short of paid stays pending until a webhook settles it; terminal
// failures arrive as dedicated webhook events, not creation statuses.
func mapPayoutStatus(status string) models.PayoutStatus {
	switch status {
	case "paid":
		return models.PayoutStatusCompleted
	case "failed":
		return models.PayoutStatusFailed
	case "canceled":
		return models.PayoutStatusCanceled
	default:
		return models.PayoutStatusPending
	}
}
