package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"poolride/internal/models"
	"poolride/internal/utils"
	"poolride/pkg/cache"
	"poolride/pkg/logger"
	"poolride/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: "error", Format: "text", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return log
}

// --- user repository ---

type mockUserRepo struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	drivers []*models.User
	updates map[primitive.ObjectID]map[string]interface{}
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:   make(map[primitive.ObjectID]*models.User),
		updates: make(map[primitive.ObjectID]map[string]interface{}),
	}
}

func (m *mockUserRepo) add(user *models.User) *models.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates[id] == nil {
		m.updates[id] = make(map[string]interface{})
	}
	for k, v := range updates {
		m.updates[id][k] = v
	}
	if user, ok := m.users[id]; ok {
		if customerID, ok := updates["stripe_customer_id"].(string); ok {
			user.StripeCustomerID = customerID
		}
	}
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *mockUserRepo) GetPayoutEligibleDrivers(ctx context.Context) ([]*models.User, error) {
	return m.drivers, nil
}

func (m *mockUserRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	return nil, 0, nil
}

// --- ride repository ---

type mockRideRepo struct {
	mu        sync.Mutex
	rides     map[primitive.ObjectID]*models.Ride
	completed map[primitive.ObjectID][]*models.Ride // keyed by driver
}

func newMockRideRepo() *mockRideRepo {
	return &mockRideRepo{
		rides:     make(map[primitive.ObjectID]*models.Ride),
		completed: make(map[primitive.ObjectID][]*models.Ride),
	}
}

func (m *mockRideRepo) add(ride *models.Ride) *models.Ride {
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	m.rides[ride.ID] = ride
	if ride.Status == models.RideStatusCompleted {
		m.completed[ride.DriverID] = append(m.completed[ride.DriverID], ride)
	}
	return ride
}

func (m *mockRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(ride)
	return nil
}

func (m *mockRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, fmt.Errorf("ride not found")
	}
	return ride, nil
}

func (m *mockRideRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (m *mockRideRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	return nil
}

func (m *mockRideRepo) DecrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return fmt.Errorf("ride not found")
	}
	if ride.SeatsAvailable < seats {
		return fmt.Errorf("no seats available")
	}
	ride.SeatsAvailable -= seats
	return nil
}

func (m *mockRideRepo) IncrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ride, ok := m.rides[id]; ok {
		ride.SeatsAvailable += seats
	}
	return nil
}

func (m *mockRideRepo) GetUpcoming(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return nil, 0, nil
}

func (m *mockRideRepo) GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return nil, 0, nil
}

func (m *mockRideRepo) GetCompletedInWindow(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed[driverID], nil
}

// --- booking repository ---

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
	byRide   map[primitive.ObjectID][]*models.Booking
	updates  map[primitive.ObjectID]map[string]interface{}
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		bookings: make(map[primitive.ObjectID]*models.Booking),
		byRide:   make(map[primitive.ObjectID][]*models.Booking),
		updates:  make(map[primitive.ObjectID]map[string]interface{}),
	}
}

func (m *mockBookingRepo) add(booking *models.Booking) *models.Booking {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	m.bookings[booking.ID] = booking
	m.byRide[booking.RideID] = append(m.byRide[booking.RideID], booking)
	return booking
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(booking)
	return nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found")
	}
	return booking, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates[id] == nil {
		m.updates[id] = make(map[string]interface{})
	}
	for k, v := range updates {
		m.updates[id][k] = v
	}
	return nil
}

func (m *mockBookingRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, booking := range m.bookings {
		if booking.PaymentIntentID == paymentIntentID {
			return booking, nil
		}
	}
	return nil, fmt.Errorf("booking not found")
}

func (m *mockBookingRepo) GetEarnableByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var earnable []*models.Booking
	for _, booking := range m.byRide[rideID] {
		if booking.CountsTowardEarnings() {
			earnable = append(earnable, booking)
		}
	}
	return earnable, nil
}

func (m *mockBookingRepo) GetByRiderID(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	return nil, 0, nil
}

func (m *mockBookingRepo) GetByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byRide[rideID], nil
}

// --- payout repository ---

type mockPayoutRepo struct {
	mu      sync.Mutex
	pending map[primitive.ObjectID]float64
	created []*models.Payout
	updates map[primitive.ObjectID]map[string]interface{}
}

func newMockPayoutRepo() *mockPayoutRepo {
	return &mockPayoutRepo{
		pending: make(map[primitive.ObjectID]float64),
		updates: make(map[primitive.ObjectID]map[string]interface{}),
	}
}

func (m *mockPayoutRepo) Create(ctx context.Context, payout *models.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	m.created = append(m.created, payout)
	return nil
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, payout := range m.created {
		if payout.ID == id {
			return payout, nil
		}
	}
	return nil, fmt.Errorf("payout not found")
}

func (m *mockPayoutRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates[id] == nil {
		m.updates[id] = make(map[string]interface{})
	}
	for k, v := range updates {
		m.updates[id][k] = v
	}
	return nil
}

func (m *mockPayoutRepo) GetByStripePayoutID(ctx context.Context, stripePayoutID string) (*models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, payout := range m.created {
		if payout.StripePayoutID == stripePayoutID {
			return payout, nil
		}
	}
	return nil, fmt.Errorf("payout not found")
}

func (m *mockPayoutRepo) GetPendingAmount(ctx context.Context, driverID primitive.ObjectID, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[driverID], nil
}

func (m *mockPayoutRepo) GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return nil, 0, nil
}

// --- payment gateway ---

type mockGateway struct {
	mu sync.Mutex

	payoutsEnabled bool
	intents        map[string]*payment.PaymentIntent

	transferCalls []payment.TransferRequest
	payoutCalls   []payment.PayoutRequest
	captureCalls  []string
	cancelCalls   []string
	refundCalls   []payment.RefundRequest
	customerCalls []payment.CustomerRequest

	transferErrFor map[string]error // keyed by destination account
	payoutStatus   string
	intentStatus   string // status assigned to newly created intents
	refundCurrency string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		payoutsEnabled: true,
		intents:        make(map[string]*payment.PaymentIntent),
		transferErrFor: make(map[string]error),
		payoutStatus:   "pending",
		intentStatus:   "requires_capture",
		refundCurrency: "usd",
	}
}

func (m *mockGateway) PayoutsEnabled(ctx context.Context, accountID string) (bool, error) {
	return m.payoutsEnabled, nil
}

func (m *mockGateway) CreateTransfer(ctx context.Context, request *payment.TransferRequest) (*payment.TransferResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transferErrFor[request.Destination]; err != nil {
		return nil, err
	}
	m.transferCalls = append(m.transferCalls, *request)
	return &payment.TransferResponse{
		TransferID:  fmt.Sprintf("tr_%d", len(m.transferCalls)),
		Amount:      request.Amount,
		Currency:    request.Currency,
		Destination: request.Destination,
		CreatedAt:   time.Now().Unix(),
	}, nil
}

func (m *mockGateway) CreatePayout(ctx context.Context, request *payment.PayoutRequest) (*payment.PayoutResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payoutCalls = append(m.payoutCalls, *request)
	return &payment.PayoutResponse{
		PayoutID:  fmt.Sprintf("po_%d", len(m.payoutCalls)),
		Status:    m.payoutStatus,
		Amount:    request.Amount,
		Currency:  request.Currency,
		Method:    request.Method,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func (m *mockGateway) addIntent(intent *payment.PaymentIntent) {
	m.intents[intent.ID] = intent
}

func (m *mockGateway) GetPaymentIntent(ctx context.Context, id string) (*payment.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	return intent, nil
}

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, request *payment.PaymentIntentRequest) (*payment.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent := &payment.PaymentIntent{
		ID:         fmt.Sprintf("pi_new_%d", len(m.intents)+1),
		Status:     m.intentStatus,
		Amount:     request.Amount,
		Currency:   request.Currency,
		CustomerID: request.CustomerID,
		CreatedAt:  time.Now().Unix(),
	}
	m.intents[intent.ID] = intent
	return intent, nil
}

func (m *mockGateway) CapturePaymentIntent(ctx context.Context, id string, amount float64) (*payment.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	m.captureCalls = append(m.captureCalls, id)
	captured := amount
	if captured == 0 {
		captured = intent.Amount
	}
	intent.Status = "succeeded"
	intent.AmountReceived = captured
	return intent, nil
}

func (m *mockGateway) CancelPaymentIntent(ctx context.Context, id string) (*payment.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	m.cancelCalls = append(m.cancelCalls, id)
	intent.Status = "canceled"
	return intent, nil
}

func (m *mockGateway) CreateRefund(ctx context.Context, request *payment.RefundRequest) (*payment.RefundResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundCalls = append(m.refundCalls, *request)

	amount := request.Amount
	if amount == 0 {
		// full refund of the charge
		for _, intent := range m.intents {
			if intent.LatestChargeID == request.ChargeID {
				amount = intent.AmountReceived
			}
		}
	}

	return &payment.RefundResponse{
		RefundID:  fmt.Sprintf("re_%d", len(m.refundCalls)),
		Status:    "succeeded",
		Amount:    amount,
		Currency:  m.refundCurrency,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func (m *mockGateway) CreateCustomer(ctx context.Context, request *payment.CustomerRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerCalls = append(m.customerCalls, *request)
	return fmt.Sprintf("cus_%d", len(m.customerCalls)), nil
}

func (m *mockGateway) ValidateWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockGateway) transferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transferCalls)
}

func paymentWebhook(eventType string, data map[string]interface{}) *payment.WebhookEvent {
	return &payment.WebhookEvent{
		EventID:   "evt_test",
		EventType: eventType,
		Data:      data,
		CreatedAt: time.Now().Unix(),
	}
}

// --- locker ---

type mockLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*cache.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, cache.ErrLockHeld
	}
	m.held[key] = true
	return &cache.Lock{Key: key, Token: "tok", TTL: ttl, CreatedAt: time.Now()}, nil
}

func (m *mockLocker) ReleaseLock(ctx context.Context, lock *cache.Lock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lock.Key)
	return nil
}
