package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrNotConfigured is returned when the gateway is constructed without a
// secret key. Callers fail fast instead of issuing unauthenticated calls.
var ErrNotConfigured = errors.New("stripe is not configured")

type StripeGateway struct {
	client        *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}

	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
	}, nil
}

func (s *StripeGateway) PayoutsEnabled(ctx context.Context, accountID string) (bool, error) {
	account, err := s.client.Accounts.GetByID(accountID, nil)
	if err != nil {
		return false, fmt.Errorf("failed to retrieve account %s: %w", accountID, err)
	}

	return account.PayoutsEnabled, nil
}

func (s *StripeGateway) CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(toCents(request.Amount)),
		Currency:    stripe.String(request.Currency),
		Destination: stripe.String(request.Destination),
	}
	if request.Description != "" {
		params.Description = stripe.String(request.Description)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	transfer, err := s.client.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	return &TransferResponse{
		TransferID:  transfer.ID,
		Amount:      fromCents(transfer.Amount),
		Currency:    string(transfer.Currency),
		Destination: request.Destination,
		CreatedAt:   transfer.Created,
	}, nil
}

func (s *StripeGateway) CreatePayout(ctx context.Context, request *PayoutRequest) (*PayoutResponse, error) {
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(toCents(request.Amount)),
		Currency: stripe.String(request.Currency),
	}
	if request.Method != "" {
		params.Method = stripe.String(request.Method)
	}
	if request.Description != "" {
		params.Description = stripe.String(request.Description)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	// The payout runs in the connected account's context, not the platform's.
	params.SetStripeAccount(request.AccountID)

	payout, err := s.client.Payouts.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	return &PayoutResponse{
		PayoutID:    payout.ID,
		Status:      string(payout.Status),
		Amount:      fromCents(payout.Amount),
		Currency:    string(payout.Currency),
		Method:      string(payout.Method),
		ArrivalDate: payout.ArrivalDate,
		CreatedAt:   payout.Created,
	}, nil
}

func (s *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	pi, err := s.client.PaymentIntents.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, err)
	}

	return convertPaymentIntent(pi), nil
}

func (s *StripeGateway) CreatePaymentIntent(ctx context.Context, request *PaymentIntentRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toCents(request.Amount)),
		Currency: stripe.String(request.Currency),
	}
	if request.CustomerID != "" {
		params.Customer = stripe.String(request.CustomerID)
	}
	if request.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(request.PaymentMethodID)
	}
	if request.Description != "" {
		params.Description = stripe.String(request.Description)
	}
	if request.ManualCapture {
		params.CaptureMethod = stripe.String("manual")
		params.ConfirmationMethod = stripe.String("manual")
	}
	if request.Confirm {
		params.Confirm = stripe.Bool(true)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return convertPaymentIntent(pi), nil
}

func (s *StripeGateway) CapturePaymentIntent(ctx context.Context, id string, amount float64) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	if amount > 0 {
		params.AmountToCapture = stripe.Int64(toCents(amount))
	}

	pi, err := s.client.PaymentIntents.Capture(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to capture payment intent %s: %w", id, err)
	}

	return convertPaymentIntent(pi), nil
}

func (s *StripeGateway) CancelPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	pi, err := s.client.PaymentIntents.Cancel(id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payment intent %s: %w", id, err)
	}

	return convertPaymentIntent(pi), nil
}

func (s *StripeGateway) CreateRefund(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(request.ChargeID),
	}
	if request.Amount > 0 {
		params.Amount = stripe.Int64(toCents(request.Amount))
	}
	if request.Reason != "" {
		params.Reason = stripe.String(request.Reason)
	}

	refund, err := s.client.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:  refund.ID,
		Status:    string(refund.Status),
		Amount:    fromCents(refund.Amount),
		Currency:  string(refund.Currency),
		CreatedAt: refund.Created,
	}, nil
}

func (s *StripeGateway) CreateCustomer(ctx context.Context, request *CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{}
	if request.Email != "" {
		params.Email = stripe.String(request.Email)
	}
	if request.Name != "" {
		params.Name = stripe.String(request.Name)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	customer, err := s.client.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	return customer.ID, nil
}

func (s *StripeGateway) ValidateWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	data := make(map[string]interface{})
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Data:      data,
		CreatedAt: event.Created,
	}, nil
}

func convertPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	converted := &PaymentIntent{
		ID:             pi.ID,
		Status:         string(pi.Status),
		Amount:         fromCents(pi.Amount),
		AmountReceived: fromCents(pi.AmountReceived),
		Currency:       string(pi.Currency),
		CreatedAt:      pi.Created,
	}
	if pi.Customer != nil {
		converted.CustomerID = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		converted.LatestChargeID = pi.LatestCharge.ID
	}
	return converted
}

// Stripe amounts are integer cents.
func toCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func fromCents(amount int64) float64 {
	return float64(amount) / 100
}
