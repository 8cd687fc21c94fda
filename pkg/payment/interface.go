package payment

import (
	"context"
)

// Gateway is the payment processor surface the marketplace depends on. The
// processor's ledger stays the system of record for money movement; local
// records only mirror its state.
type Gateway interface {
	// Connected payout accounts
	PayoutsEnabled(ctx context.Context, accountID string) (bool, error)

	// Marketplace money movement
	CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error)
	CreatePayout(ctx context.Context, request *PayoutRequest) (*PayoutResponse, error)

	// Payment intents
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreatePaymentIntent(ctx context.Context, request *PaymentIntentRequest) (*PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string, amount float64) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	// Refunds and customers
	CreateRefund(ctx context.Context, request *RefundRequest) (*RefundResponse, error)
	CreateCustomer(ctx context.Context, request *CustomerRequest) (string, error)

	// Webhooks
	ValidateWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type TransferRequest struct {
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Destination string            `json:"destination"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type TransferResponse struct {
	TransferID  string  `json:"transfer_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Destination string  `json:"destination"`
	CreatedAt   int64   `json:"created_at"`
}

// PayoutRequest moves money from a connected account to its bank account.
// AccountID selects the connected-account context the payout runs in.
type PayoutRequest struct {
	AccountID   string            `json:"account_id"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"method"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type PayoutResponse struct {
	PayoutID    string  `json:"payout_id"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Method      string  `json:"method"`
	ArrivalDate int64   `json:"arrival_date"`
	CreatedAt   int64   `json:"created_at"`
}

type PaymentIntentRequest struct {
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	CustomerID      string            `json:"customer_id"`
	PaymentMethodID string            `json:"payment_method_id"`
	Description     string            `json:"description"`
	ManualCapture   bool              `json:"manual_capture"`
	Confirm         bool              `json:"confirm"`
	Metadata        map[string]string `json:"metadata"`
}

type PaymentIntent struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Amount         float64 `json:"amount"`
	AmountReceived float64 `json:"amount_received"`
	Currency       string  `json:"currency"`
	CustomerID     string  `json:"customer_id"`
	LatestChargeID string  `json:"latest_charge_id"`
	CreatedAt      int64   `json:"created_at"`
}

type RefundRequest struct {
	ChargeID string  `json:"charge_id"`
	Amount   float64 `json:"amount"` // 0 means full refund
	Reason   string  `json:"reason"`
}

type RefundResponse struct {
	RefundID  string  `json:"refund_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt int64   `json:"created_at"`
}

type CustomerRequest struct {
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type WebhookEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt int64                  `json:"created_at"`
}
