package ledger

import (
	"context"
	"time"

	"vwallet/internal/models"
	"vwallet/internal/money"
)

// Config holds ledger service configuration.
type Config struct {
	// TokenTTL is how long a confirmation token stays valid.
	TokenTTL time.Duration
	// TokenLength is the number of digits in a confirmation token.
	TokenLength int
}

// IdentityInput is the (document, phone) pair asserted by the caller.
// Both fields must match the same client row.
type IdentityInput struct {
	Document string
	Phone    string
}

// RechargeInput requests a balance top-up.
type RechargeInput struct {
	IdentityInput
	Amount money.Money
}

// RechargeResult reports a completed recharge.
type RechargeResult struct {
	Document     string      `json:"document"`
	Name         string      `json:"name"`
	Amount       money.Money `json:"amount"`
	PriorBalance money.Money `json:"prior_balance"`
	NewBalance   money.Money `json:"new_balance"`
}

// PaymentInput requests a new purchase session.
type PaymentInput struct {
	IdentityInput
	Amount money.Money
}

// PaymentInitiated carries only the session id. The confirmation token
// travels exclusively through the notification channel.
type PaymentInitiated struct {
	SessionID string `json:"session_id"`
}

// ConfirmInput confirms a purchase session with its token.
type ConfirmInput struct {
	SessionID string
	Token     string
}

// PaymentConfirmed reports a completed purchase.
type PaymentConfirmed struct {
	Document     string      `json:"document"`
	Name         string      `json:"name"`
	Amount       money.Money `json:"amount"`
	PriorBalance money.Money `json:"prior_balance"`
	NewBalance   money.Money `json:"new_balance"`
	ConfirmedAt  time.Time   `json:"confirmed_at"`
}

// Statistics aggregates the transaction log for one client. Always
// recomputed from the log, never cached.
type Statistics struct {
	TotalRecharges money.Money `json:"total_recharges"`
	TotalPurchases money.Money `json:"total_purchases"`
	RechargeCount  int64       `json:"recharge_count"`
	PurchaseCount  int64       `json:"purchase_count"`
}

// BalanceReport is the result of a balance query. Email is returned raw;
// masking is a presentation concern applied at the response boundary.
type BalanceReport struct {
	Document   string      `json:"document"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Balance    money.Money `json:"balance"`
	Statistics Statistics  `json:"statistics"`
	QueriedAt  time.Time   `json:"queried_at"`
}

// TokenSender delivers the confirmation token to the client's notification
// address. The ledger depends only on success or failure.
type TokenSender interface {
	SendPaymentToken(ctx context.Context, client *models.Client, token string, amount money.Money, sessionID string, ttl time.Duration) error
}

// ClientCache is a read cache for client records. Implementations must
// treat it as advisory: errors fall through to the store.
type ClientCache interface {
	GetClient(ctx context.Context, document, phone string) (*models.Client, error)
	SetClient(ctx context.Context, client *models.Client) error
	InvalidateClient(ctx context.Context, document, phone string) error
}

// MetricsCollector records ledger operation metrics.
type MetricsCollector interface {
	RecordOperation(operation string, duration time.Duration)
	RecordTransaction(txType string, amount money.Money)
	RecordError(operation, errType string)
}
