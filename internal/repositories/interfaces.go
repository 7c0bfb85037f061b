package repositories

import (
	"context"
	"time"

	"vwallet/internal/models"
	"vwallet/internal/money"
)

// ClientRepository owns client identity and the current balance.
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uint) (*models.Client, error)
	// GetByDocumentAndPhone resolves a client only when both fields match
	// the same row. Matching by document alone is intentionally not offered.
	GetByDocumentAndPhone(ctx context.Context, document, phone string) (*models.Client, error)
	// GetByIDForUpdate reads the client row under a row-level update lock.
	// Only meaningful inside an active unit of work.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Client, error)
	UpdateBalance(ctx context.Context, id uint, balance money.Money) error
	List(ctx context.Context) ([]models.Client, error)
}

// ClientStats aggregates a client's transaction log by type.
type ClientStats struct {
	TotalRecharges money.Money
	TotalPurchases money.Money
	RechargeCount  int64
	PurchaseCount  int64
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByClient(ctx context.Context, clientID uint) ([]models.Transaction, error)
	StatsByClient(ctx context.Context, clientID uint) (*ClientStats, error)
}

// SessionRepository owns payment sessions and their single-use flag.
type SessionRepository interface {
	Create(ctx context.Context, session *models.PaymentSession) error
	// FindByIDAndToken matches id and token simultaneously. A wrong token
	// on a known id is indistinguishable from an unknown id.
	FindByIDAndToken(ctx context.Context, id, token string) (*models.PaymentSession, error)
	// MarkUsed flips used to true only if it is still false. The returned
	// bool reports whether this call performed the transition.
	MarkUsed(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stores bundles the repositories bound to one database handle. Inside a
// unit of work all three target the same transaction.
type Stores struct {
	Clients      ClientRepository
	Transactions TransactionRepository
	Sessions     SessionRepository
}

// UnitOfWork runs a group of store mutations atomically. The callback
// receives transaction-bound stores; every operation through them commits
// or rolls back as one. The handle is passed explicitly rather than held
// in ambient state.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Stores) error) error
}
