package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vwallet/internal/models"
	"vwallet/internal/money"
	"vwallet/internal/repositories"

	"github.com/google/uuid"
)

// Service is the balance ledger and payment-confirmation state machine.
// Every public operation returns either a result record or a typed *Error
// from the taxonomy in errors.go.
type Service interface {
	Recharge(ctx context.Context, in RechargeInput) (*RechargeResult, error)
	InitiatePayment(ctx context.Context, in PaymentInput) (*PaymentInitiated, error)
	ConfirmPayment(ctx context.Context, in ConfirmInput) (*PaymentConfirmed, error)
	QueryBalance(ctx context.Context, in IdentityInput) (*BalanceReport, error)
}

type service struct {
	uow     repositories.UnitOfWork
	stores  repositories.Stores
	cache   ClientCache
	sender  TokenSender
	config  Config
	metrics MetricsCollector

	now          func() time.Time
	newSessionID func() string
}

// NewService creates a new ledger service.
func NewService(
	uow repositories.UnitOfWork,
	stores repositories.Stores,
	cache ClientCache,
	sender TokenSender,
	config Config,
	metrics MetricsCollector,
) Service {
	if uow == nil {
		panic("unit of work is required")
	}
	if stores.Clients == nil || stores.Transactions == nil || stores.Sessions == nil {
		panic("stores are required")
	}
	if sender == nil {
		panic("token sender is required")
	}

	if config.TokenTTL == 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	if config.TokenLength == 0 {
		config.TokenLength = DefaultTokenLength
	}
	if cache == nil {
		cache = &NoopClientCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		uow:          uow,
		stores:       stores,
		cache:        cache,
		sender:       sender,
		config:       config,
		metrics:      metrics,
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
}

// resolveClient looks up a client by the (document, phone) pair, consulting
// the read cache first. A miss on either field is an identity mismatch.
func (s *service) resolveClient(ctx context.Context, id IdentityInput) (*models.Client, error) {
	if client, err := s.cache.GetClient(ctx, id.Document, id.Phone); err == nil {
		return client, nil
	}

	client, err := s.stores.Clients.GetByDocumentAndPhone(ctx, id.Document, id.Phone)
	if err != nil {
		if errors.Is(err, repositories.ErrClientNotFound) {
			log.Printf("ledger: identity mismatch for document %s", id.Document)
			return nil, ErrClientIdentityMismatch
		}
		return nil, storageUnavailable(err)
	}

	if err := s.cache.SetClient(ctx, client); err != nil {
		log.Printf("ledger: failed to cache client %d: %v", client.ID, err)
	}
	return client, nil
}

// invalidate drops the cached record after a balance mutation.
func (s *service) invalidate(ctx context.Context, client *models.Client) {
	if err := s.cache.InvalidateClient(ctx, client.Document, client.Phone); err != nil {
		log.Printf("ledger: failed to invalidate client cache %d: %v", client.ID, err)
	}
}

// wrapStorage passes typed ledger errors through and classifies everything
// else as a storage failure.
func wrapStorage(err error) error {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr
	}
	return storageUnavailable(err)
}

func (s *service) Recharge(ctx context.Context, in RechargeInput) (*RechargeResult, error) {
	log.Printf("ledger: recharge requested - document: %s, amount: %s", in.Document, in.Amount)

	client, err := s.resolveClient(ctx, in.IdentityInput)
	if err != nil {
		s.metrics.RecordError("recharge", string(errCode(err)))
		return nil, err
	}

	if !in.Amount.IsPositive() {
		s.metrics.RecordError("recharge", string(CodeInvalidAmount))
		return nil, ErrInvalidAmount
	}

	var prior, updated money.Money
	err = s.uow.Do(ctx, func(tx repositories.Stores) error {
		locked, err := tx.Clients.GetByIDForUpdate(ctx, client.ID)
		if err != nil {
			return err
		}
		prior = locked.Balance
		updated = locked.Balance.Add(in.Amount)

		if err := tx.Clients.UpdateBalance(ctx, locked.ID, updated); err != nil {
			return err
		}
		return tx.Transactions.Create(ctx, &models.Transaction{
			ClientID:    locked.ID,
			Type:        models.TransactionTypeRecharge,
			Amount:      in.Amount,
			Description: rechargeDescription,
		})
	})
	if err != nil {
		s.metrics.RecordError("recharge", string(CodeStorageUnavailable))
		return nil, wrapStorage(err)
	}

	s.invalidate(ctx, client)
	s.metrics.RecordTransaction(models.TransactionTypeRecharge, in.Amount)
	log.Printf("ledger: recharge completed - client: %d, new balance: %s", client.ID, updated)

	return &RechargeResult{
		Document:     client.Document,
		Name:         client.Name,
		Amount:       in.Amount,
		PriorBalance: prior,
		NewBalance:   updated,
	}, nil
}

func (s *service) InitiatePayment(ctx context.Context, in PaymentInput) (*PaymentInitiated, error) {
	log.Printf("ledger: payment requested - document: %s, amount: %s", in.Document, in.Amount)

	client, err := s.resolveClient(ctx, in.IdentityInput)
	if err != nil {
		s.metrics.RecordError("initiate_payment", string(errCode(err)))
		return nil, err
	}

	if !in.Amount.IsPositive() {
		s.metrics.RecordError("initiate_payment", string(CodeInvalidAmount))
		return nil, ErrInvalidAmount
	}

	// Advisory check against the current balance. The binding check runs
	// again at confirmation under the row lock.
	if client.Balance.LessThan(in.Amount) {
		log.Printf("ledger: insufficient balance at initiation - client: %d, balance: %s, amount: %s",
			client.ID, client.Balance, in.Amount)
		s.metrics.RecordError("initiate_payment", string(CodeInsufficientBalance))
		return nil, ErrInsufficientBalance
	}

	token, err := generateNumericToken(s.config.TokenLength)
	if err != nil {
		return nil, storageInvariantViolation(err)
	}

	now := s.now()
	session := &models.PaymentSession{
		ID:        s.newSessionID(),
		ClientID:  client.ID,
		Amount:    in.Amount,
		Token:     token,
		ExpiresAt: expiryFrom(now, s.config.TokenTTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.stores.Sessions.Create(ctx, session); err != nil {
		s.metrics.RecordError("initiate_payment", string(CodeStorageUnavailable))
		return nil, storageUnavailable(err)
	}

	// The session id must never reach a caller who cannot receive the
	// token: a failed delivery burns the session before the error returns.
	if err := s.sender.SendPaymentToken(ctx, client, token, in.Amount, session.ID, s.config.TokenTTL); err != nil {
		log.Printf("ledger: token delivery failed for session %s: %v", session.ID, err)
		s.metrics.RecordError("initiate_payment", string(CodeNotificationDeliveryFailed))

		burnErr := s.uow.Do(ctx, func(tx repositories.Stores) error {
			_, markErr := tx.Sessions.MarkUsed(ctx, session.ID)
			return markErr
		})
		if burnErr != nil {
			// A confirmable session whose token was never delivered is an
			// invariant violation; fail loudly.
			log.Printf("ledger: FATAL: failed to burn session %s after delivery failure: %v", session.ID, burnErr)
			return nil, storageInvariantViolation(fmt.Errorf("session %s left confirmable after delivery failure: %w", session.ID, burnErr))
		}
		return nil, notificationDeliveryFailed(err)
	}

	log.Printf("ledger: payment session created - id: %s, expires: %s", session.ID, session.ExpiresAt)
	return &PaymentInitiated{SessionID: session.ID}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, in ConfirmInput) (*PaymentConfirmed, error) {
	log.Printf("ledger: payment confirmation - session: %s", in.SessionID)

	// Steps below are pure reads; the only mutation happens inside the
	// unit of work at the end, where every check is re-validated under the
	// client row lock.
	session, err := s.stores.Sessions.FindByIDAndToken(ctx, in.SessionID, in.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			s.metrics.RecordError("confirm_payment", string(CodeInvalidToken))
			return nil, ErrInvalidToken
		}
		return nil, storageUnavailable(err)
	}

	if session.Used {
		s.metrics.RecordError("confirm_payment", string(CodeSessionAlreadyUsed))
		return nil, ErrSessionAlreadyUsed
	}
	if session.Expired(s.now()) {
		s.metrics.RecordError("confirm_payment", string(CodeSessionExpired))
		return nil, ErrSessionExpired
	}

	client, err := s.stores.Clients.GetByID(ctx, session.ClientID)
	if err != nil {
		if errors.Is(err, repositories.ErrClientNotFound) {
			// A session referencing a missing client should be impossible.
			return nil, storageInvariantViolation(fmt.Errorf("session %s references missing client %d", session.ID, session.ClientID))
		}
		return nil, storageUnavailable(err)
	}

	if client.Balance.LessThan(session.Amount) {
		s.metrics.RecordError("confirm_payment", string(CodeInsufficientBalance))
		return nil, ErrInsufficientBalance
	}

	var prior, updated money.Money
	err = s.uow.Do(ctx, func(tx repositories.Stores) error {
		locked, err := tx.Clients.GetByIDForUpdate(ctx, client.ID)
		if err != nil {
			return err
		}

		// Exactly-once confirmation: the conditional flip fails for every
		// racer but one.
		flipped, err := tx.Sessions.MarkUsed(ctx, session.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrSessionAlreadyUsed
		}

		// Re-check under the lock; a concurrent purchase may have drained
		// the balance since the advisory read.
		if locked.Balance.LessThan(session.Amount) {
			return ErrInsufficientBalance
		}

		prior = locked.Balance
		updated, err = locked.Balance.Sub(session.Amount)
		if err != nil {
			return storageInvariantViolation(err)
		}

		if err := tx.Clients.UpdateBalance(ctx, locked.ID, updated); err != nil {
			return err
		}
		return tx.Transactions.Create(ctx, &models.Transaction{
			ClientID:    locked.ID,
			Type:        models.TransactionTypePurchase,
			Amount:      session.Amount,
			Description: fmt.Sprintf(purchaseDescription, session.ID),
		})
	})
	if err != nil {
		s.metrics.RecordError("confirm_payment", string(errCode(err)))
		return nil, wrapStorage(err)
	}

	s.invalidate(ctx, client)
	s.metrics.RecordTransaction(models.TransactionTypePurchase, session.Amount)
	log.Printf("ledger: payment confirmed - client: %d, amount: %s", client.ID, session.Amount)

	return &PaymentConfirmed{
		Document:     client.Document,
		Name:         client.Name,
		Amount:       session.Amount,
		PriorBalance: prior,
		NewBalance:   updated,
		ConfirmedAt:  s.now(),
	}, nil
}

func (s *service) QueryBalance(ctx context.Context, in IdentityInput) (*BalanceReport, error) {
	log.Printf("ledger: balance query - document: %s", in.Document)

	client, err := s.resolveClient(ctx, in)
	if err != nil {
		s.metrics.RecordError("query_balance", string(errCode(err)))
		return nil, err
	}

	stats, err := s.stores.Transactions.StatsByClient(ctx, client.ID)
	if err != nil {
		s.metrics.RecordError("query_balance", string(CodeStorageUnavailable))
		return nil, storageUnavailable(err)
	}

	return &BalanceReport{
		Document: client.Document,
		Name:     client.Name,
		Email:    client.Email,
		Balance:  client.Balance,
		Statistics: Statistics{
			TotalRecharges: stats.TotalRecharges,
			TotalPurchases: stats.TotalPurchases,
			RechargeCount:  stats.RechargeCount,
			PurchaseCount:  stats.PurchaseCount,
		},
		QueriedAt: s.now(),
	}, nil
}

// errCode extracts the stable code from a ledger error, defaulting to
// storage unavailable for untyped failures.
func errCode(err error) Code {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	return CodeStorageUnavailable
}
