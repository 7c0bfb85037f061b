package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vwallet/internal/models"
	"vwallet/internal/money"
	"vwallet/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a concurrency-safe in-memory implementation of the three
// stores plus the unit of work. Units of work serialize on uowMu, which
// stands in for the per-client row lock, and roll back by restoring a
// snapshot taken at entry.
type memStore struct {
	mu    sync.Mutex
	uowMu sync.Mutex

	clients  map[uint]*models.Client
	sessions map[string]*models.PaymentSession
	txs      []models.Transaction
	nextID   uint

	failTxCreate      bool
	failBalanceUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		clients:  make(map[uint]*models.Client),
		sessions: make(map[string]*models.PaymentSession),
		nextID:   1,
	}
}

func (m *memStore) addClient(document, name, email, phone, balance string) *models.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Client{
		ID:       m.nextID,
		Document: document,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Balance:  money.MustFromString(balance),
	}
	m.nextID++
	m.clients[c.ID] = c
	return copyClient(c)
}

func copyClient(c *models.Client) *models.Client {
	cp := *c
	return &cp
}

func copySession(s *models.PaymentSession) *models.PaymentSession {
	cp := *s
	return &cp
}

func (m *memStore) snapshot() func() {
	clients := make(map[uint]*models.Client, len(m.clients))
	for id, c := range m.clients {
		clients[id] = copyClient(c)
	}
	sessions := make(map[string]*models.PaymentSession, len(m.sessions))
	for id, s := range m.sessions {
		sessions[id] = copySession(s)
	}
	txs := make([]models.Transaction, len(m.txs))
	copy(txs, m.txs)
	return func() {
		m.clients = clients
		m.sessions = sessions
		m.txs = txs
	}
}

func (m *memStore) stores() repositories.Stores {
	return repositories.Stores{
		Clients:      &memClients{st: m},
		Transactions: &memTxs{st: m},
		Sessions:     &memSessions{st: m},
	}
}

type memClients struct{ st *memStore }

func (r *memClients) Create(_ context.Context, c *models.Client) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c.ID = r.st.nextID
	r.st.nextID++
	r.st.clients[c.ID] = copyClient(c)
	return nil
}

func (r *memClients) GetByID(_ context.Context, id uint) (*models.Client, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.clients[id]
	if !ok {
		return nil, repositories.ErrClientNotFound
	}
	return copyClient(c), nil
}

func (r *memClients) GetByDocumentAndPhone(_ context.Context, document, phone string) (*models.Client, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, c := range r.st.clients {
		if c.Document == document && c.Phone == phone {
			return copyClient(c), nil
		}
	}
	return nil, repositories.ErrClientNotFound
}

func (r *memClients) GetByIDForUpdate(ctx context.Context, id uint) (*models.Client, error) {
	return r.GetByID(ctx, id)
}

func (r *memClients) UpdateBalance(_ context.Context, id uint, balance money.Money) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.failBalanceUpdate {
		return errors.New("injected balance update failure")
	}
	c, ok := r.st.clients[id]
	if !ok {
		return repositories.ErrClientNotFound
	}
	c.Balance = balance
	return nil
}

func (r *memClients) List(_ context.Context) ([]models.Client, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]models.Client, 0, len(r.st.clients))
	for _, c := range r.st.clients {
		out = append(out, *c)
	}
	return out, nil
}

type memTxs struct{ st *memStore }

func (r *memTxs) Create(_ context.Context, tx *models.Transaction) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.failTxCreate {
		return errors.New("injected transaction create failure")
	}
	tx.ID = uint(len(r.st.txs) + 1)
	tx.CreatedAt = time.Now()
	r.st.txs = append(r.st.txs, *tx)
	return nil
}

func (r *memTxs) ListByClient(_ context.Context, clientID uint) ([]models.Transaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Transaction
	for _, tx := range r.st.txs {
		if tx.ClientID == clientID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTxs) StatsByClient(_ context.Context, clientID uint) (*repositories.ClientStats, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stats := &repositories.ClientStats{
		TotalRecharges: money.Zero(),
		TotalPurchases: money.Zero(),
	}
	for _, tx := range r.st.txs {
		if tx.ClientID != clientID {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeRecharge:
			stats.TotalRecharges = stats.TotalRecharges.Add(tx.Amount)
			stats.RechargeCount++
		case models.TransactionTypePurchase:
			stats.TotalPurchases = stats.TotalPurchases.Add(tx.Amount)
			stats.PurchaseCount++
		}
	}
	return stats, nil
}

type memSessions struct{ st *memStore }

func (r *memSessions) Create(_ context.Context, s *models.PaymentSession) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.sessions[s.ID] = copySession(s)
	return nil
}

func (r *memSessions) FindByIDAndToken(_ context.Context, id, token string) (*models.PaymentSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.sessions[id]
	if !ok || s.Token != token {
		return nil, repositories.ErrSessionNotFound
	}
	return copySession(s), nil
}

func (r *memSessions) MarkUsed(_ context.Context, id string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.sessions[id]
	if !ok || s.Used {
		return false, nil
	}
	s.Used = true
	return true, nil
}

func (r *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for id, s := range r.st.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *memSessions) DeleteUsedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for id, s := range r.st.sessions {
		if s.Used && s.CreatedAt.Before(cutoff) {
			delete(r.st.sessions, id)
			n++
		}
	}
	return n, nil
}

type memUnitOfWork struct{ st *memStore }

func (u *memUnitOfWork) Do(_ context.Context, fn func(tx repositories.Stores) error) error {
	u.st.uowMu.Lock()
	defer u.st.uowMu.Unlock()

	u.st.mu.Lock()
	restore := u.st.snapshot()
	u.st.mu.Unlock()

	if err := fn(u.st.stores()); err != nil {
		u.st.mu.Lock()
		restore()
		u.st.mu.Unlock()
		return err
	}
	return nil
}

// fakeSender records deliveries and can be told to fail.
type fakeSender struct {
	mu        sync.Mutex
	failWith  error
	lastToken string
	lastTo    string
	sent      int
}

func (f *fakeSender) SendPaymentToken(_ context.Context, client *models.Client, token string, _ money.Money, _ string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.lastToken = token
	f.lastTo = client.Email
	f.sent++
	return nil
}

type fixture struct {
	st     *memStore
	sender *fakeSender
	svc    *service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	sender := &fakeSender{}
	svc := NewService(&memUnitOfWork{st: st}, st.stores(), nil, sender, Config{}, nil).(*service)
	return &fixture{st: st, sender: sender, svc: svc}
}

func (f *fixture) balance(t *testing.T, id uint) money.Money {
	t.Helper()
	c, err := f.st.stores().Clients.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c.Balance
}

func identity(document, phone string) IdentityInput {
	return IdentityInput{Document: document, Phone: phone}
}

func TestRecharge(t *testing.T) {
	ctx := context.Background()

	t.Run("successful recharge", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "100000")

		res, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("50000"),
		})
		require.NoError(t, err)
		assert.Equal(t, "100000", res.PriorBalance.String())
		assert.Equal(t, "150000", res.NewBalance.String())
		assert.Equal(t, "Juan Perez", res.Name)
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("150000")))

		txs, err := f.st.stores().Transactions.ListByClient(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TransactionTypeRecharge, txs[0].Type)
		assert.Equal(t, "50000", txs[0].Amount.String())
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "0")

		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.Zero(),
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.True(t, f.balance(t, c.ID).IsZero())

		txs, err := f.st.stores().Transactions.ListByClient(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("unknown document and phone pair", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "0")

		// Document exists but the phone belongs to nobody: both fields
		// must match the same row.
		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3999999999"),
			Amount:        money.MustFromString("10"),
		})
		assert.ErrorIs(t, err, ErrClientIdentityMismatch)
	})

	t.Run("failed transaction append rolls back the balance", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "100000")
		f.st.failTxCreate = true

		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("50000"),
		})
		require.Error(t, err)
		assert.Equal(t, CodeStorageUnavailable, errCode(err))
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("100000")))
	})
}

func TestInitiatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session without touching the balance", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")

		res, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("30000"),
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.SessionID)

		// Token travels only through the notification channel.
		assert.Len(t, f.sender.lastToken, DefaultTokenLength)
		assert.Equal(t, "juan.perez@example.com", f.sender.lastTo)
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("150000")))

		session, err := f.st.stores().Sessions.FindByIDAndToken(ctx, res.SessionID, f.sender.lastToken)
		require.NoError(t, err)
		assert.False(t, session.Used)
		assert.Equal(t, "30000", session.Amount.String())
	})

	t.Run("insufficient balance creates no session", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "100")

		_, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("100.01"),
		})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Empty(t, f.st.sessions)
		assert.Zero(t, f.sender.sent)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "100")

		_, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.Zero(),
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("failed delivery burns the session", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")
		f.sender.failWith = errors.New("smtp connection refused")

		_, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("30000"),
		})
		require.Error(t, err)
		assert.Equal(t, CodeNotificationDeliveryFailed, errCode(err))

		// The session exists but is dead: never confirmable.
		require.Len(t, f.st.sessions, 1)
		for _, s := range f.st.sessions {
			assert.True(t, s.Used)
		}
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	// initiate starts a payment and returns the session id and the token
	// captured from the notification channel.
	initiate := func(t *testing.T, f *fixture, amount string) (string, string) {
		t.Helper()
		res, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString(amount),
		})
		require.NoError(t, err)
		return res.SessionID, f.sender.lastToken
	}

	t.Run("full recharge then purchase scenario", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "100000")

		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("50000"),
		})
		require.NoError(t, err)
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("150000")))

		sessionID, token := initiate(t, f, "30000")
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("150000")), "balance unchanged until confirmation")

		res, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		require.NoError(t, err)
		assert.Equal(t, "150000", res.PriorBalance.String())
		assert.Equal(t, "120000", res.NewBalance.String())
		assert.Equal(t, "30000", res.Amount.String())
		assert.False(t, res.ConfirmedAt.IsZero())
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("120000")))

		stats, err := f.st.stores().Transactions.StatsByClient(ctx, c.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.RechargeCount)
		assert.EqualValues(t, 1, stats.PurchaseCount)
		assert.Equal(t, "30000", stats.TotalPurchases.String())

		assert.True(t, f.st.sessions[sessionID].Used)
	})

	t.Run("wrong token is indistinguishable from unknown session", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")
		sessionID, token := initiate(t, f, "30000")

		wrong := "000000"
		if wrong == token {
			wrong = "000001"
		}
		_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: wrong})
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: "no-such-session", Token: token})
		assert.ErrorIs(t, err, ErrInvalidToken)

		// The failed attempts did not consume the session.
		_, err = f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		assert.NoError(t, err)
	})

	t.Run("second confirmation fails with session already used", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")
		sessionID, token := initiate(t, f, "30000")

		_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		assert.ErrorIs(t, err, ErrSessionAlreadyUsed)
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("120000")), "debited exactly once")
	})

	t.Run("expired session rejected even with a correct unused token", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")
		sessionID, token := initiate(t, f, "30000")

		f.svc.now = func() time.Time { return time.Now().Add(DefaultTokenTTL + time.Minute) }

		_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, f.st.sessions[sessionID].Used, "rejection does not mutate the session")
	})

	t.Run("balance drained after initiation fails the re-check", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "50000")
		sessionID, token := initiate(t, f, "30000")

		// A second purchase consumes most of the balance first.
		otherID, otherToken := initiate(t, f, "40000")
		_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: otherID, Token: otherToken})
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.False(t, f.st.sessions[sessionID].Used, "rejected session stays confirmable")
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("10000")))
	})

	t.Run("concurrent confirmations succeed exactly once", func(t *testing.T) {
		f := newFixture(t)
		c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "150000")
		sessionID, token := initiate(t, f, "30000")

		const racers = 8
		results := make(chan error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: sessionID, Token: token})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var successes, alreadyUsed int
		for err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSessionAlreadyUsed):
				alreadyUsed++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, racers-1, alreadyUsed)
		assert.True(t, f.balance(t, c.ID).Equal(money.MustFromString("120000")), "debited exactly once")
	})
}

func TestLedgerReconciliation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "0")

	for _, amount := range []string{"100000", "50000", "2500.75"} {
		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString(amount),
		})
		require.NoError(t, err)
	}
	for _, amount := range []string{"30000", "999.25"} {
		res, err := f.svc.InitiatePayment(ctx, PaymentInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString(amount),
		})
		require.NoError(t, err)
		_, err = f.svc.ConfirmPayment(ctx, ConfirmInput{SessionID: res.SessionID, Token: f.sender.lastToken})
		require.NoError(t, err)
	}

	stats, err := f.st.stores().Transactions.StatsByClient(ctx, c.ID)
	require.NoError(t, err)

	expected, err := stats.TotalRecharges.Sub(stats.TotalPurchases)
	require.NoError(t, err)
	balance := f.balance(t, c.ID)
	assert.True(t, balance.Equal(expected),
		"sum(RECHARGE) - sum(PURCHASE) = %s, balance = %s", expected, balance)
	assert.True(t, balance.GreaterOrEqual(money.Zero()))
}

func TestQueryBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("returns balance and statistics", func(t *testing.T) {
		f := newFixture(t)
		f.st.addClient("1134854312", "Juan Perez", "juan.perez@example.com", "3001234567", "0")

		_, err := f.svc.Recharge(ctx, RechargeInput{
			IdentityInput: identity("1134854312", "3001234567"),
			Amount:        money.MustFromString("100000"),
		})
		require.NoError(t, err)

		report, err := f.svc.QueryBalance(ctx, identity("1134854312", "3001234567"))
		require.NoError(t, err)
		assert.Equal(t, "100000", report.Balance.String())
		assert.Equal(t, "juan.perez@example.com", report.Email)
		assert.EqualValues(t, 1, report.Statistics.RechargeCount)
		assert.Equal(t, "100000", report.Statistics.TotalRecharges.String())
		assert.EqualValues(t, 0, report.Statistics.PurchaseCount)
		assert.False(t, report.QueriedAt.IsZero())
	})

	t.Run("unknown identity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.QueryBalance(ctx, identity("0000000000", "3000000000"))
		assert.ErrorIs(t, err, ErrClientIdentityMismatch)
	})
}
