package client

import (
	"context"
	"sync"
	"testing"

	"vwallet/internal/models"
	"vwallet/internal/money"
	"vwallet/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientRepo struct {
	mu      sync.Mutex
	clients []models.Client
	nextID  uint
}

func (f *fakeClientRepo) Create(_ context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.clients {
		if existing.Document == c.Document || existing.Email == c.Email {
			return repositories.ErrDuplicateKey
		}
	}
	f.nextID++
	c.ID = f.nextID
	c.Balance = money.Zero()
	f.clients = append(f.clients, *c)
	return nil
}

func (f *fakeClientRepo) GetByID(context.Context, uint) (*models.Client, error) {
	return nil, repositories.ErrClientNotFound
}

func (f *fakeClientRepo) GetByDocumentAndPhone(context.Context, string, string) (*models.Client, error) {
	return nil, repositories.ErrClientNotFound
}

func (f *fakeClientRepo) GetByIDForUpdate(context.Context, uint) (*models.Client, error) {
	return nil, repositories.ErrClientNotFound
}

func (f *fakeClientRepo) UpdateBalance(context.Context, uint, money.Money) error { return nil }

func (f *fakeClientRepo) List(context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Client, len(f.clients))
	copy(out, f.clients)
	return out, nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeClientRepo{})

	created, err := svc.Register(ctx, RegisterInput{
		Document: "1134854312",
		Name:     "Juan Perez",
		Email:    "juan.perez@example.com",
		Phone:    "3001234567",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Balance.IsZero(), "registration starts at zero balance")

	t.Run("duplicate document", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Document: "1134854312",
			Name:     "Someone Else",
			Email:    "someone.else@example.com",
			Phone:    "3009999999",
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Document: "9999999999",
			Name:     "Someone Else",
			Email:    "juan.perez@example.com",
			Phone:    "3009999999",
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	clients, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}
