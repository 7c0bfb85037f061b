package repositories

import (
	"context"
	"errors"
	"fmt"

	"vwallet/internal/models"
	"vwallet/internal/money"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a gorm-backed client repository.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: document or email already registered", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) GetByDocumentAndPhone(ctx context.Context, document, phone string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("document = ? AND phone = ?", document, phone).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&client, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to lock client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) UpdateBalance(ctx context.Context, id uint, balance money.Money) error {
	result := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return fmt.Errorf("failed to update balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *clientRepository) List(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
