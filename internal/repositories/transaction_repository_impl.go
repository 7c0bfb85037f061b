package repositories

import (
	"context"
	"fmt"

	"vwallet/internal/models"
	"vwallet/internal/money"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed transaction log.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListByClient(ctx context.Context, clientID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) StatsByClient(ctx context.Context, clientID uint) (*ClientStats, error) {
	recharges, rechargeCount, err := r.sumByType(ctx, clientID, models.TransactionTypeRecharge)
	if err != nil {
		return nil, err
	}
	purchases, purchaseCount, err := r.sumByType(ctx, clientID, models.TransactionTypePurchase)
	if err != nil {
		return nil, err
	}
	return &ClientStats{
		TotalRecharges: recharges,
		TotalPurchases: purchases,
		RechargeCount:  rechargeCount,
		PurchaseCount:  purchaseCount,
	}, nil
}

func (r *transactionRepository) sumByType(ctx context.Context, clientID uint, txType string) (money.Money, int64, error) {
	var row struct {
		Total money.Money
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("client_id = ? AND type = ?", clientID, txType).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return money.Zero(), 0, fmt.Errorf("failed to aggregate %s transactions: %w", txType, err)
	}
	return row.Total, row.Count, nil
}
