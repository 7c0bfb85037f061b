package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vwallet/internal/models"

	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a gorm-backed payment session store.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.PaymentSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create payment session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByIDAndToken(ctx context.Context, id, token string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND token = ?", id, token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return &session, nil
}

// MarkUsed is a conditional update: the used flag transitions exactly once.
// A concurrent confirmation that lost the race sees zero rows affected.
func (r *sessionRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark session used: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.PaymentSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *sessionRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("used = ? AND created_at < ?", true, cutoff).
		Delete(&models.PaymentSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete used sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
