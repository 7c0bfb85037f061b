package repositories

import (
	"context"

	"gorm.io/gorm"
)

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates the atomic unit of work over a gorm handle.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

// NewStores binds all repositories to the same database handle.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Clients:      NewClientRepository(db),
		Transactions: NewTransactionRepository(db),
		Sessions:     NewSessionRepository(db),
	}
}

// Do runs fn inside one database transaction. The stores handed to fn are
// bound to that transaction, so every operation through them commits or
// rolls back together. Nested Do calls reuse the outer transaction via
// savepoints instead of opening an independent one.
func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx))
	})
}
