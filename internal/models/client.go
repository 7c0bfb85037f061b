package models

import (
	"time"

	"vwallet/internal/money"

	"gorm.io/gorm"
)

// Client is the single source of truth for a wallet balance. Identity is
// asserted by the (document, phone) pair on every wallet operation.
type Client struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	Document  string      `gorm:"uniqueIndex;not null" json:"document"`
	Name      string      `gorm:"not null" json:"name"`
	Email     string      `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string      `gorm:"not null;index" json:"phone"`
	Balance   money.Money `gorm:"type:numeric(19,2);not null;default:0" json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// BeforeCreate forces a zero starting balance regardless of what the
// caller populated. Balance is mutated only through the ledger service.
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	c.Balance = money.Zero()
	return nil
}
