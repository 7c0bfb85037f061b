package models

import (
	"time"

	"vwallet/internal/money"
)

// Transaction types. The amount is always positive; its effect on the
// balance is implied by the type.
const (
	TransactionTypeRecharge = "RECHARGE"
	TransactionTypePurchase = "PURCHASE"
)

// Transaction is an append-only ledger entry. Rows are never updated or
// deleted; statistics are recomputed from them on demand.
type Transaction struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	ClientID    uint        `gorm:"not null;index" json:"client_id"`
	Type        string      `gorm:"not null" json:"type"`
	Amount      money.Money `gorm:"type:numeric(19,2);not null" json:"amount"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}
