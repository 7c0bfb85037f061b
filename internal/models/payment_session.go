package models

import (
	"time"

	"vwallet/internal/money"
)

// PaymentSession is a short-lived purchase session. The amount is frozen
// at creation and the used flag only ever moves false to true: either on
// a successful confirmation or when the session is burned after a failed
// token delivery.
type PaymentSession struct {
	ID        string      `gorm:"primarykey;type:uuid" json:"id"`
	ClientID  uint        `gorm:"not null;index" json:"client_id"`
	Amount    money.Money `gorm:"type:numeric(19,2);not null" json:"amount"`
	Token     string      `gorm:"not null" json:"-"`
	ExpiresAt time.Time   `gorm:"not null;index" json:"expires_at"`
	Used      bool        `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time   `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given
// instant. Expiry is a read-only check, not a stored transition.
func (s *PaymentSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
