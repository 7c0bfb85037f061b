package ledger

import "time"

// Default configuration values.
const (
	DefaultTokenTTL    = 15 * time.Minute
	DefaultTokenLength = 6
)

// Transaction descriptions recorded in the ledger.
const (
	rechargeDescription = "Wallet recharge"
	purchaseDescription = "Payment confirmed with token - session %s"
)
