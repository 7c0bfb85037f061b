package handlers

import (
	"errors"

	"vwallet/internal/services/ledger"
	"vwallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ledgerError maps a typed ledger failure onto an HTTP response with its
// stable code. Infrastructure failures never leak internal detail.
func ledgerError(c *fiber.Ctx, err error) error {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		return response.ServerError(c, string(ledger.CodeStorageUnavailable), "internal error")
	}

	switch lerr.Code {
	case ledger.CodeClientIdentityMismatch,
		ledger.CodeInvalidAmount,
		ledger.CodeInsufficientBalance,
		ledger.CodeInvalidToken,
		ledger.CodeSessionAlreadyUsed,
		ledger.CodeSessionExpired:
		return response.BadRequest(c, string(lerr.Code), lerr.Message)
	default:
		return response.ServerError(c, string(lerr.Code), lerr.Message)
	}
}
