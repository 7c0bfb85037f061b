package handlers

import (
	"vwallet/internal/money"
	"vwallet/internal/services/ledger"
	"vwallet/internal/utils"
	"vwallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler shapes ledger requests and responses. All business rules
// live in the ledger service.
type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(svc ledger.Service) *WalletHandler {
	return &WalletHandler{ledger: svc}
}

type identityRequest struct {
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

type amountRequest struct {
	identityRequest
	Amount float64 `json:"amount"`
}

func (h *WalletHandler) Recharge(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "BAD_REQUEST", "invalid request format")
	}

	amount, merr := money.FromFloat(req.Amount)
	if merr != nil {
		return response.BadRequest(c, string(ledger.CodeInvalidAmount), "invalid amount")
	}

	result, err := h.ledger.Recharge(c.Context(), ledger.RechargeInput{
		IdentityInput: ledger.IdentityInput{Document: req.Document, Phone: req.Phone},
		Amount:        amount,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return response.Success(c, result)
}

func (h *WalletHandler) InitiatePayment(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "BAD_REQUEST", "invalid request format")
	}

	amount, merr := money.FromFloat(req.Amount)
	if merr != nil {
		return response.BadRequest(c, string(ledger.CodeInvalidAmount), "invalid amount")
	}

	result, err := h.ledger.InitiatePayment(c.Context(), ledger.PaymentInput{
		IdentityInput: ledger.IdentityInput{Document: req.Document, Phone: req.Phone},
		Amount:        amount,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return response.Success(c, result)
}

func (h *WalletHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "BAD_REQUEST", "invalid request format")
	}

	result, err := h.ledger.ConfirmPayment(c.Context(), ledger.ConfirmInput{
		SessionID: req.SessionID,
		Token:     req.Token,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return response.Success(c, result)
}

func (h *WalletHandler) QueryBalance(c *fiber.Ctx) error {
	var req identityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "BAD_REQUEST", "invalid request format")
	}

	report, err := h.ledger.QueryBalance(c.Context(), ledger.IdentityInput{
		Document: req.Document,
		Phone:    req.Phone,
	})
	if err != nil {
		return ledgerError(c, err)
	}

	// Masking is a privacy policy of the query path, applied here at the
	// boundary rather than inside the ledger.
	report.Email = utils.MaskEmail(report.Email)
	return response.Success(c, report)
}
