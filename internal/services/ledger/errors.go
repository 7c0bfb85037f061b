package ledger

import "fmt"

// Code is a stable, caller-visible error code. Handlers map codes to HTTP
// statuses; the service never leaks driver or transport detail.
type Code string

const (
	CodeClientIdentityMismatch     Code = "CLIENT_IDENTITY_MISMATCH"
	CodeInvalidAmount              Code = "INVALID_AMOUNT"
	CodeInsufficientBalance        Code = "INSUFFICIENT_BALANCE"
	CodeInvalidToken               Code = "INVALID_TOKEN"
	CodeSessionAlreadyUsed         Code = "SESSION_ALREADY_USED"
	CodeSessionExpired             Code = "SESSION_EXPIRED"
	CodeNotificationDeliveryFailed Code = "NOTIFICATION_DELIVERY_FAILED"
	CodeStorageUnavailable         Code = "STORAGE_UNAVAILABLE"
	CodeStorageInvariantViolation  Code = "STORAGE_INVARIANT_VIOLATION"
)

// Error is a typed ledger failure. Business-rule rejections are definitive
// and are never retried by the service.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two ledger errors by code, so errors.Is works against the
// sentinel values below regardless of wrapped causes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for the business-rule taxonomy. Use with errors.Is.
var (
	ErrClientIdentityMismatch = &Error{Code: CodeClientIdentityMismatch, Message: "document and phone do not match a registered client"}
	ErrInvalidAmount          = &Error{Code: CodeInvalidAmount, Message: "amount must be greater than zero"}
	ErrInsufficientBalance    = &Error{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrInvalidToken           = &Error{Code: CodeInvalidToken, Message: "session id and token do not match"}
	ErrSessionAlreadyUsed     = &Error{Code: CodeSessionAlreadyUsed, Message: "payment session already used"}
	ErrSessionExpired         = &Error{Code: CodeSessionExpired, Message: "payment session expired"}
)

func notificationDeliveryFailed(cause error) *Error {
	return &Error{Code: CodeNotificationDeliveryFailed, Message: "failed to deliver confirmation token", cause: cause}
}

func storageUnavailable(cause error) *Error {
	return &Error{Code: CodeStorageUnavailable, Message: "storage unavailable", cause: cause}
}

func storageInvariantViolation(cause error) *Error {
	return &Error{Code: CodeStorageInvariantViolation, Message: "storage invariant violation", cause: cause}
}
