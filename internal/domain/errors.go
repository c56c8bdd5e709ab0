package domain

import "errors"

// Kind classifies an expected business failure. Anything that is not a
// *Error is treated as an infrastructure failure (KindInternal).
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "internal"
	}
}

// Error is a typed business error. Sentinels below are compared with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidAmount     = newError(KindValidation, "ledger/invalid-amount", "invalid amount")
	ErrInvalidRole       = newError(KindValidation, "account/invalid-role", "invalid role")
	ErrInvalidStatus     = newError(KindValidation, "request/invalid-status", "invalid status")
	ErrInvalidEntryType  = newError(KindValidation, "ledger/invalid-entry-type", "invalid entry type")
	ErrInvalidInput      = newError(KindValidation, "request/invalid-input", "invalid input")
	ErrSelfTransfer      = newError(KindValidation, "transfer/self-transfer", "cannot transfer to own account")
	ErrNotAnAgent        = newError(KindValidation, "deposit/not-an-agent", "deposits can only be credited to agent accounts")
	ErrAccountNotFound   = newError(KindNotFound, "account/not-found", "account not found")
	ErrRecipientNotFound = newError(KindNotFound, "transfer/recipient-not-found", "recipient not found")
	ErrEntryNotFound     = newError(KindNotFound, "ledger/entry-not-found", "ledger entry not found")
	ErrDuplicatePhone    = newError(KindConflict, "account/duplicate-phone", "phone number already registered")
	ErrInvalidTransition = newError(KindConflict, "ledger/invalid-transition", "invalid ledger status transition")
	ErrUnauthorized      = newError(KindUnauthorized, "auth/unauthorized", "unauthorized")
	ErrBadPassword       = newError(KindUnauthorized, "auth/invalid-password", "invalid password")
	ErrForbidden         = newError(KindForbidden, "auth/insufficient-permissions", "insufficient permissions")
	ErrInsufficientFunds = newError(KindInsufficientFunds, "transfer/insufficient-funds", "insufficient balance")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
