// payment-requests/pkg/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and transports.
type Code string

const (
	// input shape
	InvalidInput Code = "INVALID_INPUT"
	// domain validation
	InvalidIban         Code = "INVALID_IBAN"
	UnsupportedCurrency Code = "UNSUPPORTED_CURRENCY"
	// state machine
	NotFound       Code = "NOT_FOUND"
	NotPending     Code = "NOT_PENDING"
	Expired        Code = "EXPIRED"
	AmountMismatch Code = "AMOUNT_MISMATCH"
	// infrastructure
	StorageError Code = "STORAGE_ERROR"
)

type E struct {
	Code    Code
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error { return e.Err }

// Is matches any E carrying the same code, so sentinels survive re-wrapping
// with a different message.
func (e E) Is(target error) bool {
	t, ok := target.(E)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return E{Code: code, Message: msg}
}

func Wrap(code Code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

// As returns the first E in err's chain.
func As(err error) (E, bool) {
	var e E
	if stderrors.As(err, &e) {
		return e, true
	}
	return E{}, false
}

// CodeOf returns the code of err, StorageError for anything unclassified.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return StorageError
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	e, ok := As(err)
	if !ok || e.Code == StorageError {
		return "internal error"
	}
	return e.Message
}

// HTTPStatus maps a code to the status an HTTP adapter should answer with.
func HTTPStatus(code Code) int {
	switch code {
	case InvalidInput, NotFound, NotPending, Expired, AmountMismatch:
		return http.StatusBadRequest
	case InvalidIban, UnsupportedCurrency:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
