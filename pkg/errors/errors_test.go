package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperr "github.com/example/payment-requests/pkg/errors"
)

func TestIsMatchesByCode(t *testing.T) {
	assertions := assert.New(t)

	sentinel := apperr.New(apperr.Expired, "payment request expired")
	other := apperr.Wrap(apperr.Expired, "request 7 expired", nil)
	wrapped := fmt.Errorf("failed to settle: %w", other)

	assertions.True(stderrors.Is(wrapped, sentinel))
	assertions.False(stderrors.Is(wrapped, apperr.New(apperr.NotPending, "")))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := apperr.Wrap(apperr.StorageError, "failed to load request", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperr.StorageError, apperr.CodeOf(err))
	assert.Equal(t, "internal error", apperr.MessageOf(err))
}

func TestCodeOfUnclassified(t *testing.T) {
	assert.Equal(t, apperr.StorageError, apperr.CodeOf(stderrors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[apperr.Code]int{
		apperr.InvalidInput:        http.StatusBadRequest,
		apperr.InvalidIban:         http.StatusUnprocessableEntity,
		apperr.UnsupportedCurrency: http.StatusUnprocessableEntity,
		apperr.NotFound:            http.StatusBadRequest,
		apperr.NotPending:          http.StatusBadRequest,
		apperr.Expired:             http.StatusBadRequest,
		apperr.AmountMismatch:      http.StatusBadRequest,
		apperr.StorageError:        http.StatusInternalServerError,
	}
	for code, want := range tests {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, want, apperr.HTTPStatus(code))
		})
	}
}
