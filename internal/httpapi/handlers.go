// payment-requests/internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperr "github.com/example/payment-requests/pkg/errors"
)

const maxBodyBytes = 1 << 20

var errInvalidInput = apperr.New(apperr.InvalidInput, "Invalid input")

type handlers struct {
	svc Service
}

func (h *handlers) createRequest(w http.ResponseWriter, r *http.Request) {
	var in PaymentRequestIn
	if !decode(w, r, &in) {
		return
	}
	input, ok := in.input()
	if !ok {
		writeError(w, r, errInvalidInput)
		return
	}

	view, err := h.svc.CreateRequest(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentRequestOut{Status: "Payment request received", Received: view})
}

func (h *handlers) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, errInvalidInput)
		return
	}

	view, err := h.svc.Request(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var in PaymentAttemptIn
	if !decode(w, r, &in) {
		return
	}
	input, ok := in.input()
	if !ok {
		writeError(w, r, errInvalidInput)
		return
	}

	view, err := h.svc.SubmitAttempt(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentAttemptOut{Status: "Payment attempt succeeded", Received: view})
}

// decode reads one JSON object into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, r, errInvalidInput)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorOut{Status: apperr.MessageOf(err), Code: string(code)})
}
