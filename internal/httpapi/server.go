// payment-requests/internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/payment-requests/internal/payments"
)

const serviceName = "paymentsd-http"

// Service is the part of payments.Service the HTTP routes drive.
type Service interface {
	CreateRequest(ctx context.Context, in payments.CreateRequestInput) (payments.RequestView, error)
	SubmitAttempt(ctx context.Context, in payments.SubmitAttemptInput) (payments.AttemptView, error)
	Request(ctx context.Context, id int64) (payments.RequestView, error)
	Ping(ctx context.Context) error
}

// NewHandler wires routes, middleware and CORS around svc.
func NewHandler(svc Service) http.Handler {
	h := &handlers{svc: svc}

	r := mux.NewRouter()

	// metrics & health
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	// API
	r.HandleFunc("/payment_requests", h.createRequest).Methods(http.MethodPost)
	r.HandleFunc("/payment_requests/{id}", h.getRequest).Methods(http.MethodGet)
	r.HandleFunc("/payment_attempts", h.submitAttempt).Methods(http.MethodPost)

	return cors.AllowAll().Handler(requestIDMiddleware(metricsMiddleware(r)))
}

// NewServer returns an http.Server for addr with the timeouts the service
// runs with.
func NewServer(addr string, svc Service) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{
		"ok":      true,
		"service": serviceName,
		"ts":      time.Now().UTC(),
	}
	if err := h.svc.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["ok"] = false
		body["error"] = "store unavailable"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
