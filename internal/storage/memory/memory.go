// Package memory is a process-local payments.Store. It serializes every
// operation behind one mutex, which gives the same compare-and-swap
// guarantees as the SQL backends.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]payments.PaymentRequest
	payments map[int64]payments.Payment
	persons  map[string]string
	rates    map[string]rates.Rate
}

func New() *Store {
	return &Store{
		requests: map[int64]payments.PaymentRequest{},
		payments: map[int64]payments.Payment{},
		persons:  map[string]string{},
		rates:    map[string]rates.Rate{},
	}
}

func (s *Store) InsertRequest(_ context.Context, req payments.PaymentRequest) (payments.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	s.requests[req.ID] = req
	return req, nil
}

func (s *Store) Request(_ context.Context, id int64) (payments.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return payments.PaymentRequest{}, payments.ErrNotFound
	}
	return req, nil
}

func (s *Store) TransitionRequest(_ context.Context, id int64, status payments.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(id, status)
}

func (s *Store) ExecuteRequest(_ context.Context, id int64, payment payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(id, payments.StatusExecuted); err != nil {
		return err
	}
	s.payments[id] = payment
	return nil
}

// transition must be called with mu held.
func (s *Store) transition(id int64, status payments.Status) error {
	req, ok := s.requests[id]
	if !ok || req.Status != payments.StatusPending {
		return payments.ErrNotPending
	}
	req.Status = status
	s.requests[id] = req
	return nil
}

func (s *Store) PaymentByRequest(_ context.Context, requestID int64) (payments.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[requestID]
	if !ok {
		return payments.Payment{}, payments.ErrNotFound
	}
	return payment, nil
}

func (s *Store) ExpireRequests(_ context.Context, cutoff time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, req := range s.requests {
		if req.Status == payments.StatusPending && req.CreatedAt.Before(cutoff) {
			req.Status = payments.StatusExpired
			s.requests[id] = req
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) UpsertPerson(_ context.Context, person payments.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[person.AccountNumber] = person.Name
	return nil
}

func (s *Store) Person(_ context.Context, account string) (payments.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.persons[account]
	if !ok {
		return payments.Person{}, payments.ErrNotFound
	}
	return payments.Person{AccountNumber: account, Name: name}, nil
}

func (s *Store) CurrencyRate(_ context.Context, code string) (rates.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate, ok := s.rates[code]
	if !ok {
		return rates.Rate{}, rates.ErrUnknownCurrency
	}
	return rate, nil
}

func (s *Store) UpsertCurrencyRate(_ context.Context, rate rates.Rate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[rate.Currency] = rate
	return nil
}

// Migrate has nothing to create.
func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
