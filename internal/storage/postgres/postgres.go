// Package postgres is the payments.Store for PostgreSQL, on a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool on databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

// Truncate empties every table and restarts the request id sequence.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE payments, payment_requests, persons, currency RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) InsertRequest(ctx context.Context, req payments.PaymentRequest) (payments.PaymentRequest, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO payment_requests (requester_account_number, request_amount, currency, request_time, status)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING request_id`,
		req.RequesterAccount, req.Amount.StringFixed(2), req.Currency, req.CreatedAt.UTC(), string(req.Status)).
		Scan(&req.ID)
	if err != nil {
		return req, fmt.Errorf("failed to insert payment request: %w", err)
	}
	return req, nil
}

func (s *Store) Request(ctx context.Context, id int64) (payments.PaymentRequest, error) {
	var (
		req    payments.PaymentRequest
		amount string
		status string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT request_id, requester_account_number, request_amount::text, currency, request_time, status
		FROM payment_requests WHERE request_id = $1`, id).
		Scan(&req.ID, &req.RequesterAccount, &amount, &req.Currency, &req.CreatedAt, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return req, payments.ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("failed to load payment request %d: %w", id, err)
	}
	req.Status = payments.Status(status)
	req.CreatedAt = req.CreatedAt.UTC()
	req.Amount, err = decimal.NewFromString(amount)
	return req, err
}

func (s *Store) TransitionRequest(ctx context.Context, id int64, status payments.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE payment_requests SET status = $1 WHERE request_id = $2 AND status = 'pending'`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update payment request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payments.ErrNotPending
	}
	return nil
}

func (s *Store) ExecuteRequest(ctx context.Context, id int64, payment payments.Payment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payment_requests SET status = 'executed' WHERE request_id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to update payment request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payments.ErrNotPending
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (payment_id, payment_request_id, payer_account_number, payment_amount, currency, payment_time)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6)`,
		payment.ID.String(), id, payment.PayerAccount, payment.Amount.StringFixed(2), payment.Currency, payment.ExecutedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}

func (s *Store) PaymentByRequest(ctx context.Context, requestID int64) (payments.Payment, error) {
	var (
		payment payments.Payment
		id      string
		amount  string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT payment_id::text, payment_request_id, payer_account_number, payment_amount::text, currency, payment_time
		FROM payments WHERE payment_request_id = $1`, requestID).
		Scan(&id, &payment.RequestID, &payment.PayerAccount, &amount, &payment.Currency, &payment.ExecutedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return payment, payments.ErrNotFound
	}
	if err != nil {
		return payment, fmt.Errorf("failed to load payment for request %d: %w", requestID, err)
	}
	if payment.ID, err = uuid.Parse(id); err != nil {
		return payment, fmt.Errorf("failed to parse payment id: %w", err)
	}
	if payment.Amount, err = decimal.NewFromString(amount); err != nil {
		return payment, fmt.Errorf("failed to parse payment amount: %w", err)
	}
	payment.ExecutedAt = payment.ExecutedAt.UTC()
	return payment, nil
}

func (s *Store) ExpireRequests(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE payment_requests SET status = 'expired'
		WHERE status = 'pending' AND request_time < $1
		RETURNING request_id`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) UpsertPerson(ctx context.Context, person payments.Person) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO persons (account_number, name) VALUES ($1, $2)
		ON CONFLICT (account_number) DO UPDATE SET name = EXCLUDED.name`,
		person.AccountNumber, person.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert person: %w", err)
	}
	return nil
}

func (s *Store) Person(ctx context.Context, account string) (payments.Person, error) {
	person := payments.Person{AccountNumber: account}
	err := s.pool.QueryRow(ctx, `SELECT name FROM persons WHERE account_number = $1`, account).Scan(&person.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return person, payments.ErrNotFound
	}
	if err != nil {
		return person, fmt.Errorf("failed to load person: %w", err)
	}
	return person, nil
}

func (s *Store) CurrencyRate(ctx context.Context, code string) (rates.Rate, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT conversion_rate::text FROM currency WHERE currency = $1`, code).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return rates.Rate{}, rates.ErrUnknownCurrency
	}
	if err != nil {
		return rates.Rate{}, fmt.Errorf("failed to load conversion rate of %s: %w", code, err)
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return rates.Rate{}, fmt.Errorf("failed to parse conversion rate of %s: %w", code, err)
	}
	return rates.Rate{Currency: code, ConversionRate: rate}, nil
}

func (s *Store) UpsertCurrencyRate(ctx context.Context, rate rates.Rate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO currency (currency, conversion_rate) VALUES ($1, $2::numeric)
		ON CONFLICT (currency) DO UPDATE SET conversion_rate = EXCLUDED.conversion_rate`,
		rate.Currency, rate.ConversionRate.String())
	if err != nil {
		return fmt.Errorf("failed to upsert conversion rate of %s: %w", rate.Currency, err)
	}
	return nil
}
