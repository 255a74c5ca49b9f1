// Package sqlite is the single-file payments.Store, on mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
)

//go:embed schema.sql
var schema string

// Times are stored as fixed-width UTC text so that SQL string comparison
// orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" keeps it
// in process.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer; also serializes the compare-and-swap transitions
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	return &Store{db: db}, nil
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) InsertRequest(ctx context.Context, req payments.PaymentRequest) (payments.PaymentRequest, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_requests (requester_account_number, request_amount, currency, request_time, status)
		VALUES (?, ?, ?, ?, ?)`,
		req.RequesterAccount, req.Amount.StringFixed(2), req.Currency, formatTime(req.CreatedAt), string(req.Status))
	if err != nil {
		return req, fmt.Errorf("failed to insert payment request: %w", err)
	}
	req.ID, err = res.LastInsertId()
	if err != nil {
		return req, fmt.Errorf("failed to read payment request id: %w", err)
	}
	return req, nil
}

func (s *Store) Request(ctx context.Context, id int64) (payments.PaymentRequest, error) {
	var (
		req       payments.PaymentRequest
		createdAt string
		status    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT request_id, requester_account_number, request_amount, currency, request_time, status
		FROM payment_requests WHERE request_id = ?`, id).
		Scan(&req.ID, &req.RequesterAccount, &req.Amount, &req.Currency, &createdAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return req, payments.ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("failed to load payment request %d: %w", id, err)
	}
	req.Status = payments.Status(status)
	req.CreatedAt, err = parseTime(createdAt)
	return req, err
}

func (s *Store) TransitionRequest(ctx context.Context, id int64, status payments.Status) error {
	return transition(ctx, s.db, id, status)
}

func (s *Store) ExecuteRequest(ctx context.Context, id int64, payment payments.Payment) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = transition(ctx, tx, id, payments.StatusExecuted); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (payment_id, payment_request_id, payer_account_number, payment_amount, currency, payment_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), id, payment.PayerAccount, payment.Amount.StringFixed(2), payment.Currency, formatTime(payment.ExecutedAt))
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func transition(ctx context.Context, db execer, id int64, status payments.Status) error {
	res, err := db.ExecContext(ctx,
		`UPDATE payment_requests SET status = ? WHERE request_id = ? AND status = 'pending'`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update payment request %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return payments.ErrNotPending
	}
	return nil
}

func (s *Store) PaymentByRequest(ctx context.Context, requestID int64) (payments.Payment, error) {
	var (
		payment    payments.Payment
		executedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT payment_id, payment_request_id, payer_account_number, payment_amount, currency, payment_time
		FROM payments WHERE payment_request_id = ?`, requestID).
		Scan(&payment.ID, &payment.RequestID, &payment.PayerAccount, &payment.Amount, &payment.Currency, &executedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return payment, payments.ErrNotFound
	}
	if err != nil {
		return payment, fmt.Errorf("failed to load payment for request %d: %w", requestID, err)
	}
	payment.ExecutedAt, err = parseTime(executedAt)
	return payment, err
}

func (s *Store) ExpireRequests(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE payment_requests SET status = 'expired'
		WHERE status = 'pending' AND request_time < ?
		RETURNING request_id`, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to expire payment requests: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) UpsertPerson(ctx context.Context, person payments.Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (account_number, name) VALUES (?, ?)
		ON CONFLICT (account_number) DO UPDATE SET name = excluded.name`,
		person.AccountNumber, person.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert person: %w", err)
	}
	return nil
}

func (s *Store) Person(ctx context.Context, account string) (payments.Person, error) {
	person := payments.Person{AccountNumber: account}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM persons WHERE account_number = ?`, account).Scan(&person.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return person, payments.ErrNotFound
	}
	if err != nil {
		return person, fmt.Errorf("failed to load person: %w", err)
	}
	return person, nil
}

func (s *Store) CurrencyRate(ctx context.Context, code string) (rates.Rate, error) {
	rate := rates.Rate{Currency: code}
	err := s.db.QueryRowContext(ctx, `SELECT conversion_rate FROM currency WHERE currency = ?`, code).Scan(&rate.ConversionRate)
	if errors.Is(err, sql.ErrNoRows) {
		return rate, rates.ErrUnknownCurrency
	}
	if err != nil {
		return rate, fmt.Errorf("failed to load conversion rate of %s: %w", code, err)
	}
	return rate, nil
}

func (s *Store) UpsertCurrencyRate(ctx context.Context, rate rates.Rate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO currency (currency, conversion_rate) VALUES (?, ?)
		ON CONFLICT (currency) DO UPDATE SET conversion_rate = excluded.conversion_rate`,
		rate.Currency, rate.ConversionRate.String())
	if err != nil {
		return fmt.Errorf("failed to upsert conversion rate of %s: %w", rate.Currency, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return t, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}
