// Package rates is the currency rate table: conversion rates of every
// supported currency relative to one fixed base unit.
package rates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperr "github.com/example/payment-requests/pkg/errors"
)

// ErrUnknownCurrency is returned by sources when no row exists for a code.
var ErrUnknownCurrency = apperr.New(apperr.UnsupportedCurrency, "Unsupported currency")

// Rate is one row of the table: units of Currency per one base unit.
type Rate struct {
	Currency       string
	ConversionRate decimal.Decimal
}

type Source interface {
	CurrencyRate(ctx context.Context, code string) (Rate, error)
}

type Writer interface {
	UpsertCurrencyRate(ctx context.Context, rate Rate) error
}

// Cache is an optional read-through layer in front of the Source.
type Cache interface {
	Get(ctx context.Context, code string) (rate decimal.Decimal, found bool, err error)
	Set(ctx context.Context, code string, rate decimal.Decimal, ttl time.Duration) error
}

type Config struct {
	// Backing store holding the currency rows
	Source Source
	// Optional cache, nil disables caching
	Cache Cache
	// Lifetime of cached entries
	TTL time.Duration
}

type Table struct {
	source Source
	cache  Cache
	ttl    time.Duration
}

func New(config Config) *Table {
	return &Table{
		source: config.Source,
		cache:  config.Cache,
		ttl:    config.TTL,
	}
}

// RateOf returns the conversion rate of code. Unknown codes yield an
// UnsupportedCurrency error; a non-positive stored rate is a data integrity
// failure and yields a StorageError.
func (t *Table) RateOf(ctx context.Context, code string) (rate decimal.Decimal, err error) {
	if code == "" {
		return rate, ErrUnknownCurrency
	}

	if t.cache != nil {
		cached, found, err := t.cache.Get(ctx, code)
		switch {
		case err != nil:
			slog.Warn("rate cache lookup failed", "currency", code, "error", err)
		case found:
			return checkRate(code, cached)
		}
	}

	row, err := t.source.CurrencyRate(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUnknownCurrency) {
			return rate, apperr.Wrap(apperr.UnsupportedCurrency, "Unsupported currency", err)
		}
		return rate, apperr.Wrap(apperr.StorageError, "failed to load conversion rate", err)
	}

	rate, err = checkRate(code, row.ConversionRate)
	if err != nil {
		return rate, err
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, code, rate, t.ttl); err != nil {
			slog.Warn("rate cache store failed", "currency", code, "error", err)
		}
	}
	return rate, nil
}

// Supported reports nil when code has a row in the table.
func (t *Table) Supported(ctx context.Context, code string) (err error) {
	_, err = t.RateOf(ctx, code)
	return err
}

func checkRate(code string, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, apperr.New(apperr.StorageError, "non-positive conversion rate for "+code)
	}
	return rate, nil
}
