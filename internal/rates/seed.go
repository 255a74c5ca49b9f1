package rates

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Yaml seed file reference
type (
	seedEntry struct {
		Currency string `yaml:"currency"`
		Rate     string `yaml:"rate"`
	}
	seedFile struct {
		Base       string      `yaml:"base"`
		Currencies []seedEntry `yaml:"currencies"`
	}
)

// LoadSeed reads a YAML seed file from disk.
func LoadSeed(path string) (rates []Rate, err error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(contents)
}

// ParseSeed decodes seed contents. Every rate must be a positive decimal and
// the base currency, when named, must be present with rate 1.
func ParseSeed(contents []byte) (rates []Rate, err error) {
	var file seedFile
	err = yaml.Unmarshal(contents, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[string]bool, len(file.Currencies))
	rates = make([]Rate, 0, len(file.Currencies))
	for _, entry := range file.Currencies {
		if entry.Currency == "" {
			return nil, fmt.Errorf("seed entry without currency")
		}
		if seen[entry.Currency] {
			return nil, fmt.Errorf("duplicate currency in seed: %s", entry.Currency)
		}
		seen[entry.Currency] = true

		value, err := decimal.NewFromString(entry.Rate)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", entry.Currency, err)
		}
		if !value.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", entry.Currency, value)
		}
		if entry.Currency == file.Base && !value.Equal(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("base currency %s must have rate 1, got %s", file.Base, value)
		}
		rates = append(rates, Rate{Currency: entry.Currency, ConversionRate: value})
	}

	if file.Base != "" && !seen[file.Base] {
		return nil, fmt.Errorf("base currency %s missing from seed", file.Base)
	}
	return rates, nil
}

// Seed upserts every rate through w.
func Seed(ctx context.Context, w Writer, rates []Rate) (err error) {
	for _, rate := range rates {
		err = w.UpsertCurrencyRate(ctx, rate)
		if err != nil {
			return fmt.Errorf("failed to upsert rate %s: %w", rate.Currency, err)
		}
	}
	return nil
}
