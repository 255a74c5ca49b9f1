// payment-requests/tools/cmd/dummygen/main.go
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	header     = []string{"requester_account", "amount", "currency", "name"}
	currencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "SGD", "IDR"}
	countries  = []string{"BE", "DE", "FR", "NL", "ES", "IT"}
	names      = []string{"Alice Martin", "Bram de Vries", "Chiara Rossi", "Dewi Lestari", ""}
)

func main() {
	n := flag.Int("n", 100, "number of rows (without header)")
	out := flag.String("out", "testdata/payment_requests.csv", "output CSV path")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := generate(f, *n, rand.New(rand.NewSource(*seed))); err != nil {
		log.Fatal(err)
	}
	log.Printf("generated %s (%d rows + header)", *out, *n)
}

// generate writes n payment request fixtures with well formed IBANs and
// currencies from the shipped rate seed.
func generate(w io.Writer, n int, rng *rand.Rand) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := []string{
			randomIban(rng),
			fmt.Sprintf("%.2f", 1+rng.Float64()*1000),
			currencies[rng.Intn(len(currencies))],
			names[rng.Intn(len(names))],
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// randomIban returns a country code, two check digits and four groups of
// four digits, space separated.
func randomIban(rng *rand.Rand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%02d", countries[rng.Intn(len(countries))], rng.Intn(100))
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, " %04d", rng.Intn(10000))
	}
	return b.String()
}
