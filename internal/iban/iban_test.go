package iban_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/payment-requests/internal/iban"
)

func TestValidate(t *testing.T) {
	t.Run("Accept", func(t *testing.T) {
		for _, account := range []string{
			"BE84 2543 7531 1863",
			"BE84254375311863",
			"BE81 2345 6789 0011",
			"BE84 1234 56789 9876",
			"NL91-ABNA-0417-1643-00",
			"DE89 3704 0044 0532 0130 00",
			"GB29 NWBK 6016 1331 9268 19",
			"FR14 2004 1010 0505 0001 3M02 606",
			"  BE84 2543 7531 1863  ",
		} {
			t.Run(account, func(t *testing.T) {
				assert.True(t, iban.Validate(account))
			})
		}
	})
	t.Run("Reject", func(t *testing.T) {
		for _, account := range []string{
			"",
			"vdiydytk575",
			"1B45428",
			"be84 2543 7531 1863",
			"BE8X 2543 7531 1863",
			"BE84 25 43 75 31",
			"BE84 2543 75",
			"BE84 2543 7531 1863 2543 7531 1863 2543 7531 1863",
			"BE84_2543_7531_1863",
		} {
			t.Run(account, func(t *testing.T) {
				assert.False(t, iban.Validate(account))
			})
		}
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "NL91ABNA0417164300", iban.Normalize("NL91-ABNA 0417\t1643-00"))
}
