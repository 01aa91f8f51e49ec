// Package lumens converts between the ledger's base unit (a 7-decimal
// fixed-point amount) and stroops, its smallest indivisible integer unit.
// All arithmetic is exact; no float ever touches an amount.
package lumens

import (
	"fmt"
	"math/big"
	"strings"
)

// StroopsPerLumen is the fixed scale factor between the two units.
const StroopsPerLumen = 10_000_000

const fracDigits = 7

var stroopScale = big.NewInt(StroopsPerLumen)

// FromStroops renders a non-negative stroop count as a decimal base-unit
// string with full precision for arbitrarily large counts. The fraction is
// zero-padded to 7 digits, trailing zeros are stripped, and a zero fraction
// is omitted entirely: 100_000_000 -> "10", 10_000_001 -> "1.0000001",
// 0 -> "0".
func FromStroops(stroops *big.Int) (string, error) {
	if stroops == nil || stroops.Sign() < 0 {
		return "", &ErrInvalidAmount{Reason: "stroop count must be non-negative"}
	}

	quo, rem := new(big.Int).QuoRem(stroops, stroopScale, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String(), nil
	}

	frac := fmt.Sprintf("%0*d", fracDigits, rem.Int64())
	frac = strings.TrimRight(frac, "0")
	return quo.String() + "." + frac, nil
}

// ToStroops parses a positive decimal base-unit amount into stroops. The
// amount is parsed exactly as a decimal string; anything beyond 7 fractional
// digits is rounded to the nearest stroop, half away from zero. Inputs that
// are not positive finite decimals, or that overflow int64 stroops, fail with
// ErrInvalidAmount.
func ToStroops(amount string) (int64, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return 0, &ErrInvalidAmount{Reason: "empty amount"}
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, &ErrInvalidAmount{Reason: "amount must be an unsigned decimal"}
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, &ErrInvalidAmount{Reason: "no digits in amount"}
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return 0, &ErrInvalidAmount{Reason: fmt.Sprintf("%q is not a decimal amount", amount)}
	}
	if intPart == "" {
		intPart = "0"
	}

	// Split the fraction into the 7 significant stroop digits and the rounded
	// remainder.
	roundUp := false
	if len(fracPart) > fracDigits {
		roundUp = fracPart[fracDigits] >= '5'
		fracPart = fracPart[:fracDigits]
	}
	fracPart += strings.Repeat("0", fracDigits-len(fracPart))

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return 0, &ErrInvalidAmount{Reason: fmt.Sprintf("%q is not a decimal amount", amount)}
	}
	frac, ok := new(big.Int).SetString(fracPart, 10)
	if !ok {
		return 0, &ErrInvalidAmount{Reason: fmt.Sprintf("%q is not a decimal amount", amount)}
	}

	stroops := whole.Mul(whole, stroopScale)
	stroops.Add(stroops, frac)
	if roundUp {
		stroops.Add(stroops, big.NewInt(1))
	}

	if stroops.Sign() <= 0 {
		return 0, &ErrInvalidAmount{Reason: "amount must be positive"}
	}
	if !stroops.IsInt64() {
		return 0, &ErrInvalidAmount{Reason: fmt.Sprintf("%q overflows the ledger's stroop range", amount)}
	}
	return stroops.Int64(), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ErrInvalidAmount reports an amount that is not a positive finite decimal
// within the ledger's range.
type ErrInvalidAmount struct {
	Reason string
}

func (e *ErrInvalidAmount) Error() string {
	return "invalid amount: " + e.Reason
}
