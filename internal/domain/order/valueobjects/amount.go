package valueobjects

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MinFingerprint and MaxFingerprint bound the cent offsets handed out by the allocator.
	MinFingerprint = 1
	MaxFingerprint = 99
	// ZeroFingerprint stands for an amount with no cent offset.
	ZeroFingerprint = 100

	amountPlaces = 2
)

var hundred = decimal.NewFromInt(100)

// RoundAmount applies the single two-decimal rounding policy shared by
// allocation and matching.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(amountPlaces)
}

// ParseAmount parses a positive decimal amount and rounds it to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	d = RoundAmount(d)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive: %s", s)
	}
	return d, nil
}

// FromBaseUnits converts an integer token value in the smallest unit to a
// two-decimal amount.
func FromBaseUnits(raw string, decimals int32) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token value %q: %w", raw, err)
	}
	if decimals < 0 {
		return decimal.Zero, fmt.Errorf("invalid token decimals %d", decimals)
	}
	return RoundAmount(v.Shift(-decimals)), nil
}

// FingerprintOf returns the cent offset carried by amount: round(amount*100 mod 100),
// with zero reported as ZeroFingerprint.
func FingerprintOf(amount decimal.Decimal) int {
	cents := amount.Mul(hundred).Round(0)
	f := int(cents.Mod(hundred).IntPart())
	if f < 0 {
		f += 100
	}
	if f == 0 {
		return ZeroFingerprint
	}
	return f
}

// WithFingerprint returns base + fingerprint/100 rounded to cents.
func WithFingerprint(base decimal.Decimal, fingerprint int) decimal.Decimal {
	return RoundAmount(base.Add(decimal.NewFromInt(int64(fingerprint)).Div(hundred)))
}

// RandomFingerprint picks uniformly from MinFingerprint..MaxFingerprint.
func RandomFingerprint() int {
	return MinFingerprint + rand.Intn(MaxFingerprint-MinFingerprint+1)
}
