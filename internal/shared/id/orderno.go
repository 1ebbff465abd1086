// Package id generates client-visible identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNo returns ORD followed by the unix millisecond timestamp and six
// random uppercase letters.
func NewOrderNo(now time.Time) (string, error) {
	suffix, err := randomString(upperAlphabet, 6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD%d%s", now.UnixMilli(), suffix), nil
}

func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
