package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// New generates a uniformly random 6-digit numeric code, zero-padded so
// leading zeros are possible ("004217" is a valid code).
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
