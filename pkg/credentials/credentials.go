package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet excludes look-alike characters (0/O, 1/l/I) so operators can
// read a one-time credential over the phone without ambiguity.
const alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const minLength = 8

// NewTempPassword generates a one-time temporary credential of the given
// length. Lengths below the minimum are raised to it.
func NewTempPassword(length int) (string, error) {
	if length < minLength {
		length = minLength
	}

	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate temp password: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}

	return string(buf), nil
}
