package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCodeLength is the length of confirmation codes.
const DefaultCodeLength = 6

var ten = big.NewInt(10)

// RandomOpaqueID returns an unguessable identifier backed by crypto/rand.
func RandomOpaqueID() string {
	return uuid.NewString()
}

// NumericCode returns a uniformly random string of length decimal digits.
func NumericCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("code length must be positive")
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// ResetExpiry is the UTC instant ttl after now.
func ResetExpiry(now time.Time, ttl time.Duration) time.Time {
	return now.UTC().Add(ttl)
}
