package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericCode(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 200; i++ {
		code, err := NumericCode(DefaultCodeLength)
		require.NoError(t, err)
		require.Len(t, code, DefaultCodeLength)
		for j := 0; j < len(code); j++ {
			require.True(t, code[j] >= '0' && code[j] <= '9', code)
			seen[code[j]] = true
		}
	}
	// 1200 uniform digits cover all ten values with overwhelming probability.
	assert.Len(t, seen, 10)

	_, err := NumericCode(0)
	assert.Error(t, err)
}

func TestRandomOpaqueIDUnique(t *testing.T) {
	ids := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		ids[RandomOpaqueID()] = struct{}{}
	}
	assert.Len(t, ids, 1000)
}

func TestResetExpiryIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 3, 29, 1, 30, 0, 0, loc)

	exp := ResetExpiry(now, 15*time.Minute)
	assert.Equal(t, time.UTC, exp.Location())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), exp.Unix())
}
