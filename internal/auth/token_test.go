package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("access-secret")
	testRefreshSecret = []byte("refresh-secret")
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec()

	for _, ttl := range []time.Duration{time.Second * 5, time.Hour, 365 * 24 * time.Hour} {
		issued, err := codec.Issue("account-1", testAccessSecret, ttl)
		require.NoError(t, err)

		claims, err := codec.Verify(issued.Value, testAccessSecret)
		require.NoError(t, err)
		assert.Equal(t, "account-1", claims.Subject)
		assert.Equal(t, issued.ExpiresAt, claims.ExpiresAt)
	}
}

func TestCodecTokensAreUnique(t *testing.T) {
	codec := NewCodec()
	a, err := codec.Issue("account-1", testRefreshSecret, time.Hour)
	require.NoError(t, err)
	b, err := codec.Issue("account-1", testRefreshSecret, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a.Value, b.Value)
}

func TestCodecRejectsOtherSecret(t *testing.T) {
	codec := NewCodec()
	issued, err := codec.Issue("account-1", testRefreshSecret, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(issued.Value, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestCodecExpired(t *testing.T) {
	past := &Codec{now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	issued, err := past.Issue("account-1", testAccessSecret, time.Hour)
	require.NoError(t, err)

	_, err = NewCodec().Verify(issued.Value, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodecChecksSignatureBeforeExpiry(t *testing.T) {
	past := &Codec{now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	issued, err := past.Issue("account-1", testAccessSecret, time.Hour)
	require.NoError(t, err)

	_, err = NewCodec().Verify(issued.Value, []byte("someone-else"))
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestCodecTamperedPayload(t *testing.T) {
	codec := NewCodec()
	mine, err := codec.Issue("account-1", testAccessSecret, time.Hour)
	require.NoError(t, err)
	theirs, err := codec.Issue("account-2", testAccessSecret, time.Hour)
	require.NoError(t, err)

	a := strings.Split(mine.Value, ".")
	b := strings.Split(theirs.Value, ".")
	forged := strings.Join([]string{a[0], b[1], a[2]}, ".")

	_, err = codec.Verify(forged, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestCodecMalformed(t *testing.T) {
	codec := NewCodec()
	for _, token := range []string{"", "abc", "a.b.c", "not.a.jwt.at.all"} {
		_, err := codec.Verify(token, testAccessSecret)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestCodecIssueValidatesInput(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Issue("", testAccessSecret, time.Hour)
	assert.Error(t, err)
	_, err = codec.Issue("account-1", nil, time.Hour)
	assert.Error(t, err)
	_, err = codec.Issue("account-1", testAccessSecret, 0)
	assert.Error(t, err)
}
