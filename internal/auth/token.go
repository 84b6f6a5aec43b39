package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
)

// IssuedToken is a signed token and the instant it stops being valid.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Claims is what a verified token asserts.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies HS256 tokens carrying an account identifier.
type Codec struct {
	now func() time.Time
}

// NewCodec builds a codec using the wall clock.
func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// Issue signs a token for subject that expires ttl from now. Every token gets
// a random jti so two tokens minted in the same second never collide.
func (c *Codec) Issue(subject string, secret []byte, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject is required")
	}
	if len(secret) == 0 {
		return IssuedToken{}, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return IssuedToken{}, errors.New("token ttl must be positive")
	}

	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks the signature first and only then the expiry. The returned
// error is always one of ErrTokenMalformed, ErrTokenInvalidSignature or
// ErrTokenExpired.
func (c *Codec) Verify(token string, secret []byte) (Claims, error) {
	if token == "" {
		return Claims{}, ErrTokenMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, ErrTokenMalformed
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrTokenMalformed
	}

	out := Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time.UTC()}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
