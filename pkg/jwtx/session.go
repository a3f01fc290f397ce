// Package jwtx issues and verifies the compact session tokens the service
// hands to clients. A session token is an HS256-signed JWT carrying only the
// subject id and a bounded expiry; it proves identity for its lifetime and is
// not renewable.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the session token lifetime. Seven days mirrors the
// cookie lifetime clients are told about at login.
const DefaultSessionTTL = 7 * 24 * time.Hour

// ErrExpiredOrInvalid covers every verification failure: bad signature, wrong
// algorithm, malformed token, or elapsed expiry. Callers must not learn which.
var ErrExpiredOrInvalid = errors.New("jwtx: session token expired or invalid")

// SessionClaims are the claims embedded in a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a shared server secret.
type Issuer struct {
	// Secret is the HMAC signing key. Any nonempty byte string works.
	Secret []byte

	// TTL is the token lifetime. Zero means DefaultSessionTTL.
	TTL time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// NewIssuer returns an Issuer signing with secret and the default TTL.
func NewIssuer(secret string) *Issuer {
	return &Issuer{Secret: []byte(secret)}
}

func (i *Issuer) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return DefaultSessionTTL
}

func (i *Issuer) clock() time.Time {
	if i.now != nil {
		return i.now()
	}
	return time.Now().UTC()
}

// Issue creates a signed session token for the given subject id.
func (i *Issuer) Issue(subjectID string) (string, error) {
	if len(i.Secret) == 0 {
		return "", errors.New("jwtx: signing secret is empty")
	}

	now := i.clock()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl())),
			ID:        newJTI(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

// Verify checks the signature and expiry of a session token and returns the
// subject id it was issued for. All failures collapse to ErrExpiredOrInvalid.
func (i *Issuer) Verify(token string) (string, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return i.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrExpiredOrInvalid
	}
	return claims.Subject, nil
}

// newJTI returns a URL-safe random identifier for the "jti" claim so tokens
// issued within the same second still differ.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
