package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid indicates the token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("session token invalid")
	// ErrTokenExpired indicates the token's embedded expiry claim has lapsed.
	ErrTokenExpired = errors.New("session token expired")
)

// HashToken calculates a SHA-256 hash of the provided value. Session records
// are keyed by this hash so a database leak does not leak usable tokens.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SessionClaims binds a bearer token to its operator and session record.
// The expiry claim is a structural pre-filter only: the session record in
// the store remains the sole authority on whether the token is usable.
type SessionClaims struct {
	OperatorID string `json:"oid"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session bearer tokens.
type TokenCodec struct {
	secret []byte
	issuer string
}

// NewTokenCodec constructs a TokenCodec from the configured signing secret.
func NewTokenCodec(secret, issuer string) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &TokenCodec{secret: []byte(secret), issuer: issuer}, nil
}

// Sign mints a signed bearer token for the supplied session context.
func (c *TokenCodec) Sign(operatorID, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	if operatorID == "" || sessionID == "" {
		return "", fmt.Errorf("operator id and session id are required")
	}

	claims := SessionClaims{
		OperatorID: operatorID,
		SessionID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Verify checks the token structurally: signature, issuer, and expiry claim.
// Callers must still consult the session record before trusting the result.
func (c *TokenCodec) Verify(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.OperatorID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
