package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec wraps session ids in signed, short-lived JWTs so the
// client-held token carries no credential material. The session state
// itself, including the cached password, stays server side. This is
// the replacement for persisting credentials in browser cookies.
type TokenCodec struct {
	secret []byte
	issuer string
}

// tokenClaims are the claims carried by a session token. Only the
// session id and identity id are embedded, never a password.
type tokenClaims struct {
	SessionID  string `json:"sid"`
	IdentityID int64  `json:"identity_id"`
	jwt.RegisteredClaims
}

// NewTokenCodec creates a codec signing with the given shared secret.
func NewTokenCodec(secret, issuer string) *TokenCodec {
	if issuer == "" {
		issuer = "webmaild"
	}
	return &TokenCodec{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token binding the session id to an identity for ttl.
func (c *TokenCodec) Issue(sid string, identityID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		SessionID:  sid,
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the session id it wraps.
func (c *TokenCodec) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("validating session token: %w", err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token claims")
	}
	return claims.SessionID, nil
}
