package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the claims carried by a session token. Only
// registered claims are used: sub (user ID), iat, exp and a unique jti.
// No role or membership data is embedded; authorisation is always
// resolved against the store at request time.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// defaultSessionTTL applies when a non-positive TTL is passed.
const defaultSessionTTL = 7 * 24 * time.Hour

// IssueSessionToken creates a signed HS256 session token for a user.
// The token is self-contained: verification needs only the secret,
// never the database.
func IssueSessionToken(userID, secret string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issuing session token: empty user ID")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken validates a session token and returns the user ID.
//
// An expired token with a valid signature fails with ErrSessionExpired.
// Every other failure (bad signature, malformed token, wrong algorithm,
// missing subject) fails with ErrSessionInvalid.
func VerifySessionToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return "", fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", ErrSessionInvalid
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrSessionInvalid)
	}

	return claims.Subject, nil
}
