package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// UnverifiedExpiry reads the exp claim without checking the signature.
// Only for display and client-side session housekeeping; never use the
// result to grant access.
func UnverifiedExpiry(tokenStr string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decoding token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token's exp claim lies before now.
// Undecodable tokens count as expired; tokens without exp do not.
func Expired(tokenStr string, now time.Time) bool {
	exp, err := UnverifiedExpiry(tokenStr)
	if errors.Is(err, ErrNoExpiry) {
		return false
	}
	if err != nil {
		return true
	}
	return exp.Before(now)
}
