// Package auth implements the sliding-window session token scheme: short
// lived signed tokens that can be renewed, but never past a fixed total age
// from first issuance.
package auth

import (
	"errors"
	"time"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims embeds the registered JWT claims and adds the subject user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// timeNow is a seam for tests.
var timeNow = time.Now

// IssueToken signs a fresh session token for userID. IssuedAt is fixed here
// and preserved verbatim by every later extension.
func IssueToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	now := timeNow()
	return signToken(userID, secretKey, now, now.Add(validity))
}

// ParseClaims validates signature and expiry and returns the claims.
// An expired token maps to common.ErrTokenExpired, anything else that fails
// validation to common.ErrInvalidToken.
func ParseClaims(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// GetUserIDFromToken is the verification entry point used by middleware.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := ParseClaims(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ExtendToken re-issues a valid token with the original IssuedAt and a fresh
// expiry. It returns "" with a nil error when the session has outgrown
// extendLimit — the caller must re-authenticate, which is not a failure. A
// token claiming to be issued in the future is a tamper or clock-skew signal
// and yields common.ErrClockAnomaly.
func ExtendToken(tokenString string, secretKey []byte, validity, extendLimit time.Duration) (string, error) {
	claims, err := ParseClaims(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	if claims.IssuedAt == nil {
		return "", nil
	}

	now := timeNow()
	issuedAt := claims.IssuedAt.Time

	if now.Before(issuedAt) {
		return "", common.ErrClockAnomaly
	}
	if now.Sub(issuedAt) > extendLimit {
		return "", nil
	}

	return signToken(claims.UserID, secretKey, issuedAt, now.Add(validity))
}

func signToken(userID string, secretKey []byte, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})
	return token.SignedString(secretKey)
}
