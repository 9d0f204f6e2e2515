// Package auth issues and verifies the bearer tokens that gate every request.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"collabcode/backend/internal/apperr"
)

const issuer = "collabcode-api"

// TokenService signs and verifies identity tokens. It is stateless:
// verification needs nothing but the secret, so it never touches the network
// or the database.
type TokenService struct {
	secret []byte
	expire time.Duration
}

func NewTokenService(secret string, expire time.Duration) *TokenService {
	if expire <= 0 {
		expire = 7 * 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), expire: expire}
}

// Issue produces a signed token bound to userID, valid for the configured
// duration.
func (t *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(t.expire).Unix(),
		"iss":     issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature and expiry and returns the bound user id.
// Expired tokens fail with apperr.ErrTokenExpired; anything else wrong with
// the token (tampering, wrong algorithm, garbage) fails with
// apperr.ErrTokenMalformed.
func (t *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrTokenMalformed
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.ErrTokenExpired
		}
		return "", apperr.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperr.ErrTokenMalformed
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", apperr.ErrTokenMalformed
	}
	return userID, nil
}
