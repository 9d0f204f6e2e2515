// Package middleware holds the gin middleware that gates every protected
// route: bearer-token authentication and per-client rate limiting.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/auth"
	"collabcode/backend/internal/models"
	"collabcode/backend/internal/storage"
)

// Context keys set by RequireAuth.
const (
	CtxUserID = "userID"
	CtxUser   = "user"
)

// BearerToken pulls the credential out of "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperr.ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.ErrTokenMissing
	}
	return parts[1], nil
}

// RequireAuth verifies the bearer token and loads the account behind it.
// The 401 bodies carry a distinct code per failure (no_token, invalid_token,
// expired_token) so clients can tell "log in again" from "retry".
func RequireAuth(tokens *auth.TokenService, store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := BearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access denied. No token provided.",
				"code":  "no_token",
			})
			return
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, apperr.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token expired.",
					"code":  "expired_token",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token.",
				"code":  "invalid_token",
			})
			return
		}

		user, err := store.GetUserByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token. User not found.",
				"code":  "invalid_token",
			})
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUser, user)
		c.Next()
	}
}

// CurrentUser returns the account loaded by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CtxUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
