package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and signs the caller in.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
		return
	}

	if _, err := h.Storage.GetUserByEmail(strings.ToLower(req.Email)); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An account with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, err, "hash password")
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
	}
	if err := h.Storage.CreateUser(user); err != nil {
		// Two concurrent registrations can both pass the lookup above; the
		// unique index on email decides, and the loser gets the same answer
		// as the sequential duplicate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An account with this email already exists"})
			return
		}
		fail(c, err, "create user")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		fail(c, err, "issue token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created successfully",
		"data": gin.H{
			"token": token,
			"user":  user.GetProfile(),
		},
	})
}

// Login verifies credentials and issues a fresh token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.Storage.GetUserByEmail(strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		fail(c, err, "issue token")
		return
	}

	if err := h.Storage.SetUserOnline(user.ID); err != nil {
		fail(c, err, "set user online")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"data": gin.H{
			"token": token,
			"user":  user.GetProfile(),
		},
	})
}

// Logout marks the caller offline. The token itself stays valid until expiry;
// clients discard it.
func (h *Handler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		fail(c, apperr.ErrUnauthorized, "logout without user")
		return
	}
	if err := h.Storage.SetUserOffline(user.ID); err != nil {
		fail(c, err, "set user offline")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated account.
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		fail(c, apperr.ErrUnauthorized, "me without user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": user.GetProfile()},
	})
}
