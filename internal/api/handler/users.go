package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

// GetProfile returns the caller's own profile.
func (h *Handler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		fail(c, apperr.ErrUnauthorized, "profile without user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": user.GetProfile()},
	})
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// UpdateProfile patches display name and avatar. Omitted fields are left
// untouched.
func (h *Handler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		fail(c, apperr.ErrUnauthorized, "profile without user")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	updated, err := h.Storage.UpdateProfile(user.ID, updates)
	if err != nil {
		fail(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"data":    gin.H{"user": updated.GetProfile()},
	})
}

// GetOnlineUsers lists users currently marked online.
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	users, err := h.Storage.GetOnlineUsers(limit)
	if err != nil {
		fail(c, err, "list online users")
		return
	}

	profiles := make([]models.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].GetProfile())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"users": profiles},
	})
}
