package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/access"
	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

type roomSettingsPatch struct {
	AllowJoin         *bool `json:"allowJoin"`
	RequirePermission *bool `json:"requirePermission"`
	MaxParticipants   *int  `json:"maxParticipants"`
	AutoSave          *bool `json:"autoSave"`
	AutoSaveInterval  *int  `json:"autoSaveInterval"`
}

type createRoomRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Language    string             `json:"language"`
	IsPublic    *bool              `json:"isPublic"`
	Settings    *roomSettingsPatch `json:"settings"`
}

// CreateRoom opens a new collaborative session with the caller as owner and
// first participant.
func (h *Handler) CreateRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
		return
	}

	settings := models.DefaultRoomSettings()
	if req.Settings != nil {
		applySettingsPatch(&settings, req.Settings)
	}

	room := &models.Room{
		OwnerID:     userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Language:    req.Language,
		IsPublic:    true,
		Settings:    settings,
	}
	if room.Language == "" {
		room.Language = "javascript"
	}
	if req.IsPublic != nil {
		room.IsPublic = *req.IsPublic
	}

	if err := h.Storage.CreateRoom(room); err != nil {
		fail(c, err, "create room")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Room created successfully",
		"data":    gin.H{"room": room.GetRoomInfo()},
	})
}

// ListRooms pages public rooms (type=public, the default) or rooms the caller
// owns or has joined (type=my).
func (h *Handler) ListRooms(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	listType := c.DefaultQuery("type", "public")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	rooms, total, err := h.Storage.ListRooms(listType, userID, page, limit)
	if err != nil {
		fail(c, err, "list rooms")
		return
	}

	infos := make([]models.RoomInfo, 0, len(rooms))
	for i := range rooms {
		infos = append(infos, rooms[i].GetRoomInfo())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"rooms":      infos,
			"pagination": newPagination(page, limit, total),
		},
	})
}

// GetRoom fetches one room. Private rooms are visible only to the owner and
// participants; deactivated rooms only to the owner.
func (h *Handler) GetRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.GetRoomByID(c.Param("roomId"))
	if err != nil {
		fail(c, err, "get room")
		return
	}
	if !room.IsActive && room.OwnerID != userID {
		fail(c, apperr.ErrRoomNotFound, "get inactive room")
		return
	}
	if !access.CanReadRoom(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"room":    room.GetRoomInfo(),
			"canJoin": access.CanJoin(room),
		},
	})
}

// JoinRoom adds the caller to the room. The registry enforces capacity and
// join policy atomically and reports the specific refusal.
func (h *Handler) JoinRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.JoinRoom(c.Param("roomId"), userID)
	if err != nil {
		fail(c, err, "join room")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Joined room successfully",
		"data":    gin.H{"room": room.GetRoomInfo()},
	})
}

// LeaveRoom marks the caller's membership inactive. Leaving a room you are
// not in is a harmless no-op.
func (h *Handler) LeaveRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	roomID := c.Param("roomId")

	if _, err := h.Storage.GetRoomByID(roomID); err != nil {
		fail(c, err, "leave room")
		return
	}
	if err := h.Storage.LeaveRoom(roomID, userID); err != nil {
		fail(c, err, "leave room")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Left room successfully",
	})
}

type updateRoomRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Language    *string            `json:"language"`
	IsPublic    *bool              `json:"isPublic"`
	Settings    *roomSettingsPatch `json:"settings"`
}

// UpdateRoom applies an owner-only patch. Settings merge field by field;
// anything omitted keeps its prior value.
func (h *Handler) UpdateRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.GetRoomByID(c.Param("roomId"))
	if err != nil {
		fail(c, err, "update room")
		return
	}
	if !access.CanModerateRoom(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the room owner can perform this action"})
		return
	}

	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Language != nil && *req.Language != "" {
		updates["language"] = *req.Language
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.Settings != nil {
		settingsUpdates(updates, req.Settings)
	}

	updated, err := h.Storage.UpdateRoom(room.RoomID, updates)
	if err != nil {
		fail(c, err, "update room")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Room updated successfully",
		"data":    gin.H{"room": updated.GetRoomInfo()},
	})
}

// DeleteRoom soft-deletes: owner-only, history retained.
func (h *Handler) DeleteRoom(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.GetRoomByID(c.Param("roomId"))
	if err != nil {
		fail(c, err, "delete room")
		return
	}
	if !access.CanModerateRoom(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the room owner can perform this action"})
		return
	}

	if err := h.Storage.DeactivateRoom(room.RoomID); err != nil {
		fail(c, err, "delete room")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Room deleted successfully",
	})
}

type updateCodeRequest struct {
	Code *string `json:"code"`
}

// UpdateCode persists the shared buffer. Participant-only; an empty string is
// a valid buffer, so the field presence is what is validated.
func (h *Handler) UpdateCode(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.GetRoomByID(c.Param("roomId"))
	if err != nil {
		fail(c, err, "update code")
		return
	}
	if !access.CanWriteCode(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this room"})
		return
	}

	var req updateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}

	if err := h.Storage.UpdateCode(room.RoomID, *req.Code); err != nil {
		fail(c, err, "update code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Code updated successfully",
	})
}

func applySettingsPatch(s *models.RoomSettings, patch *roomSettingsPatch) {
	if patch.AllowJoin != nil {
		s.AllowJoin = *patch.AllowJoin
	}
	if patch.RequirePermission != nil {
		s.RequirePermission = *patch.RequirePermission
	}
	if patch.MaxParticipants != nil && *patch.MaxParticipants > 0 {
		s.MaxParticipants = *patch.MaxParticipants
	}
	if patch.AutoSave != nil {
		s.AutoSave = *patch.AutoSave
	}
	if patch.AutoSaveInterval != nil && *patch.AutoSaveInterval > 0 {
		s.AutoSaveInterval = *patch.AutoSaveInterval
	}
}

// settingsUpdates maps present patch fields onto their embedded columns.
func settingsUpdates(updates map[string]interface{}, patch *roomSettingsPatch) {
	if patch.AllowJoin != nil {
		updates["settings_allow_join"] = *patch.AllowJoin
	}
	if patch.RequirePermission != nil {
		updates["settings_require_permission"] = *patch.RequirePermission
	}
	if patch.MaxParticipants != nil && *patch.MaxParticipants > 0 {
		updates["settings_max_participants"] = *patch.MaxParticipants
	}
	if patch.AutoSave != nil {
		updates["settings_auto_save"] = *patch.AutoSave
	}
	if patch.AutoSaveInterval != nil && *patch.AutoSaveInterval > 0 {
		updates["settings_auto_save_interval"] = *patch.AutoSaveInterval
	}
}
