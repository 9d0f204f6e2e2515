package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"collabcode/backend/internal/access"
	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

// ListMessages pages a room's chat history, chronological ascending,
// soft-deleted entries excluded. Readable by anyone who can read the room.
func (h *Handler) ListMessages(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	room, err := h.Storage.GetRoomByID(c.Param("id"))
	if err != nil {
		fail(c, err, "list messages")
		return
	}
	if !access.CanReadRoom(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this room"})
		return
	}

	messages, total, err := h.Storage.ListMessages(room.RoomID, page, limit)
	if err != nil {
		fail(c, err, "list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"messages":   messages,
			"pagination": newPagination(page, limit, total),
		},
	})
}

type sendMessageRequest struct {
	Content  string   `json:"content"`
	Kind     string   `json:"type"`
	Metadata string   `json:"metadata"`
	Mentions []string `json:"mentions"`
}

// SendMessage persists a chat message from an active participant (or the
// owner). Content validation lives in the store; the room's message counter
// is bumped there as a side effect.
func (h *Handler) SendMessage(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	room, err := h.Storage.GetRoomByID(c.Param("id"))
	if err != nil {
		fail(c, err, "send message")
		return
	}
	if !access.CanSendMessage(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You must be a participant to send messages"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is required"})
		return
	}
	if req.Kind != "" && !models.ValidKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown message type"})
		return
	}

	msg := &models.Message{
		RoomID:   room.RoomID,
		SenderID: userID,
		Content:  req.Content,
		Kind:     req.Kind,
		Metadata: req.Metadata,
		Mentions: pq.StringArray(req.Mentions),
	}
	if err := h.Storage.SaveMessage(msg); err != nil {
		fail(c, err, "send message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Message sent successfully",
		"data":    gin.H{"message": msg},
	})
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// EditMessage replaces content, sender-only. The edited flag sticks forever.
func (h *Handler) EditMessage(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	msg, err := h.fetchMessage(c)
	if err != nil {
		fail(c, err, "edit message")
		return
	}
	if !access.CanEditMessage(userID, msg) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own messages"})
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is required"})
		return
	}

	updated, err := h.Storage.EditMessage(msg.ID, req.Content)
	if err != nil {
		fail(c, err, "edit message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message edited successfully",
		"data":    gin.H{"message": updated},
	})
}

// DeleteMessage soft-deletes; allowed for the sender and the room owner.
func (h *Handler) DeleteMessage(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	msg, err := h.fetchMessage(c)
	if err != nil {
		fail(c, err, "delete message")
		return
	}
	room, err := h.Storage.GetRoomByID(msg.RoomID)
	if err != nil {
		fail(c, err, "delete message")
		return
	}
	if !access.CanDeleteMessage(userID, msg, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own messages"})
		return
	}

	if err := h.Storage.SoftDeleteMessage(msg.ID); err != nil {
		fail(c, err, "delete message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message deleted successfully",
	})
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// AddReaction records the caller's emoji on a message. Re-adding the same
// emoji is a no-op, not an error.
func (h *Handler) AddReaction(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	msg, err := h.fetchMessage(c)
	if err != nil {
		fail(c, err, "add reaction")
		return
	}

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Emoji is required"})
		return
	}

	updated, err := h.Storage.AddReaction(msg.ID, userID, req.Emoji)
	if err != nil {
		fail(c, err, "add reaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reaction added successfully",
		"data":    gin.H{"message": updated},
	})
}

// RemoveReaction drops the caller's emoji; absence is a no-op.
func (h *Handler) RemoveReaction(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	msg, err := h.fetchMessage(c)
	if err != nil {
		fail(c, err, "remove reaction")
		return
	}

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Emoji is required"})
		return
	}

	updated, err := h.Storage.RemoveReaction(msg.ID, userID, req.Emoji)
	if err != nil {
		fail(c, err, "remove reaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reaction removed successfully",
		"data":    gin.H{"message": updated},
	})
}

func (h *Handler) fetchMessage(c *gin.Context) (*models.Message, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, apperr.ErrMessageNotFound
	}
	return h.Storage.GetMessageByID(uint(id))
}
