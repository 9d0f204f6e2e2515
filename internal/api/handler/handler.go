package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/auth"
	"collabcode/backend/internal/hub"
	"collabcode/backend/internal/storage"
)

// Handler carries the dependencies shared by every HTTP endpoint.
type Handler struct {
	Storage storage.Storage
	Tokens  *auth.TokenService
	Hub     *hub.Manager
}

func NewHandler(s storage.Storage, tokens *auth.TokenService, h *hub.Manager) *Handler {
	return &Handler{Storage: s, Tokens: tokens, Hub: h}
}

// fail maps a taxonomy error onto the wire. Unclassified errors are logged
// with context and surface as a generic 500.
func fail(c *gin.Context, err error, logContext string) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s: %v", logContext, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pagination is the metadata block attached to list responses.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newPagination(page, limit int, total int64) pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
