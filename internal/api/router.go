// Package api assembles the gin engine: route table, auth gating and rate
// limiting for the collaboration backend.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/api/handler"
	"collabcode/backend/internal/api/middleware"
	"collabcode/backend/internal/auth"
	"collabcode/backend/internal/ratelimit"
	"collabcode/backend/internal/storage"
)

// NewRouter wires every route. The rate limiter guards the whole /api
// surface; everything except auth and health also requires a valid token.
func NewRouter(h *handler.Handler, tokens *auth.TokenService, store storage.Storage, limiter *ratelimit.Limiter, frontendURL string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "CollabCode API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(tokens, store))
	{
		protected.POST("/auth/logout", h.Logout)
		protected.GET("/auth/me", h.Me)

		protected.GET("/users/profile", h.GetProfile)
		protected.PUT("/users/profile", h.UpdateProfile)
		protected.GET("/users/online", h.GetOnlineUsers)

		protected.POST("/rooms", h.CreateRoom)
		protected.GET("/rooms", h.ListRooms)
		protected.GET("/rooms/:roomId", h.GetRoom)
		protected.POST("/rooms/:roomId/join", h.JoinRoom)
		protected.POST("/rooms/:roomId/leave", h.LeaveRoom)
		protected.PUT("/rooms/:roomId", h.UpdateRoom)
		protected.DELETE("/rooms/:roomId", h.DeleteRoom)
		protected.POST("/rooms/:roomId/code", h.UpdateCode)

		// Message routes share the :id wildcard; it is a room id on the
		// collection routes and a message id on the item routes.
		protected.GET("/messages/:id", h.ListMessages)
		protected.POST("/messages/:id", h.SendMessage)
		protected.PUT("/messages/:id", h.EditMessage)
		protected.DELETE("/messages/:id", h.DeleteMessage)
		protected.POST("/messages/:id/reactions", h.AddReaction)
		protected.DELETE("/messages/:id/reactions", h.RemoveReaction)
	}

	return r
}
