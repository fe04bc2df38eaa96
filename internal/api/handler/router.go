package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// NewRouter mounts every route and wraps the engine in CORS handling.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/complaints", h.CreateComplaint)
	api.GET("/complaints/track/:trackingCode", h.TrackComplaint)
	api.POST("/analyze-text", h.AnalyzeText)
	api.GET("/languages", h.ListLanguages)

	api.POST("/chat/sessions", h.CreateSession)
	session := api.Group("/chat/sessions/:id", h.RequireSession())
	session.GET("", h.GetSession)
	session.POST("/messages", h.PostMessage)
	session.POST("/voice", h.PostVoice)
	session.POST("/reset", h.ResetSession)
	session.DELETE("", h.DeleteSession)

	r.GET("/ws/chat/:id", h.RequireSession(), h.ServeWebSocket)

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(r)
}
