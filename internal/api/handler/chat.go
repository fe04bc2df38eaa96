package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type openSessionRequest struct {
	Language    string             `json:"language"`
	InputMethod models.InputMethod `json:"inputMethod"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type voiceRequest struct {
	Action dialogue.VoiceAction `json:"action"`
}

// CreateSession starts a conversation in the chosen language.
func (h *Handler) CreateSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	lang, ok := models.ParseLanguage(req.Language)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unsupported language"})
		return
	}
	if req.InputMethod != "" && !req.InputMethod.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unsupported input method"})
		return
	}

	session, directives, err := h.Hub.Open(c.Request.Context(), "", lang, req.InputMethod)
	if err != nil {
		h.hubError(c, err)
		return
	}
	token, err := h.issueSessionToken(session.ID)
	if err != nil {
		log.Printf("ERROR: signing session token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session, "directives": directives, "token": token})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.Hub.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.hubError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// PostMessage runs one dialogue turn. A submit turn responds once the
// complaint is stored, with the record in turn.complaint.
func (h *Handler) PostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	turn, session, err := h.Hub.Turn(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.hubError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "turn": turn, "session": session})
}

func (h *Handler) PostVoice(c *gin.Context) {
	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	directives, session, err := h.Hub.Voice(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		h.hubError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "directives": directives, "session": session})
}

// ResetSession files a new complaint in the same language.
func (h *Handler) ResetSession(c *gin.Context) {
	session, err := h.Hub.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.hubError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Hub.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.hubError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) hubError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Session not found"})
	case errors.Is(err, dialogue.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Submission in progress"})
	case errors.Is(err, dialogue.ErrUnknownVoiceAction):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown voice action"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, dialogue.ErrHubStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Service unavailable"})
	default:
		log.Printf("ERROR: dialogue request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal error"})
	}
}
