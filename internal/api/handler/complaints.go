package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"cybershield/backend/internal/complaint"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// trackedComplaint adds display labels to a complaint.
type trackedComplaint struct {
	*models.Complaint
	StatusLabel       string `json:"statusLabel"`
	IncidentTypeLabel string `json:"incidentTypeLabel"`
}

// CreateComplaint submits a complete complaint in one request.
func (h *Handler) CreateComplaint(c *gin.Context) {
	var draft models.Complaint
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid complaint data"})
		return
	}

	created, err := h.Complaints.Submit(c.Request.Context(), &draft)
	if err != nil {
		var ve *complaint.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error()})
			return
		}
		log.Printf("ERROR: creating complaint: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create complaint"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "complaint": created})
}

// TrackComplaint looks a complaint up by its public tracking code.
func (h *Handler) TrackComplaint(c *gin.Context) {
	code := strings.TrimSpace(c.Param("trackingCode"))
	if len(code) < models.MinTrackingCodeLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid tracking code"})
		return
	}

	found, err := h.Complaints.Track(c.Request.Context(), code)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Complaint not found"})
		return
	}
	if err != nil {
		log.Printf("ERROR: tracking complaint %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to track complaint"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "complaint": trackedComplaint{
		Complaint:         found,
		StatusLabel:       found.Status.Label(),
		IncidentTypeLabel: found.IncidentType.Label(),
	}})
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// AnalyzeText runs the extractor over free text. Extraction failures yield
// an empty result, never an error response.
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Text is required"})
		return
	}

	lang, ok := models.ParseLanguage(req.Language)
	if !ok {
		lang = models.DefaultLanguage
	}

	info, err := h.Extractor.Extract(c.Request.Context(), req.Text, lang)
	if err != nil {
		log.Printf("WARNING: analyze-text extraction failed: %v", err)
		info = models.ExtractedInfo{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "extractedInfo": info})
}

// ListLanguages returns the language catalog.
func (h *Handler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "languages": localization.Catalog()})
}
