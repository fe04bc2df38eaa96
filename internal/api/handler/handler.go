// Package handler exposes the complaint service over HTTP and WebSocket.
package handler

import (
	"context"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/models"
)

// ComplaintService is the part of the submission pipeline the API needs.
type ComplaintService interface {
	Submit(ctx context.Context, draft *models.Complaint) (*models.Complaint, error)
	Track(ctx context.Context, code string) (*models.Complaint, error)
}

// TextExtractor pulls complaint fields out of free text.
type TextExtractor interface {
	Extract(ctx context.Context, text string, lang models.Language) (models.ExtractedInfo, error)
}

// Handler holds the dependencies of every route.
type Handler struct {
	Hub        *dialogue.Hub
	Complaints ComplaintService
	Extractor  TextExtractor

	jwtSecret []byte
}

func NewHandler(hub *dialogue.Hub, complaints ComplaintService, extractor TextExtractor, jwtSecret string) *Handler {
	return &Handler{
		Hub:        hub,
		Complaints: complaints,
		Extractor:  extractor,
		jwtSecret:  []byte(jwtSecret),
	}
}
