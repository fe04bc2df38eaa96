// Package storage keeps submitted complaints keyed by tracking code.
package storage

import (
	"context"
	"errors"

	"cybershield/backend/internal/models"
)

var (
	ErrNotFound      = errors.New("storage: complaint not found")
	ErrDuplicateCode = errors.New("storage: tracking code already exists")
	// ErrStatusRegression is returned when a status change would move a
	// complaint backwards in its lifecycle.
	ErrStatusRegression = errors.New("storage: status cannot move backwards")
)

// Storage is the complaint store contract. Implementations hand out copies:
// mutating a returned record never changes the stored one.
type Storage interface {
	// Create stores c, generating its tracking code when empty. c is updated
	// with the code, defaults and timestamps that were assigned.
	Create(ctx context.Context, c *models.Complaint) error
	GetByTrackingCode(ctx context.Context, code string) (*models.Complaint, error)
	// UpdateStatus sets the status and refreshes LastUpdated. The check that
	// the status only moves forward and the write happen atomically; a
	// regression fails with ErrStatusRegression.
	UpdateStatus(ctx context.Context, code string, status models.Status) (*models.Complaint, error)
	// ListAll returns every record, oldest first.
	ListAll(ctx context.Context) ([]models.Complaint, error)
}
