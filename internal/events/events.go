// Package events publishes complaint lifecycle notifications to Redis Pub/Sub
// or an MQTT broker so that other instances and back-office tools can react.
package events

import (
	"context"
	"encoding/json"
	"time"

	"cybershield/backend/internal/models"
)

// Event types.
const (
	TypeCreated       = "complaint.created"
	TypeStatusChanged = "complaint.status_changed"
)

// DefaultChannel is the Redis channel and the MQTT topic suffix.
const DefaultChannel = "cybershield:complaints"

// Event is the wire format shared by every publisher.
type Event struct {
	Type         string              `json:"type"`
	TrackingCode string              `json:"trackingCode"`
	Status       models.Status       `json:"status"`
	IncidentType models.IncidentType `json:"incidentType"`
	Language     models.Language     `json:"language"`
	At           time.Time           `json:"at"`
}

// NewEvent snapshots the fields of c that subscribers care about.
func NewEvent(typ string, c *models.Complaint, at time.Time) Event {
	return Event{
		Type:         typ,
		TrackingCode: c.TrackingCode,
		Status:       c.Status,
		IncidentType: c.IncidentType,
		Language:     c.Language,
		At:           at.UTC(),
	}
}

// Encode returns the JSON payload.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(payload, &e)
	return e, err
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
