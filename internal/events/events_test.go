package events_test

import (
	"context"
	"testing"
	"time"

	"cybershield/backend/internal/events"
	"cybershield/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RoundTrip(t *testing.T) {
	// Arrange
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	c := &models.Complaint{
		TrackingCode: "CS-ZX81QW00",
		Status:       models.StatusUnderReview,
		IncidentType: models.IncidentRansomware,
		Language:     models.LanguageTamil,
	}

	// Act
	payload, err := events.NewEvent(events.TypeStatusChanged, c, at).Encode()
	require.NoError(t, err)
	got, err := events.Decode(payload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, events.TypeStatusChanged, got.Type)
	assert.Equal(t, "CS-ZX81QW00", got.TrackingCode)
	assert.Equal(t, models.StatusUnderReview, got.Status)
	assert.Equal(t, time.UTC, got.At.Location())
	assert.JSONEq(t,
		`{"type":"complaint.status_changed","trackingCode":"CS-ZX81QW00","status":"under_review","incidentType":"ransomware","language":"tamil","at":"2026-05-01T06:30:00Z"}`,
		string(payload))
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := events.Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestTopicComplaints(t *testing.T) {
	assert.Equal(t, "cybershield/complaints", events.TopicComplaints("cybershield"))
	assert.Equal(t, "a/b/complaints", events.TopicComplaints("a/b/"))
}

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{}))
	assert.NoError(t, p.Close())
}
