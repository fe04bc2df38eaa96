package dialogue

import (
	"time"

	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"
)

// Frame types pushed to transport clients.
const (
	FrameMessage   = "message"
	FrameDirective = "directive"
	FrameComplaint = "complaint"
	FrameError     = "error"
)

// Frame is one server-to-client push.
type Frame struct {
	Type       string             `json:"type"`
	Message    *models.Message    `json:"message,omitempty"`
	DelayMs    int64              `json:"delayMs,omitempty"`
	Directives []speech.Directive `json:"directives,omitempty"`
	Complaint  *models.Complaint  `json:"complaint,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func messageFrame(m models.Message, delay time.Duration) Frame {
	return Frame{Type: FrameMessage, Message: &m, DelayMs: delay.Milliseconds()}
}

// directiveFrame returns a zero Frame when there is nothing to send.
func directiveFrame(ds []speech.Directive) Frame {
	if len(ds) == 0 {
		return Frame{}
	}
	return Frame{Type: FrameDirective, Directives: ds}
}

// Client is the interface for any connection attached to a session (e.g.,
// WebSocket). The hub writes to Send and is the only caller of Close.
type Client interface {
	// SessionID returns the session the client is attached to.
	SessionID() string
	// Send returns the channel the hub pushes frames into.
	Send() chan<- Frame
	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the outgoing channel, which ends the write pump.
	Close()
}
