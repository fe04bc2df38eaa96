package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DefaultTrackingPrefix is used when no prefix is configured.
const DefaultTrackingPrefix = "CS"

const (
	trackingAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingCodeLength = 8
	// MinTrackingCodeLength is the shortest code a lookup accepts.
	MinTrackingCodeLength = 8
)

// Complaint is a cybersecurity complaint, either a dialogue draft or a submitted record.
type Complaint struct {
	ID                  uint           `gorm:"primaryKey" json:"-"`
	TrackingCode        string         `gorm:"uniqueIndex;size:32" json:"trackingCode"`
	FullName            string         `json:"fullName" validate:"required"`
	Email               string         `json:"email" validate:"required"`
	Phone               string         `json:"phone"`
	Address             string         `json:"address"`
	IncidentType        IncidentType   `gorm:"size:32;default:unknown" json:"incidentType" validate:"incident_type"`
	IncidentDate        string         `json:"incidentDate"`
	IncidentDescription string         `json:"incidentDescription" validate:"required"`
	FinancialLoss       string         `json:"financialLoss"`
	PartiesInvolved     string         `json:"partiesInvolved"`
	AdditionalNotes     string         `json:"additionalNotes"`
	ContactConsent      bool           `gorm:"default:false" json:"contactConsent"`
	Status              Status         `gorm:"size:32;default:received" json:"status" validate:"status"`
	Language            Language       `gorm:"size:16;default:english" json:"language" validate:"language"`
	SafetyTips          pq.StringArray `gorm:"type:text[]" json:"safetyTips,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	LastUpdated         time.Time      `json:"lastUpdated"`
}

// BeforeCreate is a GORM hook. It fills the tracking code and lifecycle defaults
// when the caller left them empty.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.TrackingCode == "" {
		c.TrackingCode = NewTrackingCode(DefaultTrackingPrefix)
	}
	c.ApplyDefaults(time.Now())
	return
}

// ApplyDefaults sets status, language, type and timestamps that are still zero.
func (c *Complaint) ApplyDefaults(now time.Time) {
	if c.Status == "" {
		c.Status = StatusReceived
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.IncidentType == "" {
		c.IncidentType = IncidentUnknown
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = c.CreatedAt
	}
}

// Merge copies every non-empty extracted field over the complaint. Later
// calls win, there is no conflict resolution beyond overwrite.
func (c *Complaint) Merge(info ExtractedInfo) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.FullName, info.FullName)
	set(&c.Email, info.Email)
	set(&c.Phone, info.Phone)
	set(&c.Address, info.Address)
	set(&c.IncidentDate, info.IncidentDate)
	set(&c.IncidentDescription, info.IncidentDescription)
	set(&c.FinancialLoss, info.FinancialLoss)
	set(&c.PartiesInvolved, info.PartiesInvolved)

	if info.IncidentType.Resolved() && !c.IncidentType.Resolved() {
		c.IncidentType = info.IncidentType
	}
}

// Clone returns a copy that shares no slices with c.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.SafetyTips != nil {
		out.SafetyTips = append(pq.StringArray(nil), c.SafetyTips...)
	}
	return &out
}

// NewTrackingCode returns "<PREFIX>-XXXXXXXX" with eight characters from A-Z0-9.
// The prefix is upper-cased so codes always match a normalized lookup.
func NewTrackingCode(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultTrackingPrefix
	}
	id := uuid.New()
	var b strings.Builder
	b.Grow(len(prefix) + 1 + trackingCodeLength)
	b.WriteString(prefix)
	b.WriteByte('-')
	// bytes 6 and 8 carry the uuid version and variant bits
	for _, i := range [trackingCodeLength]int{0, 1, 2, 3, 4, 5, 10, 11} {
		b.WriteByte(trackingAlphabet[int(id[i])%len(trackingAlphabet)])
	}
	return b.String()
}

// ExtractedInfo is the partial field set the extractor pulls out of free text.
type ExtractedInfo struct {
	FullName            string       `json:"fullName,omitempty"`
	Email               string       `json:"email,omitempty"`
	Phone               string       `json:"phone,omitempty"`
	Address             string       `json:"address,omitempty"`
	IncidentDate        string       `json:"incidentDate,omitempty"`
	IncidentDescription string       `json:"incidentDescription,omitempty"`
	FinancialLoss       string       `json:"financialLoss,omitempty"`
	PartiesInvolved     string       `json:"partiesInvolved,omitempty"`
	IncidentType        IncidentType `json:"incidentType,omitempty"`
}

// Empty reports whether nothing was extracted.
func (e ExtractedInfo) Empty() bool {
	return e == ExtractedInfo{}
}

// Message is one transcript entry.
type Message struct {
	Sender  Sender    `json:"sender"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}
