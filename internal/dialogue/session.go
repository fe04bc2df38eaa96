package dialogue

import (
	"time"

	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"
)

// Field names a complaint slot the dialogue fills.
type Field string

const (
	FieldNone          Field = ""
	FieldFullName      Field = "fullName"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldDescription   Field = "incidentDescription"
	FieldIncidentDate  Field = "incidentDate"
	FieldFinancialLoss Field = "financialLoss"
)

// Session is one complaint-filing conversation. It lives only in memory and
// is owned by the hub goroutine; everything handed out is a Snapshot.
type Session struct {
	ID           string             `json:"id"`
	Language     models.Language    `json:"language"`
	Draft        *models.Complaint  `json:"draft"`
	Transcript   []models.Message   `json:"transcript"`
	InputMethod  models.InputMethod `json:"inputMethod"`
	FormComplete bool               `json:"formComplete"`
	PendingEdit  Field              `json:"pendingEdit,omitempty"`
	Speech       *speech.Adapter    `json:"speech"`
	Submitting   bool               `json:"submitting"`
	Result       *models.Complaint  `json:"result,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	LastActive   time.Time          `json:"lastActive"`

	pending *pendingTurn
}

type pendingTurn struct {
	turn  Turn
	reply chan turnResult
}

func newSession(id string, lang models.Language, method models.InputMethod, now time.Time) *Session {
	if !lang.Valid() {
		lang = models.DefaultLanguage
	}
	if !method.Valid() {
		method = models.InputText
	}
	return &Session{
		ID:          id,
		Language:    lang,
		InputMethod: method,
		Speech:      speech.NewAdapter(localization.SpeechLocale(lang)),
		CreatedAt:   now,
		LastActive:  now,
	}
}

// Snapshot is a deep copy safe to hand to other goroutines.
func (s *Session) Snapshot() *Session {
	out := *s
	out.pending = nil
	if s.Draft != nil {
		out.Draft = s.Draft.Clone()
	}
	if s.Result != nil {
		out.Result = s.Result.Clone()
	}
	out.Transcript = append([]models.Message(nil), s.Transcript...)
	sp := *s.Speech
	out.Speech = &sp
	return &out
}

func (s *Session) say(sender models.Sender, content string, at time.Time) models.Message {
	m := models.Message{Sender: sender, Content: content, At: at}
	s.Transcript = append(s.Transcript, m)
	return m
}
