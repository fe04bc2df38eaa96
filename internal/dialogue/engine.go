// Package dialogue runs complaint-filing conversations: a slot-filling
// engine decides every reply and a single hub goroutine owns all sessions.
package dialogue

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"
)

// Turn is the outcome of one user utterance.
type Turn struct {
	SessionID string `json:"sessionId"`
	// Ignored is set for blank utterances, which change nothing.
	Ignored      bool               `json:"ignored,omitempty"`
	Messages     []models.Message   `json:"messages"`
	ReplyKey     string             `json:"replyKey,omitempty"`
	Reply        string             `json:"reply,omitempty"`
	ReplyDelay   time.Duration      `json:"-"`
	ReplyDelayMs int64              `json:"replyDelayMs"`
	Field        Field              `json:"field,omitempty"`
	FormComplete bool               `json:"formComplete"`
	Submit       bool               `json:"submit,omitempty"`
	Directives   []speech.Directive `json:"directives,omitempty"`
	Complaint    *models.Complaint  `json:"complaint,omitempty"`
	SubmitError  string             `json:"submitError,omitempty"`
}

// Engine applies the slot-filling rules. It mutates only the session passed
// in and keeps no state of its own.
type Engine struct {
	Localizer *localization.Localizer
	Now       func() time.Time
}

func NewEngine(l *localization.Localizer) *Engine {
	return &Engine{Localizer: l, Now: time.Now}
}

// Begin starts (or restarts) a session: empty draft in the session language
// and the localized welcome as the only transcript entry.
func (e *Engine) Begin(s *Session) []speech.Directive {
	now := e.Now()
	s.Draft = &models.Complaint{Language: s.Language}
	s.Transcript = nil
	s.FormComplete = false
	s.PendingEdit = FieldNone
	s.Submitting = false
	s.Result = nil
	s.LastActive = now

	welcome := e.Localizer.GetString(s.Language, localization.KeyWelcome)
	s.say(models.SenderBot, welcome, now)

	ds := s.Speech.Cancel()
	ds = append(ds, s.Speech.StopListening()...)
	ds = append(ds, s.Speech.Speak(welcome, 0)...)
	if s.InputMethod == models.InputVoice {
		ds = append(ds, s.Speech.ScheduleListen(config.ListenRestartDelay)...)
	}
	return ds
}

// Step records the utterance, fills at most one field and picks the reply.
func (e *Engine) Step(s *Session, utterance string) Turn {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Turn{SessionID: s.ID, Ignored: true, FormComplete: s.FormComplete}
	}
	if s.Draft == nil {
		s.Draft = &models.Complaint{Language: s.Language}
	}

	key, field := e.decide(s, text)
	turn := e.reply(s, text, key)
	turn.Field = field
	turn.Submit = key == localization.KeySubmitting
	return turn
}

// Busy answers an utterance received while a submission is in flight.
func (e *Engine) Busy(s *Session, utterance string) Turn {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Turn{SessionID: s.ID, Ignored: true, FormComplete: s.FormComplete}
	}
	return e.reply(s, text, localization.KeySubmitting)
}

func (e *Engine) reply(s *Session, text, key string) Turn {
	now := e.Now()
	s.LastActive = now
	user := s.say(models.SenderUser, text, now)
	reply := e.Localizer.GetString(s.Language, key)
	bot := s.say(models.SenderBot, reply, now.Add(config.BotReplyDelay))

	return Turn{
		SessionID:    s.ID,
		Messages:     []models.Message{user, bot},
		ReplyKey:     key,
		Reply:        reply,
		ReplyDelay:   config.BotReplyDelay,
		ReplyDelayMs: config.BotReplyDelay.Milliseconds(),
		FormComplete: s.FormComplete,
		Directives:   e.speak(s, reply, config.BotReplyDelay),
	}
}

// Announce appends a bot message outside a user turn, e.g. a submission outcome.
func (e *Engine) Announce(s *Session, text string) (models.Message, []speech.Directive) {
	m := s.say(models.SenderBot, text, e.Now())
	return m, e.speak(s, text, 0)
}

func (e *Engine) speak(s *Session, text string, after time.Duration) []speech.Directive {
	var ds []speech.Directive
	if s.InputMethod == models.InputVoice {
		ds = append(ds, s.Speech.StopListening()...)
	}
	ds = append(ds, s.Speech.Speak(text, after)...)
	if s.InputMethod == models.InputVoice {
		ds = append(ds, s.Speech.ScheduleListen(config.ListenRestartDelay)...)
	}
	return ds
}

func (e *Engine) decide(s *Session, text string) (string, Field) {
	d := s.Draft

	switch {
	case d.FullName == "":
		d.FullName = text
		return localization.KeyAskEmail, FieldFullName
	case d.Email == "" && validFor(FieldEmail, text):
		d.Email = text
		return localization.KeyAskPhone, FieldEmail
	case d.Phone == "" && validFor(FieldPhone, text):
		d.Phone = text
		return localization.KeyAskIncident, FieldPhone
	case d.IncidentDescription == "" && validFor(FieldDescription, text):
		d.IncidentDescription = text
		return localization.KeyAskDate, FieldDescription
	case d.IncidentDate == "":
		d.IncidentDate = e.Now().Format(time.DateOnly)
		return localization.KeyAskFinancialLoss, FieldIncidentDate
	case d.FinancialLoss == "":
		d.FinancialLoss = text
		s.FormComplete = true
		return localization.KeyFormComplete, FieldFinancialLoss
	}

	// Commands take precedence over a pending edit so "submit" or a new
	// "edit ..." is never stored as a field value.
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "edit"):
		field := editTarget(lower)
		s.PendingEdit = field
		if field == FieldNone {
			return localization.KeyEditWhich, FieldNone
		}
		return editKeys[field], FieldNone
	case strings.Contains(lower, "submit"):
		s.PendingEdit = FieldNone
		return localization.KeySubmitting, FieldNone
	}

	if s.PendingEdit != FieldNone {
		field := s.PendingEdit
		if !validFor(field, text) {
			return editKeys[field], FieldNone
		}
		setField(d, field, text)
		s.PendingEdit = FieldNone
		return localization.KeyAdditional, field
	}
	return localization.KeyAdditional, FieldNone
}

var editKeys = map[Field]string{
	FieldFullName:    localization.KeyEditName,
	FieldEmail:       localization.KeyEditEmail,
	FieldPhone:       localization.KeyEditPhone,
	FieldDescription: localization.KeyEditIncident,
}

func editTarget(lower string) Field {
	switch {
	case strings.Contains(lower, "name"):
		return FieldFullName
	case strings.Contains(lower, "email"):
		return FieldEmail
	case strings.Contains(lower, "phone"):
		return FieldPhone
	case strings.Contains(lower, "description"), strings.Contains(lower, "incident"):
		return FieldDescription
	}
	return FieldNone
}

func validFor(f Field, text string) bool {
	switch f {
	case FieldEmail:
		return strings.Contains(text, "@")
	case FieldPhone:
		return strings.IndexFunc(text, unicode.IsDigit) >= 0
	case FieldDescription:
		return utf8.RuneCountInString(text) > config.MinDescriptionLength
	}
	return text != ""
}

func setField(d *models.Complaint, f Field, v string) {
	switch f {
	case FieldFullName:
		d.FullName = v
	case FieldEmail:
		d.Email = v
	case FieldPhone:
		d.Phone = v
	case FieldDescription:
		d.IncidentDescription = v
	}
}
