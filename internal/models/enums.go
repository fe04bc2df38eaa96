package models

import (
	"strings"
)

// IncidentType is the closed set of complaint categories.
type IncidentType string

const (
	IncidentPhishingAttack IncidentType = "phishing_attack"
	IncidentRansomware     IncidentType = "ransomware"
	IncidentDataBreach     IncidentType = "data_breach"
	IncidentIdentityTheft  IncidentType = "identity_theft"
	IncidentUnknown        IncidentType = "unknown"
)

// IncidentTypes lists every category, unknown last.
var IncidentTypes = []IncidentType{
	IncidentPhishingAttack,
	IncidentRansomware,
	IncidentDataBreach,
	IncidentIdentityTheft,
	IncidentUnknown,
}

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentPhishingAttack, IncidentRansomware, IncidentDataBreach, IncidentIdentityTheft, IncidentUnknown:
		return true
	}
	return false
}

// Resolved reports whether the type is a concrete category.
func (t IncidentType) Resolved() bool {
	return t.Valid() && t != IncidentUnknown
}

// Formatted renders the type for email text: underscores become spaces and
// the first letter is capitalised ("phishing_attack" -> "Phishing attack").
func (t IncidentType) Formatted() string {
	s := strings.ReplaceAll(string(t), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Label is the tracking page label ("Phishing Attack", "Under Assessment").
func (t IncidentType) Label() string {
	if !t.Resolved() {
		return "Under Assessment"
	}
	words := strings.Split(string(t), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Status is the lifecycle state of a submitted complaint.
type Status string

const (
	StatusReceived           Status = "received"
	StatusUnderReview        Status = "under_review"
	StatusUnderInvestigation Status = "under_investigation"
	StatusResolved           Status = "resolved"
	StatusClosed             Status = "closed"
)

var statusOrder = map[Status]int{
	StatusReceived:           0,
	StatusUnderReview:        1,
	StatusUnderInvestigation: 2,
	StatusResolved:           3,
	StatusClosed:             4,
}

var statusLabels = map[Status]string{
	StatusReceived:           "Complaint Received",
	StatusUnderReview:        "Under Review",
	StatusUnderInvestigation: "Under Investigation",
	StatusResolved:           "Resolved",
	StatusClosed:             "Case Closed",
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Rank is the position of s in the lifecycle, -1 for unknown values.
func (s Status) Rank() int {
	if r, ok := statusOrder[s]; ok {
		return r
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle monotonic.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.Valid() && next.Rank() >= s.Rank()
}

// StatusesUpTo lists the statuses a complaint may be in for a move to next
// to be allowed, in lifecycle order. It is empty for an unknown next.
func StatusesUpTo(next Status) []Status {
	var out []Status
	for _, s := range []Status{StatusReceived, StatusUnderReview, StatusUnderInvestigation, StatusResolved, StatusClosed} {
		if s.CanAdvanceTo(next) {
			out = append(out, s)
		}
	}
	return out
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// InputMethod is how the user talks to the assistant.
type InputMethod string

const (
	InputText  InputMethod = "text"
	InputVoice InputMethod = "voice"
)

func (m InputMethod) Valid() bool {
	return m == InputText || m == InputVoice
}

// Sender tags a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)
