package notify

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
)

//go:embed templates/confirmation.html
var templates embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templates, "templates/confirmation.html"))

type detail struct {
	Label string
	Value string
}

type confirmationView struct {
	Complaint         *models.Complaint
	Heading           string
	Greeting          string
	Intro             string
	TrackingLabel     string
	IncidentTypeLabel string
	IncidentType      string
	DateReportedLabel string
	DateReported      string
	StatusLabel       string
	Status            string
	DetailsLabel      string
	Details           []detail
	TipsLabel         string
	Tips              []string
	Footer            string
}

// Composer renders confirmation emails in the complaint's language.
type Composer struct {
	Localizer *localization.Localizer
}

func NewComposer(l *localization.Localizer) *Composer {
	return &Composer{Localizer: l}
}

// Confirmation builds the email for a persisted complaint with its guidance.
func (c *Composer) Confirmation(record *models.Complaint, tips []string) (Message, error) {
	lang := record.Language
	get := func(key string) string { return c.Localizer.GetString(lang, key) }

	var details []detail
	add := func(label, value string) {
		if value != "" {
			details = append(details, detail{Label: label, Value: value})
		}
	}
	add("Full name", record.FullName)
	add("Email", record.Email)
	add("Phone", record.Phone)
	add("Address", record.Address)
	add("Incident date", record.IncidentDate)
	add("Description", record.IncidentDescription)
	add("Financial loss", record.FinancialLoss)
	add("Parties involved", record.PartiesInvolved)
	add("Additional notes", record.AdditionalNotes)

	view := confirmationView{
		Complaint:         record,
		Heading:           get("email_heading"),
		Greeting:          c.Localizer.Format(lang, "email_greeting", record.FullName),
		Intro:             get("email_intro"),
		TrackingLabel:     get("email_tracking"),
		IncidentTypeLabel: get("email_incident_type"),
		IncidentType:      record.IncidentType.Formatted(),
		DateReportedLabel: get("email_date_reported"),
		DateReported:      record.CreatedAt.Format(time.DateOnly),
		StatusLabel:       get("email_status"),
		Status:            record.Status.Label(),
		DetailsLabel:      get("email_details"),
		Details:           details,
		TipsLabel:         get("email_tips"),
		Tips:              tips,
		Footer:            get("email_footer"),
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, view); err != nil {
		return Message{}, err
	}
	return Message{To: record.Email, Subject: get("email_subject"), HTML: buf.String()}, nil
}
