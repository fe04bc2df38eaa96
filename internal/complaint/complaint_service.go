// Package complaint is the submission pipeline: it validates drafts,
// classifies them, persists them and fans out guidance, the confirmation
// email and lifecycle events.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"cybershield/backend/internal/events"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/notify"
	"cybershield/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// ErrStatusRegression is returned when a status change would move a
// complaint backwards in its lifecycle. The store enforces it.
var ErrStatusRegression = storage.ErrStatusRegression

// ValidationError lists the fields a draft failed on.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid complaint: " + strings.Join(e.Fields, ", ")
}

// Classifier assigns an incident category to a description.
type Classifier interface {
	Classify(ctx context.Context, description string) models.IncidentType
}

// Guide writes safety tips. It returns usable tips even alongside an error.
type Guide interface {
	Tips(ctx context.Context, c *models.Complaint) ([]string, error)
}

// Composer renders the confirmation email.
type Composer interface {
	Confirmation(c *models.Complaint, tips []string) (notify.Message, error)
}

// Service handles the business logic for complaints.
type Service struct {
	Storage    storage.Storage
	Classifier Classifier
	Guide      Guide
	Composer   Composer
	Mailer     notify.Mailer
	Events     events.Publisher

	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new complaint service. Nil collaborators for the
// best-effort steps are replaced with no-ops.
func NewService(s storage.Storage, c Classifier, g Guide, comp Composer, m notify.Mailer, p events.Publisher) *Service {
	if m == nil {
		m = notify.LogMailer{}
	}
	if p == nil {
		p = events.Nop{}
	}
	return &Service{
		Storage:    s,
		Classifier: c,
		Guide:      g,
		Composer:   comp,
		Mailer:     m,
		Events:     p,
		validate:   newValidator(),
		now:        time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("incident_type", func(fl validator.FieldLevel) bool {
		return models.IncidentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return models.Language(fl.Field().String()).Valid()
	})
	return v
}

// Normalize trims every text field and fills the submission defaults.
func (s *Service) Normalize(draft *models.Complaint) *models.Complaint {
	c := draft.Clone()
	for _, f := range []*string{
		&c.TrackingCode, &c.FullName, &c.Email, &c.Phone, &c.Address, &c.IncidentDate,
		&c.IncidentDescription, &c.FinancialLoss, &c.PartiesInvolved, &c.AdditionalNotes,
	} {
		*f = strings.TrimSpace(*f)
	}
	c.TrackingCode = strings.ToUpper(c.TrackingCode)
	if c.Language == "" {
		c.Language = models.DefaultLanguage
	}
	if c.IncidentType == "" {
		c.IncidentType = models.IncidentUnknown
	}
	if c.IncidentDate == "" {
		c.IncidentDate = s.now().Format(time.DateOnly)
	}
	c.Status = models.StatusReceived
	c.SafetyTips = nil
	c.ID = 0
	c.CreatedAt = time.Time{}
	c.LastUpdated = time.Time{}
	return c
}

// Validate checks a normalized draft.
func (s *Service) Validate(c *models.Complaint) error {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			ve.Fields = append(ve.Fields, fe.Field()+" is required")
		} else {
			ve.Fields = append(ve.Fields, fmt.Sprintf("%s %q is not supported", fe.Field(), fe.Value()))
		}
	}
	return ve
}

// Submit turns a draft into a stored complaint. Guidance, the confirmation
// email and the created event are best-effort: their failures are logged and
// never fail the submission.
func (s *Service) Submit(ctx context.Context, draft *models.Complaint) (*models.Complaint, error) {
	c := s.Normalize(draft)
	if err := s.Validate(c); err != nil {
		return nil, err
	}

	if !c.IncidentType.Resolved() && s.Classifier != nil {
		c.IncidentType = s.Classifier.Classify(ctx, c.IncidentDescription)
	}

	if err := s.Storage.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("complaint: persist: %w", err)
	}
	log.Printf("INFO: complaint %s created (%s, %s)", c.TrackingCode, c.IncidentType, c.Language)

	var g errgroup.Group
	var tips []string
	g.Go(func() error {
		tips = s.guidance(ctx, c)
		s.sendConfirmation(ctx, c, tips)
		return nil
	})
	g.Go(func() error {
		s.publish(ctx, events.NewEvent(events.TypeCreated, c, s.now()))
		return nil
	})
	_ = g.Wait()

	c.SafetyTips = tips
	return c, nil
}

func (s *Service) guidance(ctx context.Context, c *models.Complaint) []string {
	if s.Guide == nil {
		return nil
	}
	tips, err := s.Guide.Tips(ctx, c)
	if err != nil {
		log.Printf("WARNING: guidance for %s: %v", c.TrackingCode, err)
	}
	return tips
}

func (s *Service) sendConfirmation(ctx context.Context, c *models.Complaint, tips []string) {
	if s.Composer == nil {
		return
	}
	msg, err := s.Composer.Confirmation(c, tips)
	if err != nil {
		log.Printf("ERROR: rendering confirmation for %s: %v", c.TrackingCode, err)
		return
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		log.Printf("ERROR: sending confirmation for %s: %v", c.TrackingCode, err)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		log.Printf("ERROR: publishing %s for %s: %v", e.Type, e.TrackingCode, err)
	}
}

// AdvanceStatus moves a complaint forward in its lifecycle. Setting the
// current status again is allowed and refreshes lastUpdated.
func (s *Service) AdvanceStatus(ctx context.Context, code string, status models.Status) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: []string{fmt.Sprintf("status %q is not supported", status)}}
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	updated, err := s.Storage.UpdateStatus(ctx, code, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.TypeStatusChanged, updated, s.now()))
	return updated, nil
}

// Track looks a complaint up by its tracking code.
func (s *Service) Track(ctx context.Context, code string) (*models.Complaint, error) {
	return s.Storage.GetByTrackingCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// List returns every complaint, oldest first.
func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	return s.Storage.ListAll(ctx)
}
