package complaint

import (
	"context"

	"cybershield/backend/internal/events"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/notify"

	"github.com/stretchr/testify/mock"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, description string) models.IncidentType {
	args := m.Called(ctx, description)
	return args.Get(0).(models.IncidentType)
}

type MockGuide struct {
	mock.Mock
}

func (m *MockGuide) Tips(ctx context.Context, c *models.Complaint) ([]string, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockComposer struct {
	mock.Mock
}

func (m *MockComposer) Confirmation(c *models.Complaint, tips []string) (notify.Message, error) {
	args := m.Called(c, tips)
	return args.Get(0).(notify.Message), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

func eventOfType(typ string) any {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == typ })
}
