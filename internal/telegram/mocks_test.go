package telegram

import (
	"context"
	"sync"
	"time"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

// fakeSender records what the bot sends.
type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Text)
	}
	return out
}

type MockTrackStorage struct {
	mock.Mock
}

func (m *MockTrackStorage) Track(ctx context.Context, code string) (*models.Complaint, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

type MockHub struct {
	mock.Mock
}

func (m *MockHub) Open(ctx context.Context, id string, lang models.Language, method models.InputMethod) (*dialogue.Session, []speech.Directive, error) {
	args := m.Called(ctx, id, lang, method)
	return nil, nil, args.Error(0)
}

func (m *MockHub) Turn(ctx context.Context, id, text string) (dialogue.Turn, *dialogue.Session, error) {
	args := m.Called(ctx, id, text)
	return dialogue.Turn{}, nil, args.Error(0)
}

func (m *MockHub) Reset(ctx context.Context, id string) (*dialogue.Session, error) {
	args := m.Called(ctx, id)
	return nil, args.Error(0)
}

func (m *MockHub) Register(c dialogue.Client) {
	m.Called(c)
	c.Close()
}

// recordingHub records turns in arrival order and how many ran at once.
type recordingHub struct {
	MockHub
	mu      sync.Mutex
	texts   []string
	running int
	peak    int
}

func (h *recordingHub) Turn(ctx context.Context, id, text string) (dialogue.Turn, *dialogue.Session, error) {
	h.mu.Lock()
	h.running++
	if h.running > h.peak {
		h.peak = h.running
	}
	first := len(h.texts) == 0
	h.texts = append(h.texts, text)
	h.mu.Unlock()

	if first {
		time.Sleep(50 * time.Millisecond)
	}

	h.mu.Lock()
	h.running--
	h.mu.Unlock()
	return dialogue.Turn{}, nil, nil
}

func (h *recordingHub) seen() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...), h.peak
}
