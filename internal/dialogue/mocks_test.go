package dialogue

import (
	"context"
	"sync"

	"cybershield/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string, lang models.Language) (models.ExtractedInfo, error) {
	args := m.Called(ctx, text, lang)
	return args.Get(0).(models.ExtractedInfo), args.Error(1)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, draft *models.Complaint) (*models.Complaint, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

// fakeClient records frames pushed by the hub.
type fakeClient struct {
	id     string
	frames chan Frame

	mu     sync.Mutex
	closed bool
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, frames: make(chan Frame, 64)}
}

func (c *fakeClient) SessionID() string  { return c.id }
func (c *fakeClient) Send() chan<- Frame { return c.frames }
func (c *fakeClient) Run()               {}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	close(c.frames)
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) drain() []Frame {
	var out []Frame
	for {
		select {
		case f, ok := <-c.frames:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}
