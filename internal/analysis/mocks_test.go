package analysis_test

import (
	"context"
	"strings"

	"cybershield/backend/internal/llm"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Name() string { return "mock" }

// promptContains matches requests whose prompt includes s.
func promptContains(s string) any {
	return mock.MatchedBy(func(req llm.Request) bool {
		return strings.Contains(req.Prompt, s)
	})
}
