package testhelpers

import (
	"context"

	"nutrition-tracker/internal/core/ai/provider"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock implementation of provider.Provider
type MockProvider struct {
	mock.Mock
	configured bool
}

// NewMockProvider returns a mock that reports a configured credential
func NewMockProvider() *MockProvider {
	return &MockProvider{configured: true}
}

// NewUnconfiguredProvider returns a mock without a credential; any call fails the test
func NewUnconfiguredProvider() *MockProvider {
	return &MockProvider{configured: false}
}

func (m *MockProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Response), args.Error(1)
}

func (m *MockProvider) GenerateImage(ctx context.Context, req *provider.ImageRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Transcribe(ctx context.Context, req *provider.TranscriptionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Configured() bool {
	return m.configured
}

func (m *MockProvider) Close() error {
	return nil
}

// Reply builds a successful generation response
func Reply(content string) *provider.Response {
	return &provider.Response{Content: content}
}

// Task matches a request by task name
func Task(task string) interface{} {
	return mock.MatchedBy(func(r *provider.Request) bool { return r.Task == task })
}
