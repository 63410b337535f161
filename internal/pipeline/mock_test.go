package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/pkg/anthropic"
)

// mockAnthropicClient mocks anthropic.Client.
type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// captureRecorder collects operation records for assertions.
type captureRecorder struct {
	mu     sync.Mutex
	ops    []model.OperationRecord
	errors []string
}

func (c *captureRecorder) Record(_ context.Context, op model.OperationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, op)
}

func (c *captureRecorder) RecordError(_ context.Context, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, message)
}
