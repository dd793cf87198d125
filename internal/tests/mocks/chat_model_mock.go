package mocks

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelMock satisfies model.BaseChatModel and records every request.
type ChatModelMock struct {
	GenerateFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

	mu    sync.Mutex
	Calls [][]*schema.Message
}

func (m *ChatModelMock) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, input)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	return schema.AssistantMessage("", nil), nil
}

func (m *ChatModelMock) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// CallCount is safe to use while summaries run concurrently.
func (m *ChatModelMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
