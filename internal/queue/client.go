package queue

import (
	"context"
	"sync"
)

// Client sends analysis-run messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// MemoryClient records messages instead of delivering them. Err, when set,
// is returned from every Send.
type MemoryClient struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// Send appends msg unless Err is set.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages in send order.
func (m *MemoryClient) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

var _ Client = (*MemoryClient)(nil)
