package testutil

import (
	"context"
	"sync"

	"github.com/lexcore/lexcore/internal/domain/notification"
)

// InMemoryNotifier implements notification.Dispatcher and captures every
// dispatched notification for assertions
type InMemoryNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
	err  error
}

// NewInMemoryNotifier creates a new capturing dispatcher
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{}
}

// Dispatch captures one notification
func (n *InMemoryNotifier) Dispatch(ctx context.Context, msg *notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// Sent returns the dispatched notifications in order
func (n *InMemoryNotifier) Sent() []*notification.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notification.Notification(nil), n.sent...)
}

// SetError makes every subsequent Dispatch call fail with err
func (n *InMemoryNotifier) SetError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Clear removes all captured notifications
func (n *InMemoryNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
	n.err = nil
}
