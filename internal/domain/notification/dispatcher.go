package notification

import "context"

// Dispatcher delivers notifications to their recipients. Delivery transport
// (sockets, email) lives outside the core; dispatch failures are logged by
// callers, never propagated into the mutation that produced them.
type Dispatcher interface {
	// Dispatch delivers one notification
	Dispatch(ctx context.Context, n *Notification) error
}
