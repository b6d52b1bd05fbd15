package adapter

import "context"

// Notifier is the port for the human-facing notification sink. Delivery is
// at-least-once and best-effort: callers swallow errors, they never fail the
// pipeline on a lost notification.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
