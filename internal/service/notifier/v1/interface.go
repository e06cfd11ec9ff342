// Package notifier provides best-effort user notification delivery.
package notifier

import "context"

// Notifier defines a set of methods for types implementing Notifier.
// Callers treat delivery as best-effort, failures are logged and swallowed.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
