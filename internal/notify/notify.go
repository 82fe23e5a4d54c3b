// Package notify declares the single outbound capability the core consumes
// (spec.md §1 "Notification sinks... a single send(string) outbound").
package notify

import "context"

// Notifier is the out-of-scope collaborator that delivers the alert-extractor
// remainder text (spec.md §2 item 10, §6 "Outbound").
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Noop discards every message; used when no sink is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, message string) error { return nil }

// Multi fans a single Send out to every configured Notifier, collecting the
// first error but still attempting the rest.
type Multi struct {
	Sinks []Notifier
}

func (m Multi) Send(ctx context.Context, message string) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Send(ctx, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
