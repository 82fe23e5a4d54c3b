package commands

import (
	"context"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// Notify implements the notify(message) command from spec.md §2's
// catalogue (supplemented in SPEC_FULL.md §C, since §4.3 omits its
// contract): a single raw-string message argument, calls the exchange's
// notifier with the literal text, Finished immediately, never suspends.
type Notify struct {
	Base
	Message string
}

func NewNotify(b Base, a args.Args) (*Notify, error) {
	return &Notify{Base: b, Message: a.GetOr("message", "")}, nil
}

func (c *Notify) Name() string { return "notify" }

func (c *Notify) Execute(ctx context.Context) (scheduler.State, error) {
	if c.Message != "" && c.Exchange.Notifier != nil {
		_ = c.Exchange.Notifier.Send(ctx, c.Message)
	}
	return scheduler.Finished, nil
}

func (c *Notify) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}
