package commands

import (
	"context"
	"time"

	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// NotSupported implements spec.md §4.3 notSupported: substituted when an
// exchange does not implement a feature. Sleeps 1s and returns; never an
// error, just a log line (the caller logs the substitution, not this type).
type NotSupported struct {
	Base
	Requested string
}

func (c *NotSupported) Name() string { return "notSupported" }

func (c *NotSupported) Execute(ctx context.Context) (scheduler.State, error) {
	select {
	case <-ctx.Done():
		return scheduler.Finished, ctx.Err()
	case <-time.After(time.Second):
	}
	return scheduler.Finished, nil
}

func (c *NotSupported) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}
