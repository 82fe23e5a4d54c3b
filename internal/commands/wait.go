package commands

import (
	"context"
	"time"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/exprx"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// Wait implements spec.md §4.3 wait(duration): sleeps duration seconds,
// parsed by the expression evaluator.
type Wait struct {
	Base
	Duration time.Duration
}

func NewWait(b Base, a args.Args) (*Wait, error) {
	d, err := exprx.ParseDuration(a.GetOr("duration", "0s"))
	if err != nil {
		return nil, err
	}
	return &Wait{Base: b, Duration: d}, nil
}

func (c *Wait) Name() string { return "wait" }

func (c *Wait) Execute(ctx context.Context) (scheduler.State, error) {
	select {
	case <-ctx.Done():
		return scheduler.Finished, ctx.Err()
	case <-time.After(c.Duration):
	}
	return scheduler.Finished, nil
}

func (c *Wait) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}
