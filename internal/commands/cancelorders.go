package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/session"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// CancelOrders implements spec.md §4.3 cancelOrders(who, which, tag?):
// marks matching algo-order entries cancelled. "which" selects the
// predicate: all (within session), session (all of this session), tagged
// (by tag, within session), id (by uuid, in any session). "who" is not one
// of the bound arguments, so args.Bind discards it.
type CancelOrders struct {
	Base
	Which session.Which
	TagArg string
	IDArg  string
}

func NewCancelOrders(b Base, a args.Args) (*CancelOrders, error) {
	return &CancelOrders{
		Base:   b,
		Which:  session.Which(a.GetOr("which", "all")),
		TagArg: a.GetOr("tag", ""),
		IDArg:  a.GetOr("id", ""),
	}, nil
}

func (c *CancelOrders) Name() string { return "cancelOrders" }

func (c *CancelOrders) Execute(ctx context.Context) (scheduler.State, error) {
	var id uuid.UUID
	if c.IDArg != "" {
		id, _ = uuid.Parse(c.IDArg)
	}
	c.Exchange.Registry.Cancel(c.Which, c.Session.ID, c.TagArg, id)
	return scheduler.Finished, nil
}

func (c *CancelOrders) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}
