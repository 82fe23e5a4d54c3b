package commands

import (
	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/parser"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
	"github.com/inetpeople/instabot-trader/internal/session"
)

// defaultsFor returns the per-command default map from spec.md §4.3's
// contract list, in declaration order (positional items bind to this
// order).
func defaultsFor(name string) []args.Default {
	switch name {
	case "limitorder":
		return []args.Default{{Name: "side", Value: ""}, {Name: "amount", Value: "0"}, {Name: "offset", Value: "0"}, {Name: "postOnly", Value: "false"}, {Name: "reduceOnly", Value: "false"}, {Name: "tag", Value: ""}}
	case "marketorder":
		return []args.Default{{Name: "side", Value: ""}, {Name: "amount", Value: "0"}, {Name: "position", Value: ""}, {Name: "tag", Value: ""}}
	case "stopmarketorder":
		return []args.Default{{Name: "side", Value: ""}, {Name: "offset", Value: "0"}, {Name: "amount", Value: "0"}, {Name: "trigger", Value: "last"}, {Name: "tag", Value: ""}}
	case "scaledorder":
		return []args.Default{{Name: "side", Value: ""}, {Name: "amount", Value: "0"}, {Name: "from", Value: "0"}, {Name: "to", Value: "0"}, {Name: "slices", Value: "1"}, {Name: "tag", Value: ""}}
	case "trailingstop":
		return []args.Default{{Name: "side", Value: ""}, {Name: "offset", Value: "0"}, {Name: "amount", Value: "0"}, {Name: "position", Value: ""}, {Name: "trigger", Value: "last"}, {Name: "background", Value: "true"}, {Name: "tag", Value: ""}}
	case "trailingtakeprofit":
		return []args.Default{{Name: "side", Value: ""}, {Name: "offset", Value: "0"}, {Name: "triggerOffset", Value: "1%"}, {Name: "amount", Value: "0"}, {Name: "position", Value: ""}, {Name: "trigger", Value: "last"}, {Name: "background", Value: "true"}, {Name: "tag", Value: ""}}
	case "aggressiveentry":
		return []args.Default{{Name: "side", Value: ""}, {Name: "amount", Value: "0"}, {Name: "position", Value: ""}, {Name: "timeLimit", Value: ""}, {Name: "slippageLimit", Value: ""}, {Name: "tag", Value: ""}}
	case "stopandtakeprofitorder":
		return []args.Default{{Name: "side", Value: ""}, {Name: "tp", Value: "0"}, {Name: "sl", Value: "0"}, {Name: "amount", Value: "0"}, {Name: "tag", Value: ""}}
	case "wait":
		return []args.Default{{Name: "duration", Value: "0s"}}
	case "continueif", "stopif":
		return []args.Default{{Name: "if", Value: "always"}, {Name: "value", Value: ""}}
	case "notify":
		return []args.Default{{Name: "message", Value: ""}}
	case "cancelorders":
		return []args.Default{{Name: "which", Value: "all"}, {Name: "tag", Value: ""}, {Name: "id", Value: ""}}
	default:
		return nil
	}
}

// Build constructs the command named by action.Name using the exchange
// handle/session/symbol context, matching it to its default argument list
// and normalizing the parsed params (spec.md §4.1). Unknown command names
// become notSupported (spec.md §4.3).
func Build(handle *runtime.Handle, sess *session.Session, symbol string, action parser.Action) (scheduler.Command, error) {
	base := Base{Exchange: handle, Symbol: symbol, Session: sess}
	name := action.Name
	defaults := defaultsFor(name)
	a := args.Bind(defaults, action.Params)

	switch name {
	case "limitorder":
		return NewLimitOrder(base, a)
	case "marketorder":
		return NewMarketOrder(base, a)
	case "stopmarketorder":
		return NewStopMarketOrder(base, a)
	case "scaledorder":
		return NewScaledOrderFromArgs(base, a)
	case "trailingstop":
		return NewTrailingStop(base, a)
	case "trailingtakeprofit":
		return NewTrailingTakeProfit(base, a)
	case "aggressiveentry":
		return NewAggressiveEntry(base, a)
	case "stopandtakeprofitorder":
		return NewStopAndTakeProfitOrder(base, a)
	case "wait":
		return NewWait(base, a)
	case "continueif":
		return NewContinueIf(base, a)
	case "stopif":
		return NewStopIf(base, a)
	case "notify":
		return NewNotify(base, a)
	case "cancelorders":
		return NewCancelOrders(base, a)
	default:
		return &NotSupported{Base: base, Requested: name}, nil
	}
}
