// Package manager implements the exchange manager from spec.md §4.5: a
// reference-counted pool of open exchanges keyed by credentials, and
// executeMessage, which turns one inbound webhook message into a set of
// per-exchange command sequences run concurrently across exchanges and
// serially within one.
package manager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/inetpeople/instabot-trader/internal/alert"
	"github.com/inetpeople/instabot-trader/internal/commands"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/parser"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
	"github.com/inetpeople/instabot-trader/internal/session"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// closeGrace is the teardown grace window from spec.md §5 "tears down at
// zero after a 500 ms grace window to absorb late callbacks".
const closeGrace = 500 * time.Millisecond

// Credentials is the opaque-to-core identity record from spec.md §3's data
// model row: "Opaque to core; equality defines exchange-pool identity."
type Credentials struct {
	Name       string
	Exchange   string
	Key        string
	Secret     string
	Passphrase string
	Endpoint   string
}

// Connect constructs a live exchangeapi.Port for one credentials record. The
// manager is deliberately connector-agnostic: callers wire in whichever of
// internal/connector/{refrest,binance,fake} applies to cred.Exchange.
type Connect func(ctx context.Context, cred Credentials) (exchangeapi.Port, error)

// Manager owns the pool of open exchange handles and the credentials list
// used to resolve a parsed block's exchange name to a connection.
type Manager struct {
	connect     Connect
	notifier    notify.Notifier
	minDelay    time.Duration
	maxDelay    time.Duration
	credentials []Credentials

	mu   sync.Mutex
	pool map[Credentials]*entry

	log *utils.Logger
}

type entry struct {
	handle   *runtime.Handle
	refcount int
}

// New constructs a Manager. minDelay/maxDelay are the scheduler polling
// bounds from spec.md §5; credentials is the ordered list from §6
// "Configuration", consulted in order so the first exchange-name match wins.
func New(connect Connect, notifier notify.Notifier, minDelay, maxDelay time.Duration, credentials []Credentials) *Manager {
	return &Manager{
		connect:     connect,
		notifier:    notifier,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		credentials: credentials,
		pool:        make(map[Credentials]*entry),
		log:         utils.L().WithComponent("manager"),
	}
}

// matchCredentials returns the first credentials record whose Exchange field
// case-insensitively matches exchangeName (spec.md §4.5 step 2, §6 "The
// first record matching the block's exchange name wins").
func (m *Manager) matchCredentials(exchangeName string) (Credentials, bool) {
	for _, c := range m.credentials {
		if strings.EqualFold(c.Exchange, exchangeName) {
			return c, true
		}
	}
	return Credentials{}, false
}

// openExchange returns the pooled handle for cred, incrementing its
// refcount, or constructs and inits a new one (spec.md §4.5 "openExchange
// returns the existing entry (incrementing refcount) or constructs one and
// calls init(); init failure tears the partial entry down").
func (m *Manager) openExchange(ctx context.Context, cred Credentials) (*runtime.Handle, error) {
	m.mu.Lock()
	if e, ok := m.pool[cred]; ok {
		e.refcount = e.handle.Retain()
		m.mu.Unlock()
		return e.handle, nil
	}
	m.mu.Unlock()

	port, err := m.connect(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := port.Init(ctx); err != nil {
		_ = port.Terminate(ctx)
		return nil, err
	}

	handle := runtime.New(cred.Exchange, port, m.minDelay, m.maxDelay, m.notifier)
	handle.Retain()

	m.mu.Lock()
	if e, ok := m.pool[cred]; ok {
		// Lost the race to open the same credentials concurrently; keep the
		// winner, tear our redundant connection down.
		e.refcount = e.handle.Retain()
		m.mu.Unlock()
		_ = port.Terminate(ctx)
		return e.handle, nil
	}
	m.pool[cred] = &entry{handle: handle, refcount: 1}
	m.mu.Unlock()

	return handle, nil
}

// closeExchange decrements cred's refcount and, if it reaches zero, tears
// the exchange down after the grace window (spec.md §5). Scheduled with a
// timer rather than called directly so late background callbacks from the
// just-finished sequence still see a live handle.
func (m *Manager) closeExchange(cred Credentials) {
	time.AfterFunc(closeGrace, func() {
		m.mu.Lock()
		e, ok := m.pool[cred]
		if !ok {
			m.mu.Unlock()
			return
		}
		e.refcount = e.handle.Release()
		if e.refcount > 0 {
			m.mu.Unlock()
			return
		}
		delete(m.pool, cred)
		m.mu.Unlock()

		e.handle.WaitForBackgroundTasks()
		if err := e.handle.Port.Terminate(context.Background()); err != nil {
			m.log.Warn("terminate failed", utils.String("exchange", cred.Exchange), utils.Err(err))
		}
	})
}

// ExecuteMessage implements spec.md §4.5 executeMessage: extract any alert,
// parse the message into blocks, then run each block's command sequence
// concurrently against its matched exchange.
func (m *Manager) ExecuteMessage(ctx context.Context, message string) {
	if remainder, ok := alert.Extract(message); ok && m.notifier != nil {
		if err := m.notifier.Send(ctx, remainder); err != nil {
			m.log.Warn("alert notify failed", utils.Err(err))
		}
	}

	blocks := parser.ParseMessage(message)

	var wg sync.WaitGroup
	for _, block := range blocks {
		cred, ok := m.matchCredentials(block.Exchange)
		if !ok {
			m.log.Warn("no credentials for exchange", utils.String("exchange", block.Exchange))
			continue
		}

		wg.Add(1)
		go func(block parser.Block, cred Credentials) {
			defer wg.Done()
			m.runBlock(ctx, cred, block)
		}(block, cred)
	}
	wg.Wait()
}

// runBlock opens cred's exchange, adds the block's symbol, runs the
// sequence, then schedules teardown (spec.md §4.5 step 3).
func (m *Manager) runBlock(ctx context.Context, cred Credentials, block parser.Block) {
	handle, err := m.openExchange(ctx, cred)
	if err != nil {
		m.log.Error("openExchange failed", utils.String("exchange", cred.Exchange), utils.Err(err))
		return
	}
	defer m.closeExchange(cred)

	if err := handle.AddSymbol(ctx, block.Symbol); err != nil {
		m.log.Error("addSymbol failed",
			utils.String("exchange", cred.Exchange), utils.String("symbol", block.Symbol), utils.Err(err))
		return
	}

	m.executeCommandSequence(ctx, handle, block)
}

// executeCommandSequence implements spec.md §4.5 step 4: build every
// action's command, run them in series via the scheduler, and await the
// exchange's background-task set before returning.
func (m *Manager) executeCommandSequence(ctx context.Context, handle *runtime.Handle, block parser.Block) {
	sess := session.New()

	cmds := make([]scheduler.Command, 0, len(block.Actions))
	for _, action := range block.Actions {
		cmd, err := commands.Build(handle, sess, block.Symbol, action)
		if err != nil {
			m.log.Warn("command rejected",
				utils.String("action", action.Name), utils.String("symbol", block.Symbol), utils.Err(err))
			continue
		}
		cmds = append(cmds, cmd)
	}

	sched := scheduler.New(handle)
	if err := sched.RunSequence(ctx, cmds); err != nil {
		m.log.Error("sequence failed",
			utils.String("exchange", handle.Name), utils.String("symbol", block.Symbol), utils.Err(err))
	}

	handle.WaitForBackgroundTasks()
}
