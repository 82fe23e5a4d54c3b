package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inetpeople/instabot-trader/internal/cmderr"
	"github.com/inetpeople/instabot-trader/internal/connector/fake"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/session"
)

// stubCommand is a minimal Command used to drive RunSequence/drivePollLoop
// without any of internal/commands' exchange-facing logic.
type stubCommand struct {
	name          string
	execState     State
	execErr       error
	bgStates      []State
	bgErr         error
	canBackground bool
	entry         *session.AlgoEntry
	execCalls     int
	bgCalls       int
	cancelCalls   int
}

func (c *stubCommand) Name() string { return c.name }

func (c *stubCommand) Execute(ctx context.Context) (State, error) {
	c.execCalls++
	return c.execState, c.execErr
}

func (c *stubCommand) BackgroundExecute(ctx context.Context) (State, error) {
	if c.bgCalls >= len(c.bgStates) {
		return Finished, c.bgErr
	}
	s := c.bgStates[c.bgCalls]
	c.bgCalls++
	return s, c.bgErr
}

func (c *stubCommand) CanCompleteInBackground() bool { return c.canBackground }

func (c *stubCommand) OnCancelled(ctx context.Context) error {
	c.cancelCalls++
	return nil
}

func (c *stubCommand) AlgoEntry() *session.AlgoEntry { return c.entry }

// pacedStubCommand additionally implements fixedPacer, pinning its poll
// interval instead of letting drivePollLoop ramp from MinPollingDelay.
type pacedStubCommand struct {
	stubCommand
	delay time.Duration
}

func (c *pacedStubCommand) PollDelay() time.Duration { return c.delay }

func newTestHandle() *runtime.Handle {
	return runtime.New("test", fake.New(), time.Millisecond, 4*time.Millisecond, notify.Noop{})
}

func TestRunSequenceStopsAtFinished(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	cmd := &stubCommand{name: "limit", execState: Finished}

	if err := s.RunSequence(context.Background(), []Command{cmd}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	if cmd.execCalls != 1 || cmd.bgCalls != 0 {
		t.Errorf("execCalls=%d bgCalls=%d, want 1,0", cmd.execCalls, cmd.bgCalls)
	}
}

func TestRunSequenceAbortSequenceStopsSilently(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	cmd1 := &stubCommand{name: "first", execErr: &cmderr.AbortSequence{Reason: "condition false"}}
	cmd2 := &stubCommand{name: "second", execState: Finished}

	if err := s.RunSequence(context.Background(), []Command{cmd1, cmd2}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	if cmd2.execCalls != 0 {
		t.Error("second command should not run after an AbortSequence")
	}
}

func TestRunSequencePropagatesOtherErrors(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	wantErr := errors.New("boom")
	cmd := &stubCommand{name: "limit", execErr: wantErr}

	err := s.RunSequence(context.Background(), []Command{cmd})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunSequence() error = %v, want %v", err, wantErr)
	}
}

func TestRunSequenceDrivesForegroundPollLoopToFinished(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	cmd := &stubCommand{
		name:          "trailingStop",
		execState:     KeepGoing,
		canBackground: false,
		bgStates:      []State{KeepGoing, Finished},
	}

	if err := s.RunSequence(context.Background(), []Command{cmd}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	if cmd.bgCalls != 2 {
		t.Errorf("bgCalls = %d, want 2", cmd.bgCalls)
	}
}

func TestRunSequenceHandsBackgroundableCommandToTaskPool(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	cmd := &stubCommand{
		name:          "cancelOrders",
		execState:     KeepGoingBackOff,
		canBackground: true,
		bgStates:      []State{Finished},
	}

	if err := s.RunSequence(context.Background(), []Command{cmd}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	// RunSequence returns immediately; the background task runs concurrently.
	h.WaitForBackgroundTasks()
	if cmd.bgCalls != 1 {
		t.Errorf("bgCalls = %d, want 1 after background task drained", cmd.bgCalls)
	}
}

func TestDrivePollLoopHoldsFixedPacerDelay(t *testing.T) {
	h := newTestHandle() // Min=1ms, Max=4ms
	s := New(h)
	cmd := &pacedStubCommand{
		stubCommand: stubCommand{
			name:      "stopAndTakeProfitOrder",
			execState: KeepGoingBackOff,
			bgStates:  []State{KeepGoingBackOff, KeepGoingBackOff, Finished},
		},
		delay: 10 * time.Millisecond,
	}

	start := time.Now()
	if err := s.RunSequence(context.Background(), []Command{cmd}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	elapsed := time.Since(start)
	// Three waits at the fixed 10ms pace, never ramped down by Min or up by
	// Max, should take at least 30ms; the shared min/max ramp would finish
	// in about 9ms total (1ms, then 4ms, 4ms).
	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 30ms (fixed pace held across all iterations)", elapsed)
	}
	if cmd.bgCalls != 3 {
		t.Errorf("bgCalls = %d, want 3", cmd.bgCalls)
	}
}

func TestDrivePollLoopStopsWhenAlgoEntryCancelled(t *testing.T) {
	h := newTestHandle()
	s := New(h)
	sessionID := uuid.New()
	entry := h.Registry.Register(sessionID, "buy", "")
	cmd := &stubCommand{
		name:      "trailingStop",
		execState: KeepGoing,
		bgStates:  []State{KeepGoing, KeepGoing, KeepGoing},
		entry:     entry,
	}
	h.Registry.Cancel(session.WhichID, uuid.Nil, "", entry.ID)

	if err := s.RunSequence(context.Background(), []Command{cmd}); err != nil {
		t.Fatalf("RunSequence() error = %v", err)
	}
	if cmd.cancelCalls != 1 {
		t.Errorf("cancelCalls = %d, want 1", cmd.cancelCalls)
	}
	if cmd.bgCalls != 0 {
		t.Errorf("bgCalls = %d, want 0: cancellation should be observed before the first poll", cmd.bgCalls)
	}
}
