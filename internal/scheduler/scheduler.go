// Package scheduler implements the cooperative command scheduler from
// spec.md §4.2: a foreground loop running commands strictly in order, and a
// shared polling loop used both to drive a command to completion inline and
// to run a command as a background task.
package scheduler

import (
	"context"
	"time"

	"github.com/inetpeople/instabot-trader/internal/cmderr"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/session"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// State is one of the three outcomes execute()/backgroundExecute() may
// report (spec.md §4.2).
type State int

const (
	Finished State = iota
	KeepGoing
	KeepGoingBackOff
)

func (s State) String() string {
	switch s {
	case Finished:
		return "finished"
	case KeepGoing:
		return "keep_going"
	case KeepGoingBackOff:
		return "keep_going_backoff"
	default:
		return "unknown"
	}
}

// Command is the interface every command in internal/commands implements,
// the "{setup, execute, backgroundExecute, canCompleteInBackground,
// onCancelled, results}" re-architecture from spec.md §9.
type Command interface {
	Name() string
	// Execute runs the command's foreground step: validation, the single
	// synchronous API call most commands make, or the setup phase of an
	// algo order.
	Execute(ctx context.Context) (State, error)
	// BackgroundExecute is one iteration of the polling loop; only called
	// when Execute first returned KeepGoing/KeepGoingBackOff.
	BackgroundExecute(ctx context.Context) (State, error)
	// CanCompleteInBackground reports whether the scheduler may hand this
	// command to the background pool instead of driving it inline.
	CanCompleteInBackground() bool
	// OnCancelled runs once, when the algo registry marks this command's
	// entry cancelled; it typically cancels a broker-side order.
	OnCancelled(ctx context.Context) error
	// AlgoEntry returns the registry entry tracking this command's
	// cancellation state, or nil if the command never registers one.
	AlgoEntry() *session.AlgoEntry
}

// fixedPacer is an optional interface a command may implement to pin its
// poll interval to a fixed delay instead of the shared min→max ramp, e.g.
// stopAndTakeProfitOrder's "foreground loop at maxPollingDelay pace"
// (spec.md §4.3).
type fixedPacer interface {
	PollDelay() time.Duration
}

// Scheduler drives one command sequence against a single exchange handle.
type Scheduler struct {
	handle *runtime.Handle
	log    *utils.Logger
}

func New(handle *runtime.Handle) *Scheduler {
	return &Scheduler{handle: handle, log: handle.Logger().WithComponent("scheduler")}
}

// RunSequence executes cmds strictly in order (spec.md §4.2 "Foreground").
// It stops on the first *cmderr.AbortSequence (silently) or any other error
// (logged), matching executeCommandSequence's stopping rule in spec.md
// §4.5. It does not wait for background tasks; the caller (the manager) does
// that via handle.WaitForBackgroundTasks after RunSequence returns.
func (s *Scheduler) RunSequence(ctx context.Context, cmds []Command) error {
	for _, cmd := range cmds {
		state, err := cmd.Execute(ctx)
		if err != nil {
			if cmderr.IsAbortSequence(err) {
				s.log.Debug("sequence aborted", utils.String("command", cmd.Name()))
				return nil
			}
			s.log.Error("command failed", utils.String("command", cmd.Name()), utils.Err(err))
			return err
		}
		if state == Finished {
			s.finish(cmd)
			continue
		}

		if cmd.CanCompleteInBackground() {
			s.handle.AddTask(func(taskCtx context.Context) {
				if err := s.drivePollLoop(taskCtx, cmd, state); err != nil {
					s.log.Warn("background command ended with error",
						utils.String("command", cmd.Name()), utils.Err(err))
				}
			})
			continue
		}

		if err := s.drivePollLoop(ctx, cmd, state); err != nil {
			if cmderr.IsAbortSequence(err) {
				return nil
			}
			s.log.Error("command failed in foreground drive", utils.String("command", cmd.Name()), utils.Err(err))
			return err
		}
	}
	return nil
}

// drivePollLoop implements the shared polling loop from spec.md §4.2,
// starting from the state execute() already returned.
func (s *Scheduler) drivePollLoop(ctx context.Context, cmd Command, state State) error {
	waitTime := s.handle.MinPollingDelay
	fixed, paced := cmd.(fixedPacer)
	if paced {
		waitTime = fixed.PollDelay()
	}

	for state != Finished {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}

		if !paced && waitTime < s.handle.MaxPollingDelay {
			waitTime += time.Second
			if waitTime > s.handle.MaxPollingDelay {
				waitTime = s.handle.MaxPollingDelay
			}
		}

		if entry := cmd.AlgoEntry(); entry != nil && entry.Cancelled() {
			if err := cmd.OnCancelled(ctx); err != nil {
				s.log.Warn("onCancelled failed", utils.String("command", cmd.Name()), utils.Err(err))
			}
			state = Finished
			break
		}

		next, err := cmd.BackgroundExecute(ctx)
		if err != nil {
			s.finish(cmd)
			return err
		}
		state = next
		if state == KeepGoing && !paced {
			waitTime = s.handle.MinPollingDelay
		}
	}

	s.finish(cmd)
	return nil
}

func (s *Scheduler) finish(cmd Command) {
	if entry := cmd.AlgoEntry(); entry != nil {
		s.handle.Registry.Remove(entry.ID)
	}
}
