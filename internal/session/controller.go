// Package session drives the user journey from pair entry through strategy
// choice and waiting to a result or error.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aitrader/internal/api"
	"aitrader/internal/signal"
	"aitrader/internal/strategy"
)

// Stage is the single tag that determines which view is active.
type Stage string

const (
	StagePairEntry         Stage = "pair_entry"
	StageStrategySelection Stage = "strategy_selection"
	StageWaiting           Stage = "waiting"
	StageResult            Stage = "result"
	StageError             Stage = "error"
)

// User-facing failure messages, one per error class.
const (
	MsgSessionExpired = "Session expired. Please log in again."
	MsgUnreachable    = "Could not reach the server."
)

// Snapshot is the read-only projection handed to the presentation layer.
type Snapshot struct {
	Stage        Stage
	Pair         string
	Strategy     strategy.Key
	Outcome      *signal.Outcome
	ErrorMessage string
	Estimate     *QueueEstimate
}

// ControllerOption customizes Controller construction.
type ControllerOption func(*Controller)

// WithSessionExpiredHook registers the callback invoked when a settlement is
// classified as credential expiry. The composition wires it to the auth
// gateway's ClearToken.
func WithSessionExpiredHook(hook func()) ControllerOption {
	return func(c *Controller) {
		c.onSessionExpired = hook
	}
}

// WithCountdownInterval overrides the one-second countdown tick. Tests use it
// to avoid real sleeps.
func WithCountdownInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// Controller is the session state machine. All mutation happens under one
// mutex; the orchestrator goroutine and the countdown ticker only get to
// apply their effects while the session is still in the stage and generation
// they were started for.
type Controller struct {
	orchestrator     *Orchestrator
	onSessionExpired func()
	tick             time.Duration

	mu            sync.Mutex
	stage         Stage
	pair          string
	strategyKey   strategy.Key
	outcome       *signal.Outcome
	errorMessage  string
	estimate      *QueueEstimate
	generation    int
	stopCountdown context.CancelFunc
}

func NewController(orchestrator *Orchestrator, opts ...ControllerOption) *Controller {
	c := &Controller{
		orchestrator: orchestrator,
		tick:         time.Second,
		stage:        StagePairEntry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Stage:        c.stage,
		Pair:         c.pair,
		Strategy:     c.strategyKey,
		Outcome:      c.outcome,
		ErrorMessage: c.errorMessage,
	}
	if c.estimate != nil {
		est := *c.estimate
		snap.Estimate = &est
	}
	return snap
}

// SubmitPair stores the uppercased pair and advances to strategy selection.
// A blank input is refused and the stage does not move.
func (c *Controller) SubmitPair(pairText string) bool {
	trimmed := strings.TrimSpace(pairText)
	if trimmed == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != StagePairEntry {
		return false
	}
	c.pair = strings.ToUpper(trimmed)
	c.stage = StageStrategySelection
	return true
}

// SelectStrategy kicks off the analysis request and moves to the waiting
// stage. Refused outside strategy selection, which also guarantees at most
// one request is in flight per session.
func (c *Controller) SelectStrategy(ctx context.Context, key strategy.Key) bool {
	c.mu.Lock()
	if c.stage != StageStrategySelection {
		c.mu.Unlock()
		return false
	}
	c.strategyKey = key
	c.outcome = nil
	c.errorMessage = ""
	c.estimate = nil
	c.stage = StageWaiting
	c.generation++
	gen := c.generation
	pair := c.pair
	c.mu.Unlock()

	go func() {
		outcome, err := c.orchestrator.Run(ctx, pair, key, func(depth int) {
			c.applyQueueDepth(gen, depth)
		})
		c.settle(gen, outcome, err)
	}()
	return true
}

// AnalyzeAgain resets to a fresh pair-entry session. Only valid from a
// settled stage.
func (c *Controller) AnalyzeAgain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != StageResult && c.stage != StageError {
		return false
	}
	c.resetLocked()
	return true
}

// BackToStrategies returns to strategy selection keeping the pair.
func (c *Controller) BackToStrategies() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != StageResult && c.stage != StageError {
		return false
	}
	c.haltCountdownLocked()
	c.generation++
	c.outcome = nil
	c.errorMessage = ""
	c.estimate = nil
	c.stage = StageStrategySelection
	return true
}

// Reset unconditionally returns the session to its initial state. Used on
// logout; any outstanding request becomes stale and its settlement is
// discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.haltCountdownLocked()
	c.generation++
	c.stage = StagePairEntry
	c.pair = ""
	c.strategyKey = ""
	c.outcome = nil
	c.errorMessage = ""
	c.estimate = nil
}

// applyQueueDepth seeds the wait estimate as soon as the probe reports, and
// starts the countdown. Ignored if the session already moved on.
func (c *Controller) applyQueueDepth(gen int, depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.stage != StageWaiting {
		return
	}
	est := EstimateQueue(depth)
	c.estimate = &est
	c.startCountdownLocked(gen)
}

// settle applies the orchestrator's final outcome. A settlement arriving
// after the session left the waiting stage is discarded.
func (c *Controller) settle(gen int, outcome signal.Outcome, err error) {
	var expiredHook func()

	c.mu.Lock()
	if c.generation != gen || c.stage != StageWaiting {
		c.mu.Unlock()
		return
	}
	c.haltCountdownLocked()
	if err != nil {
		message, expired := classifyFailure(err)
		c.outcome = nil
		c.errorMessage = message
		c.stage = StageError
		if expired {
			expiredHook = c.onSessionExpired
		}
	} else {
		c.outcome = &outcome
		c.errorMessage = ""
		c.stage = StageResult
	}
	c.mu.Unlock()

	if expiredHook != nil {
		expiredHook()
	}
}

// classifyFailure maps an orchestrator error onto the user-facing taxonomy.
// Probe and submission failures read the same to the user.
func classifyFailure(err error) (message string, expired bool) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindUnauthorized:
			return MsgSessionExpired, true
		case api.KindServerRejected:
			return fmt.Sprintf("Server error: %s", apiErr.Detail), false
		}
	}
	return MsgUnreachable, false
}

// startCountdownLocked launches the per-second decrement for the current
// estimate. Caller holds the mutex.
func (c *Controller) startCountdownLocked(gen int) {
	c.haltCountdownLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.stopCountdown = cancel

	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.generation != gen || c.stage != StageWaiting || c.estimate == nil {
					c.mu.Unlock()
					return
				}
				if c.estimate.SecondsRemaining > 0 {
					c.estimate.SecondsRemaining--
				}
				c.mu.Unlock()
			}
		}
	}()
}

// haltCountdownLocked cancels any running countdown. Caller holds the mutex.
func (c *Controller) haltCountdownLocked() {
	if c.stopCountdown != nil {
		c.stopCountdown()
		c.stopCountdown = nil
	}
}
