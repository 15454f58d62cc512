// Package submission manages the lifecycle of a single outbound form
// submission: Idle, then Pending while the send is in flight, then Succeeded
// or Failed. Succeeded returns to Idle on its own after a fixed delay; Failed
// stays put until the next Submit.
package submission

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultResetDelay is how long Succeeded is held before returning to Idle.
	DefaultResetDelay = 3 * time.Second

	// DefaultFailureMessage is shown for every delivery failure.
	DefaultFailureMessage = "Failed to send. Please try again."
)

// Sender delivers a payload to the outside world.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, p Payload) error

func (f SenderFunc) Send(ctx context.Context, p Payload) error { return f(ctx, p) }

// Timer is a one-shot scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is a snapshot of a controller.
type State struct {
	Phase        Phase
	ErrorMessage string
	// Draft holds the fields of the last submission until it succeeds.
	Draft Payload
}

// Option configures a Controller.
type Option func(*Controller)

// WithResetDelay sets how long Succeeded is held before returning to Idle.
func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) { c.resetDelay = d }
}

// WithTimer replaces the one-shot timer used for the auto reset.
func WithTimer(f AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// WithObserver registers fn to be called with every new phase, in order.
// fn runs while the controller is locked and must not call back into it.
func WithObserver(fn func(Phase)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithFailureMessage overrides the user-facing failure message.
func WithFailureMessage(msg string) Option {
	return func(c *Controller) { c.failureMsg = msg }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the submission state of one view. Transitions are
// serialized by mu; at most one send is in flight at any time.
type Controller struct {
	sender     Sender
	resetDelay time.Duration
	afterFunc  AfterFunc
	observer   func(Phase)
	failureMsg string
	logger     *slog.Logger

	mu     sync.Mutex
	phase  Phase
	errMsg string
	draft  Payload
	timer  Timer
	seq    uint64
	done   chan struct{}
	closed bool
}

// New returns an Idle controller that delivers through sender.
func New(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:     sender,
		resetDelay: DefaultResetDelay,
		afterFunc:  realAfterFunc,
		failureMsg: DefaultFailureMessage,
		logger:     slog.Default(),
		phase:      Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts delivering p. It returns false without doing anything when a
// submission is already Pending or the controller has been closed.
func (c *Controller) Submit(p Payload) bool {
	c.mu.Lock()
	if c.closed || c.phase == Pending {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked()
	c.seq++
	seq := c.seq
	c.draft = p
	c.errMsg = ""
	c.done = make(chan struct{})
	done := c.done
	c.setLocked(Pending)
	c.mu.Unlock()

	go c.deliver(seq, p, done)
	return true
}

func (c *Controller) deliver(seq uint64, p Payload, done chan struct{}) {
	defer close(done)

	err := c.sender.Send(context.Background(), p)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Debug("submission settled after close", "err", err)
		return
	}
	if err != nil {
		c.logger.Warn("submission failed", "err", err)
		c.errMsg = c.failureMsg
		c.setLocked(Failed)
		return
	}

	c.logger.Info("submission delivered")
	c.draft = Payload{}
	c.setLocked(Succeeded)
	c.timer = c.afterFunc(c.resetDelay, func() { c.reset(seq) })
}

// reset moves Succeeded back to Idle unless a newer submission or Close got
// there first.
func (c *Controller) reset(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.seq != seq || c.phase != Succeeded {
		return
	}
	c.timer = nil
	c.setLocked(Idle)
}

func (c *Controller) setLocked(p Phase) {
	c.phase = p
	if c.observer != nil {
		c.observer(p)
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Phase: c.phase, ErrorMessage: c.errMsg, Draft: c.draft}
}

// Wait blocks until no send is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the controller down. The reset timer is stopped and a send that
// is still in flight will settle without touching state. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
}
