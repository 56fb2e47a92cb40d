// Package poller periodically refreshes a collection for the currently selected
// scope. A controller owns at most one polling session at a time: selecting a
// new scope cancels the previous session (its timer and its in-flight requests)
// before the new one starts, and any response that arrives for a superseded
// session or an older tick is dropped instead of committed.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/rs/zerolog/log"
)

// Default refresh periods, fastest for volatile data.
const (
	IntervalKeyMetrics   = 5 * time.Second
	IntervalHostTriggers = 15 * time.Second
	IntervalDashboard    = 30 * time.Second
	IntervalHosts        = 60 * time.Second
	IntervalSystemInfo   = 300 * time.Second
)

// Recorder receives poller events; *metrics.Metrics implements it.
type Recorder interface {
	Tick(poller string)
	Failure(poller string)
	StaleDropped(poller string)
	SessionStarted(poller string)
	SessionEnded(poller string)
}

type noopRecorder struct{}

func (noopRecorder) Tick(string)           {}
func (noopRecorder) Failure(string)        {}
func (noopRecorder) StaleDropped(string)   {}
func (noopRecorder) SessionStarted(string) {}
func (noopRecorder) SessionEnded(string)   {}

// FetchFunc loads the collection for a scope. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, scope model.Scope) (T, error)

// Update is one committed refresh result.
type Update[T any] struct {
	Scope     model.Scope
	SessionID string
	Seq       uint64
	// Initial is true for the first update committed by a session.
	Initial bool
	Data    T
	Err     error
	At      time.Time
}

// CommitFunc applies an update to view state. It runs under the controller
// lock and must not call back into the controller.
type CommitFunc[T any] func(Update[T])

// Options configures a Controller.
type Options struct {
	Name     string
	Interval time.Duration
	Recorder Recorder
	// StopOn ends the session after committing an error it matches.
	StopOn func(error) bool
}

type session struct {
	id     string
	gen    uint64
	scope  model.Scope
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
}

// Controller is a polling refresh controller for one collection.
type Controller[T any] struct {
	base   context.Context
	opts   Options
	fetch  FetchFunc[T]
	commit CommitFunc[T]

	mu        sync.Mutex
	closed    bool
	gen       uint64
	scope     model.Scope
	current   *session
	committed uint64
	wg        sync.WaitGroup
}

// New creates an idle controller. Sessions derive their context from ctx.
func New[T any](ctx context.Context, opts Options, fetch FetchFunc[T], commit CommitFunc[T]) *Controller[T] {
	if opts.Interval <= 0 {
		opts.Interval = IntervalDashboard
	}
	if opts.Name == "" {
		opts.Name = "poller"
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if commit == nil {
		commit = func(Update[T]) {}
	}
	return &Controller[T]{base: ctx, opts: opts, fetch: fetch, commit: commit}
}

// SetScope switches the controller to scope. The previous session is always
// cancelled first; a zero scope leaves the controller idle. Selecting the scope
// that is already being polled is a no-op.
func (c *Controller[T]) SetScope(scope model.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.current != nil && c.current.ctx.Err() == nil && scope.Key() == c.scope.Key() {
		return
	}
	c.stopLocked("scope changed")
	c.scope = scope
	if scope.IsZero() {
		return
	}
	c.startLocked(scope)
}

// Clear cancels the current session and forgets the scope.
func (c *Controller[T]) Clear() { c.SetScope(model.Scope{}) }

// Scope returns the selected scope, which may be inactive after StopOn fired.
func (c *Controller[T]) Scope() model.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Active reports whether a session is scheduled.
func (c *Controller[T]) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.ctx.Err() == nil
}

// Refresh runs an extra background tick for the current session.
func (c *Controller[T]) Refresh() bool {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return false
	}
	return c.launch(s)
}

// Close stops the controller for good and waits for its goroutines.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopLocked("closed")
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller[T]) startLocked(scope model.Scope) {
	ctx, cancel := context.WithCancel(c.base)
	s := &session{
		id:     uuid.NewString(),
		gen:    c.gen,
		scope:  scope,
		ctx:    ctx,
		cancel: cancel,
	}
	c.current = s
	c.committed = 0
	c.opts.Recorder.SessionStarted(c.opts.Name)
	log.Debug().Str("poller", c.opts.Name).Str("session", s.id).Str("scope", scope.Key()).
		Dur("interval", c.opts.Interval).Msg("polling session started")

	c.wg.Add(1)
	go c.loop(s)
}

// stopLocked cancels the current session and invalidates every in-flight tick.
func (c *Controller[T]) stopLocked(reason string) {
	c.gen++
	if c.current == nil {
		return
	}
	c.current.cancel()
	c.opts.Recorder.SessionEnded(c.opts.Name)
	log.Debug().Str("poller", c.opts.Name).Str("session", c.current.id).Str("scope", c.current.scope.Key()).
		Str("reason", reason).Msg("polling session stopped")
	c.current = nil
}

func (c *Controller[T]) loop(s *session) {
	defer c.wg.Done()
	t := time.NewTicker(c.opts.Interval)
	defer t.Stop()

	// run once immediately
	c.launch(s)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			c.launch(s)
		}
	}
}

// launch starts one tick in its own goroutine so a hung fetch never delays
// the next tick.
func (c *Controller[T]) launch(s *session) bool {
	c.mu.Lock()
	if s.gen != c.gen || s.ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	s.seq++
	seq := s.seq
	c.wg.Add(1)
	c.mu.Unlock()

	go c.tick(s, seq)
	return true
}

func (c *Controller[T]) tick(s *session, seq uint64) {
	defer c.wg.Done()
	c.opts.Recorder.Tick(c.opts.Name)

	data, err := c.fetch(s.ctx, s.scope)
	if err != nil && s.ctx.Err() == nil {
		c.opts.Recorder.Failure(c.opts.Name)
		log.Warn().Err(err).Str("poller", c.opts.Name).Str("session", s.id).Str("scope", s.scope.Key()).
			Uint64("seq", seq).Msg("refresh failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.gen != c.gen || seq <= c.committed {
		c.opts.Recorder.StaleDropped(c.opts.Name)
		log.Debug().Str("poller", c.opts.Name).Str("session", s.id).Str("scope", s.scope.Key()).
			Uint64("seq", seq).Msg("stale response dropped")
		return
	}
	initial := c.committed == 0
	c.committed = seq
	c.commit(Update[T]{
		Scope:     s.scope,
		SessionID: s.id,
		Seq:       seq,
		Initial:   initial,
		Data:      data,
		Err:       err,
		At:        time.Now(),
	})
	if err != nil && c.opts.StopOn != nil && c.opts.StopOn(err) {
		c.stopLocked("stop condition: " + err.Error())
	}
}
