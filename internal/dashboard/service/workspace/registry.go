package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RegistryOptions tunes workspace lifetime.
type RegistryOptions struct {
	// IdleTTL is how long a workspace survives without requests.
	IdleTTL time.Duration
	// OnSize is told the number of live workspaces after every change.
	OnSize func(n int)
}

// Registry owns the workspaces of all users, keyed by subject.
type Registry struct {
	ctx  context.Context
	deps Deps
	opts RegistryOptions

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewRegistry creates an empty registry. Workspaces derive their context from ctx.
func NewRegistry(ctx context.Context, deps Deps, opts RegistryOptions) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.OnSize == nil {
		opts.OnSize = func(int) {}
	}
	return &Registry{ctx: ctx, deps: deps, opts: opts, items: make(map[string]*Workspace)}
}

// Acquire returns the workspace of subject, creating it on first use, and binds
// it to the caller's backend session.
func (r *Registry) Acquire(subject string, b Backend) *Workspace {
	r.mu.Lock()
	w, ok := r.items[subject]
	if !ok {
		w = New(r.ctx, subject, r.deps, b)
		r.items[subject] = w
		log.Info().Str("subject", subject).Msg("workspace created")
	}
	n := len(r.items)
	r.mu.Unlock()

	if ok {
		w.Bind(b)
	} else {
		r.opts.OnSize(n)
	}
	w.Touch(time.Now())
	return w
}

// Lookup returns the workspace of subject if it exists.
func (r *Registry) Lookup(subject string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[subject]
	return w, ok
}

// Release closes the workspace of subject.
func (r *Registry) Release(subject string) bool {
	r.mu.Lock()
	w, ok := r.items[subject]
	delete(r.items, subject)
	n := len(r.items)
	r.mu.Unlock()
	if !ok {
		return false
	}
	w.Close()
	r.opts.OnSize(n)
	log.Info().Str("subject", subject).Msg("workspace released")
	return true
}

// EvictIdle closes every workspace idle since before now-IdleTTL.
func (r *Registry) EvictIdle(now time.Time) int {
	cutoff := now.Add(-r.opts.IdleTTL)
	var idle []*Workspace
	r.mu.Lock()
	for subject, w := range r.items {
		if w.LastSeen().Before(cutoff) {
			idle = append(idle, w)
			delete(r.items, subject)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, w := range idle {
		w.Close()
		log.Info().Str("subject", w.Subject()).Msg("idle workspace evicted")
	}
	if len(idle) > 0 {
		r.opts.OnSize(n)
	}
	return len(idle)
}

// Len is the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Run evicts idle workspaces every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.EvictIdle(now); n > 0 {
				log.Debug().Int("evicted", n).Msg("workspace janitor tick")
			}
		}
	}
}

// Close releases every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, w := range items {
		w.Close()
	}
	r.opts.OnSize(0)
}
