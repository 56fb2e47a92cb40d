package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/poller"
)

// PanelState is the rendered state of one polled collection.
type PanelState[T any] struct {
	Scope     model.Scope        `json:"scope"`
	Data      T                  `json:"data"`
	Loading   bool               `json:"loading"`
	Error     *model.ErrorDetail `json:"error,omitempty"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
}

// panel couples a polling controller with the view state it feeds. A failed
// tick keeps the previous data and only sets the transient error.
type panel[T any] struct {
	ctrl  *poller.Controller[T]
	empty func() T

	mu        sync.RWMutex
	scope     model.Scope
	data      T
	loading   bool
	err       error
	updatedAt time.Time
}

func newPanel[T any](ctx context.Context, name string, interval time.Duration, rec poller.Recorder,
	fetch poller.FetchFunc[T], empty func() T) *panel[T] {
	p := &panel[T]{empty: empty, data: empty()}
	p.ctrl = poller.New(ctx, poller.Options{
		Name:     name,
		Interval: interval,
		Recorder: rec,
		StopOn:   client.IsAuth,
	}, fetch, p.commit)
	return p
}

// setScope reports whether the scope changed, in which case the panel enters
// the initial-load state.
func (p *panel[T]) setScope(scope model.Scope) bool {
	p.mu.RLock()
	same := p.scope.Key() == scope.Key()
	p.mu.RUnlock()
	if same && (scope.IsZero() || p.ctrl.Active()) {
		return false
	}

	p.mu.Lock()
	p.scope = scope
	p.data = p.empty()
	p.loading = !scope.IsZero()
	p.err = nil
	p.updatedAt = time.Time{}
	p.mu.Unlock()

	p.ctrl.SetScope(scope)
	return true
}

func (p *panel[T]) commit(u poller.Update[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u.Scope.Key() != p.scope.Key() {
		return
	}
	p.loading = false
	p.updatedAt = u.At
	if u.Err != nil {
		p.err = u.Err
	} else {
		p.data = u.Data
		p.err = nil
	}
}

func (p *panel[T]) current() (model.Scope, T) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scope, p.data
}

func (p *panel[T]) state() PanelState[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := PanelState[T]{Scope: p.scope, Data: p.data, Loading: p.loading}
	if p.err != nil {
		d := Describe(p.err)
		st.Error = &d
	}
	if !p.updatedAt.IsZero() {
		at := p.updatedAt
		st.UpdatedAt = &at
	}
	return st
}

func (p *panel[T]) refresh() bool { return p.ctrl.Refresh() }

func (p *panel[T]) close() { p.ctrl.Close() }
