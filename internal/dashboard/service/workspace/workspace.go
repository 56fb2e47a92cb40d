// Package workspace holds the live dashboard state of each signed-in user: the
// current selection, the polling views it drives, the interactive filter and
// the AI panel. Every piece of selection state is passed in explicitly.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/cache"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/rs/zerolog/log"
)

// Workspace is the state of one user. It is safe for concurrent use.
type Workspace struct {
	subject string
	deps    Deps
	cancel  context.CancelFunc

	bmu sync.RWMutex
	b   Backend

	// selMu serializes selection changes so views and controllers agree on scope.
	selMu     sync.Mutex
	selection model.Scope

	dashboard *Dashboard
	host      *HostView
	lastSeen  atomic.Int64
}

// New creates an idle workspace; nothing polls until a company is selected.
func New(ctx context.Context, subject string, deps Deps, b Backend) *Workspace {
	if deps.Cache == nil {
		deps.Cache = cache.NoopCache{}
	}
	deps.Intervals = deps.Intervals.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	w := &Workspace{subject: subject, deps: deps, cancel: cancel, b: b}
	w.dashboard = newDashboard(ctx, w)
	w.host = newHostView(ctx, w)
	w.Touch(time.Now())
	return w
}

// Subject identifies the owner.
func (w *Workspace) Subject() string { return w.subject }

// Bind replaces the backend session, e.g. after the user's token was renewed.
func (w *Workspace) Bind(b Backend) {
	if b == nil {
		return
	}
	w.bmu.Lock()
	defer w.bmu.Unlock()
	w.b = b
}

func (w *Workspace) backend() Backend {
	w.bmu.RLock()
	defer w.bmu.RUnlock()
	return w.b
}

// Touch records activity at now.
func (w *Workspace) Touch(now time.Time) { w.lastSeen.Store(now.UnixNano()) }

// LastSeen is the time of the last recorded activity.
func (w *Workspace) LastSeen() time.Time { return time.Unix(0, w.lastSeen.Load()) }

// Selection returns the current company/period selection.
func (w *Workspace) Selection() model.Scope {
	w.selMu.Lock()
	defer w.selMu.Unlock()
	return w.selection
}

// Select makes scope the dashboard selection. Choosing another company resets
// the host page. A zero scope clears everything.
func (w *Workspace) Select(scope model.Scope) error {
	scope.CompanyID = strings.TrimSpace(scope.CompanyID)
	scope.HostID = strings.TrimSpace(scope.HostID)
	if scope.IsZero() {
		w.ClearSelection()
		return nil
	}
	if scope.From > 0 && scope.Till > 0 && scope.From > scope.Till {
		return fmt.Errorf("%w: time range %d-%d", ErrInvalidSelection, scope.From, scope.Till)
	}
	if scope.From <= 0 && scope.Till <= 0 {
		p, err := model.ParsePeriod(string(scope.Period))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		scope.Period = p
	}

	w.selMu.Lock()
	defer w.selMu.Unlock()
	prev := w.selection
	w.selection = scope
	if w.dashboard.SetScope(scope) {
		log.Info().Str("subject", w.subject).Str("scope", scope.Key()).Msg("workspace selection changed")
	}
	if prev.CompanyID != scope.CompanyID {
		w.host.setCompany(scope)
	}
	return nil
}

// ClearSelection stops every view.
func (w *Workspace) ClearSelection() {
	w.selMu.Lock()
	defer w.selMu.Unlock()
	w.selection = model.Scope{}
	w.dashboard.SetScope(model.Scope{})
	w.host.setCompany(model.Scope{})
}

// SelectHost opens the host page of hostID within the selected company.
func (w *Workspace) SelectHost(hostID string) error {
	hostID = strings.TrimSpace(hostID)
	w.selMu.Lock()
	defer w.selMu.Unlock()
	if w.selection.IsZero() {
		return ErrNoCompany
	}
	if hostID == "" {
		return ErrNoHost
	}
	w.host.setHost(model.Scope{CompanyID: w.selection.CompanyID, HostID: hostID})
	return nil
}

// ClearHost closes the host page.
func (w *Workspace) ClearHost() {
	w.selMu.Lock()
	defer w.selMu.Unlock()
	w.host.setHost(model.Scope{})
}

// SelectedHost returns the host of the host page, if any.
func (w *Workspace) SelectedHost() string { return w.host.selectedHost() }

// Dashboard returns the dashboard view.
func (w *Workspace) Dashboard() *Dashboard { return w.dashboard }

// Host returns the host page.
func (w *Workspace) Host() *HostView { return w.host }

// Analyze runs the dashboard AI analysis for role.
func (w *Workspace) Analyze(ctx context.Context, role rbac.Role) (string, error) {
	return w.dashboard.Analyze(ctx, role, w.backend())
}

// AnalyzeAlert runs the AI analysis of one alert for role.
func (w *Workspace) AnalyzeAlert(ctx context.Context, role rbac.Role, alertID string) (string, error) {
	return w.dashboard.AnalyzeAlert(ctx, role, w.backend(), alertID)
}

// Close stops every poller of the workspace.
func (w *Workspace) Close() {
	w.cancel()
	w.dashboard.close()
	w.host.close()
}
