package workspace

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/filter"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/grouping"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DashboardData is everything one dashboard tick loads.
type DashboardData struct {
	Alerts    []model.Alert         `json:"alerts"`
	Events    []model.EventLogEntry `json:"events"`
	Consumers model.TopConsumers    `json:"consumers"`
	HostCount int                   `json:"hostCount"`
}

func emptyDashboard() DashboardData {
	return DashboardData{
		Alerts:    []model.Alert{},
		Events:    []model.EventLogEntry{},
		Consumers: model.TopConsumers{CPU: []model.Consumer{}, Memory: []model.Consumer{}},
	}
}

// AlertView is an alert with its display category.
type AlertView struct {
	Alert   model.Alert             `json:"alert"`
	Display severity.Classification `json:"display"`
	Bucket  severity.Bucket         `json:"bucket"`
}

// EventView is a timeline entry with its status treatment.
type EventView struct {
	Event   model.EventLogEntry   `json:"event"`
	Display severity.DisplayProps `json:"display"`
}

// TimelineView is the collapsible event timeline.
type TimelineView struct {
	Events   []EventView `json:"events"`
	Hidden   int         `json:"hidden"`
	Expanded bool        `json:"expanded"`
}

// DashboardView is the rendered dashboard of one user.
type DashboardView struct {
	Scope     model.Scope                     `json:"scope"`
	Loading   bool                            `json:"loading"`
	Error     *model.ErrorDetail              `json:"error,omitempty"`
	UpdatedAt *time.Time                      `json:"updatedAt,omitempty"`
	Counts    grouping.Counts                 `json:"counts"`
	Groups    map[severity.Bucket][]AlertView `json:"groups"`
	Alerts    []AlertView                     `json:"alerts"`
	Filter    filter.Criteria                 `json:"filter"`
	Timeline  TimelineView                    `json:"timeline"`
	Consumers model.TopConsumers              `json:"consumers"`
	HostCount int                             `json:"hostCount"`
	Analysis  Analysis                        `json:"analysis"`
}

// Dashboard is the company overview: alerts, event timeline, top consumers
// and the AI panel.
type Dashboard struct {
	panel  *panel[DashboardData]
	filter *filter.State

	mu               sync.Mutex
	timelineExpanded bool
	analysis         Analysis
	analysisGen      uint64
}

func newDashboard(ctx context.Context, w *Workspace) *Dashboard {
	iv := w.deps.Intervals.Dashboard
	alerts := cached(w, "alerts", iv, func(ctx context.Context, b Backend, s model.Scope) ([]model.Alert, error) {
		return b.AlertHistory(ctx, s)
	})
	events := cached(w, "events", iv, func(ctx context.Context, b Backend, s model.Scope) ([]model.EventLogEntry, error) {
		return b.EventLog(ctx, s)
	})
	consumers := cached(w, "top_consumers", iv, func(ctx context.Context, b Backend, s model.Scope) (model.TopConsumers, error) {
		return b.TopConsumers(ctx, s)
	})
	hosts := cached(w, "hosts", iv, func(ctx context.Context, b Backend, s model.Scope) ([]model.Host, error) {
		return b.Hosts(ctx, s.CompanyID)
	})

	// the four reads are independent; a slow one must not delay the others
	fetch := func(ctx context.Context, s model.Scope) (DashboardData, error) {
		out := emptyDashboard()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if out.Alerts, err = alerts(gctx, s); err != nil {
				return fmt.Errorf("load alerts: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if out.Events, err = events(gctx, s); err != nil {
				return fmt.Errorf("load event log: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if out.Consumers, err = consumers(gctx, s); err != nil {
				return fmt.Errorf("load top consumers: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			hs, err := hosts(gctx, s.Company())
			if err != nil {
				return fmt.Errorf("load hosts: %w", err)
			}
			out.HostCount = len(hs)
			return nil
		})
		if err := g.Wait(); err != nil {
			return emptyDashboard(), err
		}
		return out, nil
	}

	return &Dashboard{
		panel:  newPanel(ctx, "dashboard", iv, w.deps.Recorder, fetch, emptyDashboard),
		filter: filter.NewState(),
	}
}

// SetScope starts the initial load of scope. A changed scope clears the AI panel;
// background refreshes never touch it.
func (d *Dashboard) SetScope(scope model.Scope) bool {
	if !d.panel.setScope(scope) {
		return false
	}
	d.mu.Lock()
	d.analysisGen++
	d.analysis = Analysis{}
	d.mu.Unlock()
	return true
}

// Refresh runs an extra background tick.
func (d *Dashboard) Refresh() bool { return d.panel.refresh() }

// Filter exposes the interactive filter of the dashboard.
func (d *Dashboard) Filter() *filter.State { return d.filter }

// SetTimelineExpanded shows or collapses the full event timeline.
func (d *Dashboard) SetTimelineExpanded(expanded bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timelineExpanded = expanded
}

// View renders the dashboard. Filtering and grouping are recomputed from the
// last committed data on every call.
func (d *Dashboard) View() DashboardView {
	st := d.panel.state()
	crit := d.filter.Criteria()

	d.mu.Lock()
	expanded := d.timelineExpanded
	analysis := d.analysis
	d.mu.Unlock()

	visible := filter.Apply(st.Data.Alerts, crit)
	buckets := grouping.Group(visible)
	shown, hidden := filter.Timeline(filter.FilterEvents(st.Data.Events, crit.Text), expanded)

	return DashboardView{
		Scope:     st.Scope,
		Loading:   st.Loading,
		Error:     st.Error,
		UpdatedAt: st.UpdatedAt,
		Counts:    grouping.Group(st.Data.Alerts).Counts(),
		Groups:    bucketViews(buckets),
		Alerts:    alertViews(visible),
		Filter:    crit,
		Timeline:  TimelineView{Events: eventViews(shown), Hidden: hidden, Expanded: expanded},
		Consumers: st.Data.Consumers,
		HostCount: st.Data.HostCount,
		Analysis:  analysis,
	}
}

// Analyze asks the assistant for a health assessment of the loaded alerts.
func (d *Dashboard) Analyze(ctx context.Context, role rbac.Role, b Backend) (string, error) {
	if err := d.gate(role); err != nil {
		return "", err
	}
	scope, data := d.panel.current()
	companyID, err := companyNumber(scope)
	if err != nil {
		return "", err
	}
	return d.ask(ctx, b, companyID, "dashboard", DashboardPrompt(scope.Period, data.HostCount, data.Alerts))
}

// AnalyzeAlert asks the assistant about one loaded alert.
func (d *Dashboard) AnalyzeAlert(ctx context.Context, role rbac.Role, b Backend, alertID string) (string, error) {
	if err := d.gate(role); err != nil {
		return "", err
	}
	scope, data := d.panel.current()
	companyID, err := companyNumber(scope)
	if err != nil {
		return "", err
	}
	for _, a := range data.Alerts {
		if a.ID == alertID {
			return d.ask(ctx, b, companyID, "alert:"+alertID, AlertPrompt(a))
		}
	}
	return "", fmt.Errorf("%w: %s", ErrAlertNotFound, alertID)
}

// ClearAnalysis empties the AI panel and abandons a pending answer.
func (d *Dashboard) ClearAnalysis() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analysisGen++
	d.analysis = Analysis{}
}

func (d *Dashboard) gate(role rbac.Role) error {
	if rbac.Allows(role, rbac.CapAIAnalysis) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	detail := describeAI(ErrInsufficientRole)
	d.analysis = Analysis{Error: &detail}
	return ErrInsufficientRole
}

// ask runs one assistant request. An answer that arrives after the scope
// changed or a newer request started is returned but not displayed.
func (d *Dashboard) ask(ctx context.Context, b Backend, companyID int, subject, prompt string) (string, error) {
	d.mu.Lock()
	d.analysisGen++
	gen := d.analysisGen
	d.analysis = Analysis{Loading: true, Subject: subject}
	d.mu.Unlock()

	resp, err := b.Chat(ctx, prompt, companyID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.analysisGen {
		log.Debug().Str("subject", subject).Msg("discarding superseded analysis")
		return resp, err
	}
	d.analysis = Analysis{Subject: subject}
	if err != nil {
		detail := describeAI(err)
		d.analysis.Error = &detail
		log.Warn().Err(err).Str("subject", subject).Msg("analysis failed")
		return "", err
	}
	d.analysis.Response = resp
	return resp, nil
}

func (d *Dashboard) close() { d.panel.close() }

func companyNumber(scope model.Scope) (int, error) {
	if scope.IsZero() {
		return 0, ErrNoCompany
	}
	id, err := strconv.Atoi(scope.CompanyID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid company id %q", ErrNoCompany, scope.CompanyID)
	}
	return id, nil
}

func alertViews(alerts []model.Alert) []AlertView {
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		c := severity.Classify(a.Severity)
		out = append(out, AlertView{Alert: a, Display: c, Bucket: grouping.BucketOf(a)})
	}
	return out
}

func bucketViews(b grouping.Buckets) map[severity.Bucket][]AlertView {
	return map[severity.Bucket][]AlertView{
		severity.BucketCritical: alertViews(b.Critical),
		severity.BucketWarning:  alertViews(b.Warning),
		severity.BucketInfo:     alertViews(b.Info),
		severity.BucketOK:       alertViews(b.OK),
	}
}

func eventViews(events []model.EventLogEntry) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{Event: e, Display: severity.ClassifyStatus(e.Status)})
	}
	return out
}
