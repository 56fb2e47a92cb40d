package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	alerts   map[string][]model.Alert
	alertErr error
	chatErr  error
	answer   string
	prompts  []string
	chatIDs  []int
	reports  []model.ReportRequest
	calls    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		alerts: map[string][]model.Alert{
			"1": {
				{ID: "a", Description: "DB down", Severity: 5, Hosts: []string{"pg-main"}},
				{ID: "b", Description: "CPU high", Severity: 2, Hosts: []string{"web-01"}},
				{ID: "c", Description: "odd", Severity: 9},
			},
			"2": {
				{ID: "z", Description: "Disk full", Severity: 4, Hosts: []string{"fs-01"}},
			},
		},
		answer: "looks fine",
		calls:  map[string]int{},
	}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) setAlertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertErr = err
}

func (f *fakeBackend) Hosts(ctx context.Context, companyID string) ([]model.Host, error) {
	f.count("hosts")
	return []model.Host{{ID: "42", Name: "pg-main"}, {ID: "43", Name: "web-01"}}, nil
}

func (f *fakeBackend) AlertHistory(ctx context.Context, scope model.Scope) ([]model.Alert, error) {
	f.count("alerts")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alertErr != nil {
		return nil, f.alertErr
	}
	return append([]model.Alert(nil), f.alerts[scope.CompanyID]...), nil
}

func (f *fakeBackend) EventLog(ctx context.Context, scope model.Scope) ([]model.EventLogEntry, error) {
	f.count("events")
	out := []model.EventLogEntry{}
	for i := 0; i < 6; i++ {
		status := model.StatusResolved
		if i%2 == 0 {
			status = model.StatusProblem
		}
		out = append(out, model.EventLogEntry{ID: fmt.Sprint(i), Description: fmt.Sprintf("event %d", i), Host: "pg-main", Status: status})
	}
	return out, nil
}

func (f *fakeBackend) TopConsumers(ctx context.Context, scope model.Scope) (model.TopConsumers, error) {
	f.count("top_consumers")
	return model.TopConsumers{CPU: []model.Consumer{{Name: "pg-main", Value: 91}}, Memory: []model.Consumer{}}, nil
}

func (f *fakeBackend) HostTriggers(ctx context.Context, scope model.Scope) (model.GroupedTriggers, error) {
	f.count("host_triggers")
	return model.GroupedTriggers{
		Critical: []model.Alert{{ID: "t1", Description: "down", Severity: 5}},
		Warning:  []model.Alert{{ID: "t2", Description: "slow", Severity: 3}},
		OK:       []model.Alert{{ID: "t3", Description: "was slow", Severity: 3}},
	}, nil
}

func (f *fakeBackend) KeyMetrics(ctx context.Context, scope model.Scope) ([]model.KeyMetric, error) {
	f.count("key_metrics")
	return []model.KeyMetric{{Key: "cpu", Value: "12%"}}, nil
}

func (f *fakeBackend) SystemInfo(ctx context.Context, scope model.Scope) (model.SystemInfo, error) {
	f.count("host_info")
	var info model.SystemInfo
	info.Host.Name = "pg-main"
	return info, nil
}

func (f *fakeBackend) Chat(ctx context.Context, question string, companyID int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, question)
	f.chatIDs = append(f.chatIDs, companyID)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.answer, nil
}

func (f *fakeBackend) GenerateReport(ctx context.Context, in model.ReportRequest) (model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, in)
	if f.chatErr != nil {
		return model.Report{}, f.chatErr
	}
	return model.Report{Content: "# Report for " + in.HostID, GeneratedAt: "2024-01-01T00:00:00"}, nil
}

func (f *fakeBackend) HealthTrend(ctx context.Context, companyID string, period model.Period) ([]model.TrendPoint, error) {
	f.count("health_trend:" + string(period))
	return []model.TrendPoint{{Time: "10:00", CPU: 12.5, Memory: 40, TopCPU: []model.Consumer{{Name: "pg-main", Value: 30}}, TopMemory: []model.Consumer{}}}, nil
}

func (f *fakeBackend) Inventory(ctx context.Context, companyID, filter string) ([]model.InventoryHost, error) {
	f.count("inventory")
	hosts := []model.InventoryHost{{ID: "42", Name: "pg-main"}, {ID: "43", Name: "web-01"}}
	if filter == "" {
		return hosts, nil
	}
	out := []model.InventoryHost{}
	for _, h := range hosts {
		if strings.Contains(h.Name, filter) {
			out = append(out, h)
		}
	}
	return out, nil
}

func fastDeps() Deps {
	return Deps{Intervals: Intervals{
		Dashboard:    20 * time.Millisecond,
		Hosts:        20 * time.Millisecond,
		HostTriggers: 20 * time.Millisecond,
		KeyMetrics:   10 * time.Millisecond,
		SystemInfo:   50 * time.Millisecond,
	}}
}

func newTestWorkspace(t *testing.T, b Backend) *Workspace {
	t.Helper()
	w := New(context.Background(), "user-1", fastDeps(), b)
	t.Cleanup(w.Close)
	return w
}

func loaded(w *Workspace, company string) func() bool {
	return func() bool {
		v := w.Dashboard().View()
		return !v.Loading && v.Scope.CompanyID == company && v.UpdatedAt != nil
	}
}

func TestDashboard_LoadsAndGroups(t *testing.T) {
	w := newTestWorkspace(t, newFakeBackend())
	v := w.Dashboard().View()
	assert.False(t, v.Loading)
	assert.Empty(t, v.Alerts)

	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	assert.Equal(t, model.Period24h, w.Selection().Period)
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	v = w.Dashboard().View()
	assert.Nil(t, v.Error)
	assert.Equal(t, 1, v.Counts.Critical)
	assert.Equal(t, 1, v.Counts.Warning)
	assert.Equal(t, 0, v.Counts.Info)
	assert.Equal(t, 1, v.Counts.OK)
	assert.Equal(t, 2, v.HostCount)

	// unknown priority 9 is counted but not visible by default
	require.Len(t, v.Alerts, 2)
	assert.Equal(t, "Disaster", v.Alerts[0].Display.Label)
	assert.Equal(t, severity.BucketCritical, v.Alerts[0].Bucket)
	assert.Len(t, v.Groups[severity.BucketCritical], 1)
	assert.Empty(t, v.Groups[severity.BucketInfo])

	assert.Len(t, v.Timeline.Events, 4)
	assert.Equal(t, 2, v.Timeline.Hidden)
	assert.Equal(t, "PROBLEM", v.Timeline.Events[0].Display.Text)

	w.Dashboard().SetTimelineExpanded(true)
	v = w.Dashboard().View()
	assert.Len(t, v.Timeline.Events, 6)
	assert.Zero(t, v.Timeline.Hidden)
}

func TestDashboard_FilterRecomputedFromData(t *testing.T) {
	w := newTestWorkspace(t, newFakeBackend())
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	w.Dashboard().Filter().SetTextFilter("db")
	v := w.Dashboard().View()
	require.Len(t, v.Alerts, 1)
	assert.Equal(t, "a", v.Alerts[0].Alert.ID)
	assert.Equal(t, "db", v.Filter.Text)

	w.Dashboard().Filter().SetActiveSeverities(nil)
	assert.Empty(t, w.Dashboard().View().Alerts)

	w.Dashboard().Filter().SetTextFilter("")
	w.Dashboard().Filter().SetActiveSeverities([]int{9})
	v = w.Dashboard().View()
	require.Len(t, v.Alerts, 1)
	assert.Equal(t, "Unknown", v.Alerts[0].Display.Label)
}

// barrierBackend holds every dashboard read until all four have started.
type barrierBackend struct {
	*fakeBackend
	arrived atomic.Int32
	all     chan struct{}
	once    sync.Once
}

func (b *barrierBackend) wait(ctx context.Context) error {
	if b.arrived.Add(1) == 4 {
		b.once.Do(func() { close(b.all) })
	}
	select {
	case <-b.all:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return errors.New("dashboard reads ran one after another")
	}
}

func (b *barrierBackend) Hosts(ctx context.Context, companyID string) ([]model.Host, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	return b.fakeBackend.Hosts(ctx, companyID)
}

func (b *barrierBackend) AlertHistory(ctx context.Context, scope model.Scope) ([]model.Alert, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	return b.fakeBackend.AlertHistory(ctx, scope)
}

func (b *barrierBackend) EventLog(ctx context.Context, scope model.Scope) ([]model.EventLogEntry, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	return b.fakeBackend.EventLog(ctx, scope)
}

func (b *barrierBackend) TopConsumers(ctx context.Context, scope model.Scope) (model.TopConsumers, error) {
	if err := b.wait(ctx); err != nil {
		return model.TopConsumers{}, err
	}
	return b.fakeBackend.TopConsumers(ctx, scope)
}

func TestDashboard_ReadsRunConcurrently(t *testing.T) {
	b := &barrierBackend{fakeBackend: newFakeBackend(), all: make(chan struct{})}
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	require.Eventually(t, loaded(w, "1"), 2*time.Second, 5*time.Millisecond)

	v := w.Dashboard().View()
	assert.Nil(t, v.Error)
	assert.Equal(t, 2, v.HostCount)
	assert.Len(t, v.Consumers.CPU, 1)
	assert.Len(t, v.Timeline.Events, 4)
}

func TestDashboard_FailureKeepsDataAndRecovers(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	b.setAlertErr(&client.APIError{Resource: "alerts", Status: 500, Detail: "zabbix down"})
	require.Eventually(t, func() bool { return w.Dashboard().View().Error != nil }, time.Second, 5*time.Millisecond)
	v := w.Dashboard().View()
	assert.Equal(t, model.CodeBackendError, v.Error.Code)
	assert.Equal(t, "zabbix down", v.Error.Message)
	assert.Len(t, v.Alerts, 2, "previous data stays visible")

	b.setAlertErr(nil)
	require.Eventually(t, func() bool { return w.Dashboard().View().Error == nil }, time.Second, 5*time.Millisecond)
}

func TestDashboard_AuthFailureStopsPolling(t *testing.T) {
	b := newFakeBackend()
	b.setAlertErr(client.ErrUnauthorized)
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))

	require.Eventually(t, func() bool { return w.Dashboard().View().Error != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, model.CodeUnauthenticated, w.Dashboard().View().Error.Code)

	time.Sleep(30 * time.Millisecond)
	n := b.callCount("alerts")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, b.callCount("alerts"))
}

func TestAnalysis_RoleGate(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	_, err := w.Analyze(context.Background(), rbac.RoleViewer)
	assert.ErrorIs(t, err, ErrInsufficientRole)
	a := w.Dashboard().View().Analysis
	require.NotNil(t, a.Error)
	assert.Equal(t, model.CodeInsufficientRole, a.Error.Code)
	assert.Empty(t, b.prompts)

	_, err = w.Analyze(context.Background(), rbac.RoleNone)
	assert.ErrorIs(t, err, ErrInsufficientRole)
}

func TestAnalysis_SurvivesRefreshClearedByScopeChange(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1", Period: model.Period7d}))
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	resp, err := w.Analyze(context.Background(), rbac.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, "looks fine", resp)
	require.Len(t, b.prompts, 1)
	assert.Contains(t, b.prompts[0], "DB down (Host: pg-main)")
	assert.Contains(t, b.prompts[0], "last 7 days")
	assert.Equal(t, []int{1}, b.chatIDs)

	ticks := b.callCount("alerts")
	require.Eventually(t, func() bool { return b.callCount("alerts") > ticks+1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "looks fine", w.Dashboard().View().Analysis.Response)

	// same selection again is not an initial load
	require.NoError(t, w.Select(model.Scope{CompanyID: "1", Period: model.Period7d}))
	assert.Equal(t, "looks fine", w.Dashboard().View().Analysis.Response)

	require.NoError(t, w.Select(model.Scope{CompanyID: "2"}))
	v := w.Dashboard().View()
	assert.Empty(t, v.Analysis.Response)
	assert.Equal(t, "2", v.Scope.CompanyID)
}

func TestAnalysis_BackendForbidden(t *testing.T) {
	b := newFakeBackend()
	b.chatErr = fmt.Errorf("%w: role", client.ErrForbidden)
	w := newTestWorkspace(t, b)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	require.Eventually(t, loaded(w, "1"), time.Second, 5*time.Millisecond)

	_, err := w.AnalyzeAlert(context.Background(), rbac.RoleAdmin, "a")
	assert.ErrorIs(t, err, client.ErrForbidden)
	a := w.Dashboard().View().Analysis
	require.NotNil(t, a.Error)
	assert.Equal(t, model.CodeInsufficientRole, a.Error.Code)
	assert.Contains(t, a.Error.Message, "Operator")
	assert.Equal(t, "alert:a", a.Subject)
	assert.Contains(t, b.prompts[0], "Severity: Disaster")

	_, err = w.AnalyzeAlert(context.Background(), rbac.RoleAdmin, "missing")
	assert.ErrorIs(t, err, ErrAlertNotFound)

	w.Dashboard().ClearAnalysis()
	assert.Equal(t, Analysis{}, w.Dashboard().View().Analysis)
}

func TestAnalysis_NeedsCompany(t *testing.T) {
	w := newTestWorkspace(t, newFakeBackend())
	_, err := w.Analyze(context.Background(), rbac.RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrNoCompany)
}

func TestHostView_SelectAndReset(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)

	assert.ErrorIs(t, w.SelectHost("42"), ErrNoCompany)
	require.NoError(t, w.Select(model.Scope{CompanyID: "1"}))
	assert.ErrorIs(t, w.SelectHost(" "), ErrNoHost)
	require.NoError(t, w.SelectHost("42"))
	assert.Equal(t, "42", w.SelectedHost())

	require.Eventually(t, func() bool {
		st := w.Host().State()
		return !st.Triggers.Loading && !st.KeyMetrics.Loading && !st.SystemInfo.Loading && !st.Hosts.Loading
	}, time.Second, 5*time.Millisecond)

	st := w.Host().State()
	assert.Len(t, st.Hosts.Data, 2)
	assert.Equal(t, 1, st.Triggers.Data.Counts.Critical)
	assert.Equal(t, 1, st.Triggers.Data.Counts.Warning)
	assert.Equal(t, 1, st.Triggers.Data.Counts.OK)
	assert.True(t, st.Triggers.Data.Groups[severity.BucketOK][0].Alert.Resolved)
	assert.Equal(t, "cpu", st.KeyMetrics.Data[0].Key)
	assert.Equal(t, "pg-main", st.SystemInfo.Data.Host.Name)
	assert.Equal(t, "42", st.Triggers.Scope.HostID)

	// another period keeps the host page
	require.NoError(t, w.Select(model.Scope{CompanyID: "1", Period: model.Period30d}))
	assert.Equal(t, "42", w.SelectedHost())

	// another company resets it
	require.NoError(t, w.Select(model.Scope{CompanyID: "2"}))
	assert.Empty(t, w.SelectedHost())
	st = w.Host().State()
	assert.Empty(t, st.KeyMetrics.Data)
	assert.False(t, st.KeyMetrics.Loading)
	assert.Equal(t, "2", st.Hosts.Scope.CompanyID)

	w.ClearSelection()
	assert.True(t, w.Selection().IsZero())
	assert.True(t, w.Dashboard().View().Scope.IsZero())
}

func TestSelect_Validation(t *testing.T) {
	w := newTestWorkspace(t, newFakeBackend())
	err := w.Select(model.Scope{CompanyID: "1", Period: "1y"})
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, model.CodeInvalidParameter, Describe(err).Code)

	err = w.Select(model.Scope{CompanyID: "1", From: 20, Till: 10})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	require.NoError(t, w.Select(model.Scope{CompanyID: "1", From: 10, Till: 20}))
	assert.Empty(t, w.Selection().Period)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{client.ErrUnauthorized, model.CodeUnauthenticated},
		{fmt.Errorf("load alerts: %w", client.ErrUnauthorized), model.CodeUnauthenticated},
		{client.ErrForbidden, model.CodeInsufficientRole},
		{ErrInsufficientRole, model.CodeInsufficientRole},
		{ErrNoCompany, model.CodeInvalidParameter},
		{ErrAlertNotFound, model.CodeNotFound},
		{context.DeadlineExceeded, model.CodeBackendError},
		{errors.New("dial tcp: refused"), model.CodeBackendError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, Describe(tt.err).Code, tt.err.Error())
	}
	assert.Equal(t, model.ErrorDetail{}, Describe(nil))
	assert.Contains(t, Describe(client.ErrUnauthorized).Message, "log in again")
}

func TestDashboardPrompt(t *testing.T) {
	alerts := make([]model.Alert, 15)
	for i := range alerts {
		alerts[i] = model.Alert{Description: fmt.Sprintf("problem-%02d", i)}
	}
	p := DashboardPrompt(model.Period30d, 7, alerts)
	assert.Contains(t, p, "problem-09")
	assert.NotContains(t, p, "problem-10")
	assert.Contains(t, p, "Monitored hosts: 7")
	assert.Contains(t, p, "(Host: N/A)")
	assert.Equal(t, 10, strings.Count(p, "problem-"))

	assert.Contains(t, DashboardPrompt(model.Period24h, 0, nil), "No problems found.")
}

func TestRegistry(t *testing.T) {
	var sizes []int
	var mu sync.Mutex
	r := NewRegistry(context.Background(), fastDeps(), RegistryOptions{
		IdleTTL: time.Minute,
		OnSize: func(n int) {
			mu.Lock()
			defer mu.Unlock()
			sizes = append(sizes, n)
		},
	})
	defer r.Close()

	b := newFakeBackend()
	w1 := r.Acquire("alice", b)
	w2 := r.Acquire("alice", b)
	assert.Same(t, w1, w2)
	r.Acquire("bob", b)
	assert.Equal(t, 2, r.Len())

	_, ok := r.Lookup("carol")
	assert.False(t, ok)

	assert.Zero(t, r.EvictIdle(time.Now()))
	bob, _ := r.Lookup("bob")
	bob.Touch(time.Now().Add(time.Hour))
	assert.Equal(t, 1, r.EvictIdle(time.Now().Add(2*time.Minute)))
	_, ok = r.Lookup("alice")
	assert.False(t, ok)

	assert.True(t, r.Release("bob"))
	assert.False(t, r.Release("bob"))
	assert.Zero(t, r.Len())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 1, 0}, sizes)
}

func TestReport_NeedsRoleHostAndQuery(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)
	ctx := context.Background()

	_, err := w.GenerateReport(ctx, rbac.RoleViewer, "why slow?", "")
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = w.GenerateReport(ctx, rbac.RoleOperator, "why slow?", "")
	assert.ErrorIs(t, err, ErrNoCompany)

	require.NoError(t, w.Select(model.Scope{CompanyID: "1", Period: model.Period7d}))
	_, err = w.GenerateReport(ctx, rbac.RoleOperator, "why slow?", "")
	assert.ErrorIs(t, err, ErrNoHost)

	require.NoError(t, w.SelectHost("42"))
	_, err = w.GenerateReport(ctx, rbac.RoleOperator, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidSelection)
	_, err = w.GenerateReport(ctx, rbac.RoleOperator, "why slow?", "1y")
	assert.ErrorIs(t, err, ErrInvalidSelection)

	report, err := w.GenerateReport(ctx, rbac.RoleOperator, "why slow?", "")
	require.NoError(t, err)
	assert.Equal(t, "# Report for 42", report.Content)

	_, err = w.GenerateReport(ctx, rbac.RoleAdmin, "and now?", "30d")
	require.NoError(t, err)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.reports, 2)
	assert.Equal(t, model.ReportRequest{HostID: "42", CompanyID: 1, UserQuery: "why slow?", Period: model.Period7d}, b.reports[0])
	assert.Equal(t, model.Period30d, b.reports[1].Period)
}

func TestHealthTrendAndInventory(t *testing.T) {
	b := newFakeBackend()
	w := newTestWorkspace(t, b)
	ctx := context.Background()

	_, err := w.HealthTrend(ctx)
	assert.ErrorIs(t, err, ErrNoCompany)
	_, err = w.Inventory(ctx, "")
	assert.ErrorIs(t, err, ErrNoCompany)

	require.NoError(t, w.Select(model.Scope{CompanyID: "1", Period: model.Period30d}))
	points, err := w.HealthTrend(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 12.5, points[0].CPU)
	assert.Equal(t, 1, b.callCount("health_trend:30d"))

	require.NoError(t, w.Select(model.Scope{CompanyID: "1", From: 100, Till: 200}))
	_, err = w.HealthTrend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.callCount("health_trend:24h"), "custom ranges use the 24h trend")

	hosts, err := w.Inventory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, hosts, 2)
	hosts, err = w.Inventory(ctx, "web")
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "43", hosts[0].ID)
}
