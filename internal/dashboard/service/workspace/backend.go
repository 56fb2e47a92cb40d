package workspace

import (
	"context"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/cache"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/poller"
)

// Backend is the part of *client.Session a workspace polls.
type Backend interface {
	Hosts(ctx context.Context, companyID string) ([]model.Host, error)
	AlertHistory(ctx context.Context, scope model.Scope) ([]model.Alert, error)
	EventLog(ctx context.Context, scope model.Scope) ([]model.EventLogEntry, error)
	TopConsumers(ctx context.Context, scope model.Scope) (model.TopConsumers, error)
	HostTriggers(ctx context.Context, scope model.Scope) (model.GroupedTriggers, error)
	KeyMetrics(ctx context.Context, scope model.Scope) ([]model.KeyMetric, error)
	SystemInfo(ctx context.Context, scope model.Scope) (model.SystemInfo, error)
	Chat(ctx context.Context, question string, companyID int) (string, error)
	GenerateReport(ctx context.Context, in model.ReportRequest) (model.Report, error)
	HealthTrend(ctx context.Context, companyID string, period model.Period) ([]model.TrendPoint, error)
	Inventory(ctx context.Context, companyID, filter string) ([]model.InventoryHost, error)
}

// Intervals are the refresh periods of every polled collection.
type Intervals struct {
	Dashboard    time.Duration
	Hosts        time.Duration
	HostTriggers time.Duration
	KeyMetrics   time.Duration
	SystemInfo   time.Duration
}

// DefaultIntervals returns the standard refresh periods.
func DefaultIntervals() Intervals {
	return Intervals{
		Dashboard:    poller.IntervalDashboard,
		Hosts:        poller.IntervalHosts,
		HostTriggers: poller.IntervalHostTriggers,
		KeyMetrics:   poller.IntervalKeyMetrics,
		SystemInfo:   poller.IntervalSystemInfo,
	}
}

func (iv Intervals) withDefaults() Intervals {
	d := DefaultIntervals()
	if iv.Dashboard <= 0 {
		iv.Dashboard = d.Dashboard
	}
	if iv.Hosts <= 0 {
		iv.Hosts = d.Hosts
	}
	if iv.HostTriggers <= 0 {
		iv.HostTriggers = d.HostTriggers
	}
	if iv.KeyMetrics <= 0 {
		iv.KeyMetrics = d.KeyMetrics
	}
	if iv.SystemInfo <= 0 {
		iv.SystemInfo = d.SystemInfo
	}
	return iv
}

// Deps are shared by every workspace of a registry.
type Deps struct {
	Cache     cache.Cache
	Recorder  poller.Recorder
	Intervals Intervals
}

// cacheTTL keeps cached entries younger than one poll period.
func cacheTTL(interval time.Duration) time.Duration { return interval / 2 }

// cached wraps a backend read with the read-through cache of the workspace owner.
func cached[T any](w *Workspace, resource string, interval time.Duration,
	read func(ctx context.Context, b Backend, scope model.Scope) (T, error)) poller.FetchFunc[T] {
	return func(ctx context.Context, scope model.Scope) (T, error) {
		b := w.backend()
		key := cache.Key(w.subject, resource, scope)
		return cache.ReadThrough(ctx, w.deps.Cache, key, cacheTTL(interval), func(ctx context.Context) (T, error) {
			return read(ctx, b, scope)
		})
	}
}
