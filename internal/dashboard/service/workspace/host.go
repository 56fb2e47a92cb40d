package workspace

import (
	"context"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/grouping"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
)

// TriggerGroups are the host triggers regrouped into display buckets.
type TriggerGroups struct {
	Counts grouping.Counts                 `json:"counts"`
	Groups map[severity.Bucket][]AlertView `json:"groups"`
}

// HostViewState is the rendered host page.
type HostViewState struct {
	Hosts      PanelState[[]model.Host]      `json:"hosts"`
	Triggers   PanelState[TriggerGroups]     `json:"triggers"`
	KeyMetrics PanelState[[]model.KeyMetric] `json:"keyMetrics"`
	SystemInfo PanelState[model.SystemInfo]  `json:"systemInfo"`
}

// HostView polls the host inventory of the selected company and, once a host
// is selected, its triggers, key metrics and system info, each at its own pace.
type HostView struct {
	hosts    *panel[[]model.Host]
	triggers *panel[model.GroupedTriggers]
	metrics  *panel[[]model.KeyMetric]
	info     *panel[model.SystemInfo]
}

func newHostView(ctx context.Context, w *Workspace) *HostView {
	iv := w.deps.Intervals
	rec := w.deps.Recorder
	return &HostView{
		hosts: newPanel(ctx, "hosts", iv.Hosts, rec,
			cached(w, "hosts", iv.Hosts, func(ctx context.Context, b Backend, s model.Scope) ([]model.Host, error) {
				return b.Hosts(ctx, s.CompanyID)
			}),
			func() []model.Host { return []model.Host{} }),
		triggers: newPanel(ctx, "host_triggers", iv.HostTriggers, rec,
			cached(w, "host_triggers", iv.HostTriggers, func(ctx context.Context, b Backend, s model.Scope) (model.GroupedTriggers, error) {
				return b.HostTriggers(ctx, s)
			}),
			func() model.GroupedTriggers { return model.GroupedTriggers{} }),
		metrics: newPanel(ctx, "key_metrics", iv.KeyMetrics, rec,
			cached(w, "key_metrics", iv.KeyMetrics, func(ctx context.Context, b Backend, s model.Scope) ([]model.KeyMetric, error) {
				return b.KeyMetrics(ctx, s)
			}),
			func() []model.KeyMetric { return []model.KeyMetric{} }),
		info: newPanel(ctx, "host_info", iv.SystemInfo, rec,
			cached(w, "host_info", iv.SystemInfo, func(ctx context.Context, b Backend, s model.Scope) (model.SystemInfo, error) {
				return b.SystemInfo(ctx, s)
			}),
			func() model.SystemInfo { return model.SystemInfo{} }),
	}
}

// setCompany polls the inventory of the company and drops any host selection.
func (h *HostView) setCompany(scope model.Scope) {
	h.hosts.setScope(model.Scope{CompanyID: scope.CompanyID})
	h.setHost(model.Scope{})
}

// setHost switches the host panels to scope, or stops them for a zero scope.
func (h *HostView) setHost(scope model.Scope) {
	if scope.HostID == "" {
		scope = model.Scope{}
	} else {
		scope = model.Scope{CompanyID: scope.CompanyID, HostID: scope.HostID}
	}
	h.triggers.setScope(scope)
	h.metrics.setScope(scope)
	h.info.setScope(scope)
}

func (h *HostView) selectedHost() string {
	s, _ := h.triggers.current()
	return s.HostID
}

// State renders the host page.
func (h *HostView) State() HostViewState {
	t := h.triggers.state()
	buckets := grouping.Group(t.Data.Flatten())
	return HostViewState{
		Hosts: h.hosts.state(),
		Triggers: PanelState[TriggerGroups]{
			Scope: t.Scope,
			Data: TriggerGroups{
				Counts: buckets.Counts(),
				Groups: bucketViews(buckets),
			},
			Loading:   t.Loading,
			Error:     t.Error,
			UpdatedAt: t.UpdatedAt,
		},
		KeyMetrics: h.metrics.state(),
		SystemInfo: h.info.state(),
	}
}

func (h *HostView) close() {
	h.hosts.close()
	h.triggers.close()
	h.metrics.close()
	h.info.close()
}
