package workspace

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/qiniu/zabbixboard/internal/dashboard/cache"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/rs/zerolog/log"
)

// GenerateReport asks the assistant for a report about the host of the host
// page. An empty period falls back to the dashboard's.
func (w *Workspace) GenerateReport(ctx context.Context, role rbac.Role, query string, period string) (model.Report, error) {
	if !rbac.Allows(role, rbac.CapAIReport) {
		return model.Report{}, ErrInsufficientRole
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Report{}, fmt.Errorf("%w: the report needs a question", ErrInvalidSelection)
	}

	sel := w.Selection()
	companyID, err := companyNumber(sel)
	if err != nil {
		return model.Report{}, err
	}
	hostID := w.SelectedHost()
	if hostID == "" {
		return model.Report{}, ErrNoHost
	}
	if strings.TrimSpace(period) == "" {
		period = string(sel.Period)
	}
	p, err := model.ParsePeriod(period)
	if err != nil {
		return model.Report{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	report, err := w.backend().GenerateReport(ctx, model.ReportRequest{
		HostID:    hostID,
		CompanyID: companyID,
		UserQuery: query,
		Period:    p,
	})
	if err != nil {
		log.Warn().Err(err).Str("subject", w.subject).Str("host", hostID).Msg("report generation failed")
		return model.Report{}, err
	}
	return report, nil
}

// HealthTrend returns the hourly cpu and memory averages of the selection.
func (w *Workspace) HealthTrend(ctx context.Context) ([]model.TrendPoint, error) {
	sel := w.Selection()
	if sel.IsZero() {
		return nil, ErrNoCompany
	}
	// custom ranges have no period token; the trend endpoint needs one
	scope := model.Scope{CompanyID: sel.CompanyID, Period: sel.Period}
	if scope.Period == "" {
		scope.Period = model.Period24h
	}
	iv := w.deps.Intervals.Dashboard
	b := w.backend()
	return cache.ReadThrough(ctx, w.deps.Cache, cache.Key(w.subject, "health_trend", scope), cacheTTL(iv),
		func(ctx context.Context) ([]model.TrendPoint, error) {
			return b.HealthTrend(ctx, scope.CompanyID, scope.Period)
		})
}

// Inventory lists the hosts of the selected company with their inventory
// fields, narrowed to names containing filter.
func (w *Workspace) Inventory(ctx context.Context, filter string) ([]model.InventoryHost, error) {
	sel := w.Selection()
	if sel.IsZero() {
		return nil, ErrNoCompany
	}
	filter = strings.TrimSpace(filter)
	resource := "inventory"
	if filter != "" {
		resource += ":" + url.QueryEscape(filter)
	}
	iv := w.deps.Intervals.Hosts
	b := w.backend()
	return cache.ReadThrough(ctx, w.deps.Cache, cache.Key(w.subject, resource, model.Scope{CompanyID: sel.CompanyID}), cacheTTL(iv),
		func(ctx context.Context) ([]model.InventoryHost, error) {
			return b.Inventory(ctx, sel.CompanyID, filter)
		})
}
