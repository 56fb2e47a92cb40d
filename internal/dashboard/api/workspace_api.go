package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/workspace"
	"github.com/qiniu/zabbixboard/internal/middleware"
	"github.com/rs/zerolog/log"
)

func (api *Api) setupWorkspaceRouters(v1 *gin.RouterGroup) {
	ws := v1.Group("/workspace", middleware.RequireRole(rbac.RoleViewer))
	ws.DELETE("", api.CloseWorkspace)

	ws.PUT("/scope", api.SelectScope)
	ws.DELETE("/scope", api.ClearScope)
	ws.PUT("/filter", api.UpdateFilter)
	ws.PUT("/timeline", api.UpdateTimeline)

	ws.GET("/dashboard", api.GetDashboard)
	ws.POST("/dashboard/refresh", api.RefreshDashboard)
	ws.GET("/dashboard/health", api.GetHealthTrend)
	ws.GET("/inventory", api.GetInventory)

	ws.POST("/analysis", api.AnalyzeDashboard)
	ws.DELETE("/analysis", api.ClearAnalysis)
	ws.POST("/alerts/:alertID/analysis", api.AnalyzeAlert)

	ws.GET("/host", api.GetHost)
	ws.PUT("/host", api.SelectHost)
	ws.DELETE("/host", api.ClearHost)
	ws.POST("/host/report", middleware.RequireRole(rbac.RoleOperator), api.GenerateReport)
}

// workspace returns the caller's workspace bound to the request's token.
func (api *Api) workspace(c *gin.Context) *workspace.Workspace {
	p := principal(c)
	return api.registry.Acquire(p.Subject, api.client.Session(p.Token))
}

// CloseWorkspace stops every poller of the caller (DELETE /v1/workspace).
func (api *Api) CloseWorkspace(c *gin.Context) {
	p := principal(c)
	if api.registry.Release(p.Subject) {
		log.Info().Str("subject", p.Subject).Msg("workspace closed")
	}
	c.Status(http.StatusNoContent)
}

// SelectScope changes the dashboard selection (PUT /v1/workspace/scope).
func (api *Api) SelectScope(c *gin.Context) {
	var scope model.Scope
	if err := c.ShouldBindJSON(&scope); err != nil {
		sendInvalidParameter(c, "body", "", "invalid scope: "+err.Error())
		return
	}
	w := api.workspace(c)
	if err := w.Select(scope); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.Dashboard().View())
}

// ClearScope stops polling until a company is selected again (DELETE /v1/workspace/scope).
func (api *Api) ClearScope(c *gin.Context) {
	api.workspace(c).ClearSelection()
	c.Status(http.StatusNoContent)
}

// FilterRequest updates the alert filter. Absent fields are left unchanged;
// Toggle flips each listed severity after the other fields are applied.
type FilterRequest struct {
	ActiveSeverities *[]int  `json:"activeSeverities"`
	Text             *string `json:"text"`
	Toggle           []int   `json:"toggle"`
}

// UpdateFilter (PUT /v1/workspace/filter)
func (api *Api) UpdateFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "body", "", "invalid filter: "+err.Error())
		return
	}
	d := api.workspace(c).Dashboard()
	f := d.Filter()
	if req.ActiveSeverities != nil {
		f.SetActiveSeverities(*req.ActiveSeverities)
	}
	if req.Text != nil {
		f.SetTextFilter(*req.Text)
	}
	for _, code := range req.Toggle {
		f.Toggle(code)
	}
	c.JSON(http.StatusOK, d.View())
}

// TimelineRequest expands or collapses the event timeline.
type TimelineRequest struct {
	Expanded bool `json:"expanded"`
}

// UpdateTimeline (PUT /v1/workspace/timeline)
func (api *Api) UpdateTimeline(c *gin.Context) {
	var req TimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "expanded", "", "expanded must be a boolean")
		return
	}
	d := api.workspace(c).Dashboard()
	d.SetTimelineExpanded(req.Expanded)
	c.JSON(http.StatusOK, d.View())
}

// GetDashboard renders the caller's dashboard (GET /v1/workspace/dashboard).
func (api *Api) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, api.workspace(c).Dashboard().View())
}

// RefreshDashboard starts an extra tick outside the schedule (POST /v1/workspace/dashboard/refresh).
func (api *Api) RefreshDashboard(c *gin.Context) {
	d := api.workspace(c).Dashboard()
	if !d.Refresh() {
		sendErrorResponse(c, http.StatusBadRequest, model.ErrorDetail{
			Code:    model.CodeInvalidParameter,
			Message: "select a company first",
		})
		return
	}
	c.JSON(http.StatusAccepted, d.View())
}

// AnalysisResponse is the answer of the AI panel.
type AnalysisResponse struct {
	Subject    string    `json:"subject"`
	Response   string    `json:"response"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// AnalyzeDashboard (POST /v1/workspace/analysis)
func (api *Api) AnalyzeDashboard(c *gin.Context) {
	w := api.workspace(c)
	resp, err := w.Analyze(c.Request.Context(), principal(c).Role)
	if err != nil {
		sendAnalysisError(c, w, err)
		return
	}
	c.JSON(http.StatusOK, AnalysisResponse{Subject: "dashboard", Response: resp, AnalyzedAt: time.Now()})
}

// AnalyzeAlert (POST /v1/workspace/alerts/:alertID/analysis)
func (api *Api) AnalyzeAlert(c *gin.Context) {
	alertID := strings.TrimSpace(c.Param("alertID"))
	w := api.workspace(c)
	resp, err := w.AnalyzeAlert(c.Request.Context(), principal(c).Role, alertID)
	if err != nil {
		sendAnalysisError(c, w, err)
		return
	}
	c.JSON(http.StatusOK, AnalysisResponse{Subject: "alert:" + alertID, Response: resp, AnalyzedAt: time.Now()})
}

// sendAnalysisError prefers the message the AI panel shows.
func sendAnalysisError(c *gin.Context, w *workspace.Workspace, err error) {
	detail := workspace.Describe(err)
	if a := w.Dashboard().View().Analysis; a.Error != nil && a.Error.Code == detail.Code {
		detail = *a.Error
	}
	log.Debug().Err(err).Str("subject", w.Subject()).Msg("analysis rejected")
	sendErrorResponse(c, statusOf(detail.Code), detail)
}

// ClearAnalysis (DELETE /v1/workspace/analysis)
func (api *Api) ClearAnalysis(c *gin.Context) {
	api.workspace(c).Dashboard().ClearAnalysis()
	c.Status(http.StatusNoContent)
}

// HostRequest opens the host page.
type HostRequest struct {
	HostID string `json:"hostId" binding:"required"`
}

// GetHost renders the host page (GET /v1/workspace/host).
func (api *Api) GetHost(c *gin.Context) {
	c.JSON(http.StatusOK, api.workspace(c).Host().State())
}

// SelectHost (PUT /v1/workspace/host)
func (api *Api) SelectHost(c *gin.Context) {
	var req HostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "hostId", "", "hostId is required")
		return
	}
	w := api.workspace(c)
	if err := w.SelectHost(req.HostID); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.Host().State())
}

// ClearHost (DELETE /v1/workspace/host)
func (api *Api) ClearHost(c *gin.Context) {
	api.workspace(c).ClearHost()
	c.Status(http.StatusNoContent)
}

// GetHealthTrend returns the hourly cpu and memory averages of the selected
// company (GET /v1/workspace/dashboard/health).
func (api *Api) GetHealthTrend(c *gin.Context) {
	points, err := api.workspace(c).HealthTrend(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetInventory (GET /v1/workspace/inventory?filter=)
func (api *Api) GetInventory(c *gin.Context) {
	hosts, err := api.workspace(c).Inventory(c.Request.Context(), c.Query("filter"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, hosts)
}

// ReportRequest asks for an AI report about the host of the host page.
type ReportRequest struct {
	Query  string `json:"query" binding:"required"`
	Period string `json:"period"`
}

// GenerateReport (POST /v1/workspace/host/report)
func (api *Api) GenerateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "query", "", "query is required")
		return
	}
	report, err := api.workspace(c).GenerateReport(c.Request.Context(), principal(c).Role, req.Query, req.Period)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
