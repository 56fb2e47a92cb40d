package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/workspace"
	"github.com/qiniu/zabbixboard/internal/middleware"
	"github.com/rs/zerolog/log"
)

// Api is the HTTP surface used by the dashboard UI.
type Api struct {
	client   *client.Client
	registry *workspace.Registry
	verifier *middleware.TokenVerifier
	metrics  http.Handler
}

// NewApi registers every route on router. metrics may be nil.
func NewApi(c *client.Client, registry *workspace.Registry, verifier *middleware.TokenVerifier, metrics http.Handler, router *gin.Engine) *Api {
	api := &Api{
		client:   c,
		registry: registry,
		verifier: verifier,
		metrics:  metrics,
	}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if api.metrics != nil {
		router.GET("/metrics", gin.WrapH(api.metrics))
	}

	v1 := router.Group("/v1", middleware.Authentication(api.verifier))
	v1.GET("/me", api.GetProfile)
	v1.PATCH("/me", api.UpdateProfile)
	v1.GET("/me/capabilities", api.GetCapabilities)
	v1.POST("/chat", middleware.RequireRole(rbac.RoleOperator), api.Chat)

	api.setupAdminRouters(v1)
	api.setupWorkspaceRouters(v1)
}

// ========== helpers ==========

// sendErrorResponse writes the standard error body.
func sendErrorResponse(c *gin.Context, status int, detail model.ErrorDetail) {
	c.JSON(status, model.ErrorResponse{Error: detail})
}

// sendError maps err onto a status code and error body.
func sendError(c *gin.Context, err error) {
	detail := workspace.Describe(err)
	status := statusOf(detail.Code)

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status = apiErr.Status
		detail.Code = model.CodeInvalidParameter
		if apiErr.Status == http.StatusNotFound {
			detail.Code = model.CodeNotFound
		}
	}

	reqID := middleware.GetRequestID(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", reqID).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("request_id", reqID).Str("path", c.FullPath()).Int("status", status).Msg("request rejected")
	}
	sendErrorResponse(c, status, detail)
}

func sendInvalidParameter(c *gin.Context, parameter, value, message string) {
	sendErrorResponse(c, http.StatusBadRequest, model.ErrorDetail{
		Code:      model.CodeInvalidParameter,
		Message:   message,
		Parameter: parameter,
		Value:     value,
	})
}

func statusOf(code string) int {
	switch code {
	case model.CodeUnauthenticated:
		return http.StatusUnauthorized
	case model.CodeInsufficientRole:
		return http.StatusForbidden
	case model.CodeInvalidParameter:
		return http.StatusBadRequest
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// intParam parses a positive integer path parameter.
func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		sendInvalidParameter(c, name, raw, "parameter '"+name+"' must be a positive integer")
		return 0, false
	}
	return v, true
}

func principal(c *gin.Context) middleware.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

func (api *Api) session(c *gin.Context) *client.Session {
	return api.client.Session(principal(c).Token)
}

// ========== capabilities & chat ==========

// CapabilitiesResponse tells the UI which actions to offer.
type CapabilitiesResponse struct {
	Subject      string                   `json:"subject"`
	Role         string                   `json:"role"`
	Capabilities map[rbac.Capability]bool `json:"capabilities"`
}

// GetCapabilities returns the caller's action availability (GET /v1/me/capabilities).
func (api *Api) GetCapabilities(c *gin.Context) {
	p := principal(c)
	c.JSON(http.StatusOK, CapabilitiesResponse{
		Subject:      p.Subject,
		Role:         p.Role.String(),
		Capabilities: rbac.Availability(p.Role),
	})
}

// GetProfile returns the caller's account (GET /v1/me).
func (api *Api) GetProfile(c *gin.Context) {
	user, err := api.session(c).Me(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile changes the caller's own profile (PATCH /v1/me).
func (api *Api) UpdateProfile(c *gin.Context) {
	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "body", "", "invalid profile: "+err.Error())
		return
	}
	user, err := api.session(c).UpdateMe(c.Request.Context(), req)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChatRequest is a free-form assistant question.
type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	CompanyID int    `json:"companyId" binding:"required"`
}

// Chat forwards a question to the assistant (POST /v1/chat).
func (api *Api) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "body", "", "question and companyId are required")
		return
	}
	answer, err := api.session(c).Chat(c.Request.Context(), req.Question, req.CompanyID)
	if err != nil {
		if errors.Is(err, client.ErrForbidden) {
			sendErrorResponse(c, http.StatusForbidden, model.ErrorDetail{
				Code:    model.CodeInsufficientRole,
				Message: "You are not allowed to use the AI assistant. Operator role or higher is required.",
			})
			return
		}
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Response: answer})
}
