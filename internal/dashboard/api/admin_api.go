package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/qiniu/zabbixboard/internal/middleware"
	"github.com/rs/zerolog/log"
)

func (api *Api) setupAdminRouters(v1 *gin.RouterGroup) {
	v1.GET("/companies", middleware.RequireRole(rbac.RoleViewer), api.ListCompanies)
	v1.POST("/companies", middleware.RequireRole(rbac.RoleAdmin), api.CreateCompany)
	v1.DELETE("/companies/:companyID", middleware.RequireRole(rbac.RoleAdmin), api.DeleteCompany)

	users := v1.Group("/users", middleware.RequireRole(rbac.RoleSuperAdmin))
	users.GET("", api.ListUsers)
	users.PUT("/:userID/role", api.UpdateUserRole)
	users.POST("/:userID/companies/:companyID", api.AssignCompany)
	users.DELETE("/:userID/companies/:companyID", api.UnassignCompany)
}

// ListCompanies returns the companies of the caller (GET /v1/companies).
// Admins may pass all=true to list every registered company.
func (api *Api) ListCompanies(c *gin.Context) {
	var (
		companies []model.Company
		err       error
	)
	if c.Query("all") == "true" {
		p := principal(c)
		if !rbac.Allows(p.Role, rbac.CapManageCompanies) {
			sendErrorResponse(c, http.StatusForbidden, model.ErrorDetail{
				Code:    model.CodeInsufficientRole,
				Message: "listing every company requires the admin role or higher",
			})
			return
		}
		companies, err = api.session(c).AllCompanies(c.Request.Context())
	} else {
		companies, err = api.session(c).Companies(c.Request.Context())
	}
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": companies})
}

// CreateCompanyRequest registers a company and its Zabbix API credentials.
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required"`
	ZabbixURL   string `json:"zabbixUrl" binding:"required"`
	ZabbixToken string `json:"zabbixToken" binding:"required"`
}

// CreateCompany (POST /v1/companies)
func (api *Api) CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "body", "", "name, zabbixUrl and zabbixToken are required")
		return
	}
	if !strings.HasPrefix(req.ZabbixURL, "http://") && !strings.HasPrefix(req.ZabbixURL, "https://") {
		sendInvalidParameter(c, "zabbixUrl", req.ZabbixURL, "zabbixUrl must be an http(s) URL")
		return
	}
	company, err := api.session(c).CreateCompany(c.Request.Context(), model.CompanyCreate{
		Name:        strings.TrimSpace(req.Name),
		ZabbixURL:   req.ZabbixURL,
		ZabbixToken: req.ZabbixToken,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	log.Info().Str("subject", principal(c).Subject).Int("company_id", company.ID).Msg("company created")
	c.JSON(http.StatusCreated, company)
}

// DeleteCompany (DELETE /v1/companies/:companyID)
func (api *Api) DeleteCompany(c *gin.Context) {
	id, ok := intParam(c, "companyID")
	if !ok {
		return
	}
	if err := api.session(c).DeleteCompany(c.Request.Context(), id); err != nil {
		sendError(c, err)
		return
	}
	log.Info().Str("subject", principal(c).Subject).Int("company_id", id).Msg("company deleted")
	c.Status(http.StatusNoContent)
}

// ListUsers (GET /v1/users)
func (api *Api) ListUsers(c *gin.Context) {
	users, err := api.session(c).Users(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users})
}

// UpdateRoleRequest sets a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateUserRole (PUT /v1/users/:userID/role)
func (api *Api) UpdateUserRole(c *gin.Context) {
	id, ok := intParam(c, "userID")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalidParameter(c, "role", "", "role is required")
		return
	}
	role := rbac.ParseRole(req.Role)
	if role == rbac.RoleNone {
		sendInvalidParameter(c, "role", req.Role, "role must be one of viewer, operator, admin, super_admin")
		return
	}
	user, err := api.session(c).UpdateUserRole(c.Request.Context(), id, role.String())
	if err != nil {
		sendError(c, err)
		return
	}
	log.Info().Str("subject", principal(c).Subject).Int("user_id", id).Str("role", role.String()).Msg("user role updated")
	c.JSON(http.StatusOK, user)
}

// AssignCompany (POST /v1/users/:userID/companies/:companyID)
func (api *Api) AssignCompany(c *gin.Context) {
	userID, ok := intParam(c, "userID")
	if !ok {
		return
	}
	companyID, ok := intParam(c, "companyID")
	if !ok {
		return
	}
	user, err := api.session(c).AssignCompany(c.Request.Context(), userID, companyID)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UnassignCompany (DELETE /v1/users/:userID/companies/:companyID)
func (api *Api) UnassignCompany(c *gin.Context) {
	userID, ok := intParam(c, "userID")
	if !ok {
		return
	}
	companyID, ok := intParam(c, "companyID")
	if !ok {
		return
	}
	user, err := api.session(c).UnassignCompany(c.Request.Context(), userID, companyID)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
