package handler

import (
	"net/http"

	"github.com/faruq2021/KogiExportHub/internal/middleware"
	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/service"
	"github.com/faruq2021/KogiExportHub/pkg/pagination"
	"github.com/faruq2021/KogiExportHub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler sets up routing dependencies for audit log endpoints
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequireRole(model.RoleAdmin), h.ListAuditLogs)
}

// ListAuditLogs handles GET /audit-logs
// @Summary      List audit logs
// @Description  Retrieves a paginated trail of administrative actions, newest first
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit logs"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}
