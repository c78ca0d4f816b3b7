package handler

import (
	"net/http"

	"freightops/internal/middleware"
	"freightops/internal/model"
	"freightops/internal/service"
	"freightops/pkg/pagination"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService service.AuditService
	logger       *zap.Logger
}

func NewAuditHandler(auditService service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, logger: logger}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.AllowRoles(model.RoleAdmin, model.RoleManager)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated audit records with their users
// @Summary      Get audit logs
// @Description  Every workflow write is recorded with its actor
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "e.g. REGISTER_SHIPMENT"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        user_id    query     string  false  "Acting user ID"
// @Param        from       query     string  false  "First day, YYYY-MM-DD"
// @Param        to         query     string  false  "Last day, YYYY-MM-DD"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), service.AuditLogFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		UserID:   c.Query("user_id"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
