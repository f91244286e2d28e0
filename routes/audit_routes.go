package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitAuditRoutes 初始化审计日志相关路由，仅管理员可查
func InitAuditRoutes(router *gin.Engine) {
	auditLogController := &controllers.AuditLogController{}

	auditGroup := router.Group("/api/audit-logs/")
	auditGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		auditGroup.POST("list", auditLogController.AuditLogList)
	}
}
