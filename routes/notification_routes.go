package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitNotificationRoutes 初始化站内通知相关路由
func InitNotificationRoutes(router *gin.Engine) {
	notificationController := &controllers.NotificationController{}

	notificationGroup := router.Group("/api/notifications/")
	notificationGroup.Use(middleware.RequireRole(allRoles...))
	{
		notificationGroup.POST("list", notificationController.NotificationList)
		notificationGroup.GET("unread_count", notificationController.UnreadCount)
		notificationGroup.POST(":id/read", notificationController.MarkRead)
		notificationGroup.POST("read_all", notificationController.MarkAllRead)
		notificationGroup.POST(":id/delete", notificationController.NotificationDelete)
	}

	// 手动下发通知仅管理员
	adminGroup := router.Group("/api/notifications/")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.POST("create", notificationController.NotificationCreate)
		adminGroup.POST("bulk_create", notificationController.BulkNotificationCreate)
	}
}
