package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitDashboardRoutes 初始化仪表盘相关路由
func InitDashboardRoutes(router *gin.Engine) {
	dashboardController := &controllers.DashboardController{}
	relationshipController := &controllers.RelationshipController{}

	dashboardGroup := router.Group("/api/dashboard/")
	dashboardGroup.Use(middleware.RequireRole(allRoles...))
	{
		dashboardGroup.GET("kol", dashboardController.KolDashboardStats)
		dashboardGroup.GET("activities", dashboardController.RecentActivities)
		dashboardGroup.GET("recent_orders", dashboardController.RecentOrderUpdates)
		dashboardGroup.GET("recent_commissions", dashboardController.RecentCommissionUpdates)
	}

	router.GET("/api/dashboard/admin",
		middleware.RequireRole(models.RoleAdmin), dashboardController.AdminDashboardStats)

	// 旧版客户端路径别名
	legacyGroup := router.Group("/api/kol-new/")
	legacyGroup.Use(middleware.RequireRole(allRoles...))
	{
		legacyGroup.GET("dashboard", dashboardController.KolDashboardStats)
		legacyGroup.GET("activities", dashboardController.RecentActivities)
		legacyGroup.GET("shops", relationshipController.SubordinateShops)
	}
}
