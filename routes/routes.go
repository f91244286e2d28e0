package routes

import (
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// allRoles 所有登录角色均可访问
var allRoles = []string{models.RoleAdmin, models.RoleKOL, models.RoleOL, models.RoleShopOwner}

// InitRoutes 初始化路由配置
func InitRoutes(router *gin.Engine) {
	InitAuthRoutes(router)
	InitProfileRoutes(router)
	InitRelationshipRoutes(router)
	InitOrderRoutes(router)
	InitCommissionRoutes(router)
	InitClinicalRoutes(router)
	InitFileRoutes(router)
	InitNotificationRoutes(router)
	InitSalesJournalRoutes(router)
	InitDashboardRoutes(router)
	InitAuditRoutes(router)

	// 测试路由
	router.GET("api/test/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Server is running"})
	})

	// 健康检查路由
	router.GET("api/health/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 404 路由
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "页面不存在"})
	})

	// 405 路由
	router.NoMethod(func(c *gin.Context) {
		c.JSON(405, gin.H{"error": "请求方法不允许"})
	})
}
