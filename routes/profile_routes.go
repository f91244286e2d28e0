package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitProfileRoutes 初始化用户档案相关路由
func InitProfileRoutes(router *gin.Engine) {
	profileController := &controllers.ProfileController{}

	profileGroup := router.Group("/api/profiles/")
	profileGroup.Use(middleware.RequireRole(allRoles...))
	{
		profileGroup.POST("list", profileController.ProfileList)
		profileGroup.GET(":id", profileController.ProfileDetail)
		profileGroup.POST(":id/update", profileController.ProfileUpdate)
	}

	// 审批和批量操作仅管理员
	adminGroup := router.Group("/api/profiles/")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("stats", profileController.ProfileStats)
		adminGroup.POST(":id/approve", profileController.ProfileApprove)
		adminGroup.POST(":id/reject", profileController.ProfileReject)
		adminGroup.POST("bulk_action", profileController.BulkUserAction)
	}
}
