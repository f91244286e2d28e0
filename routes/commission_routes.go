package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitCommissionRoutes 初始化佣金结算相关路由
func InitCommissionRoutes(router *gin.Engine) {
	commissionController := &controllers.CommissionController{}

	commissionGroup := router.Group("/api/commissions/")
	commissionGroup.Use(middleware.RequireRole(allRoles...))
	{
		commissionGroup.POST("list", commissionController.CommissionList)
		commissionGroup.GET(":id", commissionController.CommissionDetail)
	}

	// 月度计算、调整、支付和导出仅管理员
	adminGroup := router.Group("/api/commissions/")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.POST("calculate", commissionController.CommissionCalculate)
		adminGroup.GET("summary", commissionController.CommissionSummary)
		adminGroup.POST(":id/update", commissionController.CommissionUpdate)
		adminGroup.GET("export", commissionController.CommissionExport)
	}
}
