package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"

	"github.com/gin-gonic/gin"
)

// InitSalesJournalRoutes 初始化销售日志相关路由
func InitSalesJournalRoutes(router *gin.Engine) {
	journalController := &controllers.SalesJournalController{}

	journalGroup := router.Group("/api/journals/")
	journalGroup.Use(middleware.RequireRole(allRoles...))
	{
		journalGroup.POST("save", journalController.JournalUpsert)
		journalGroup.POST("list", journalController.JournalList)
		journalGroup.GET("stats", journalController.JournalStats)
		journalGroup.GET(":id", journalController.JournalDetail)
		journalGroup.POST(":id/delete", journalController.JournalDelete)
	}
}
