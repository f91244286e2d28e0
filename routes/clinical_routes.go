package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"

	"github.com/gin-gonic/gin"
)

// InitClinicalRoutes 初始化临床案例相关路由
func InitClinicalRoutes(router *gin.Engine) {
	clinicalController := &controllers.ClinicalController{}
	photoController := &controllers.ClinicalPhotoController{}

	caseGroup := router.Group("/api/clinical/cases/")
	caseGroup.Use(middleware.RequireRole(allRoles...))
	{
		caseGroup.POST("list", clinicalController.CaseList)
		caseGroup.GET("stats", clinicalController.CaseStats)
		caseGroup.GET(":id", clinicalController.CaseDetail)
		caseGroup.POST("create", clinicalController.CaseCreate)
		caseGroup.POST(":id/update", clinicalController.CaseUpdate)
		caseGroup.POST(":id/status", clinicalController.CaseUpdateStatus)
		caseGroup.POST(":id/delete", clinicalController.CaseDelete)
		caseGroup.POST(":id/rounds", clinicalController.SaveRoundInfo)
		caseGroup.GET(":id/rounds", clinicalController.GetRoundInfo)
	}

	photoGroup := router.Group("/api/clinical/photos/")
	photoGroup.Use(middleware.RequireRole(allRoles...))
	{
		photoGroup.POST("register", photoController.PhotoRegister)
		photoGroup.GET("case/:id", photoController.PhotoList)
		photoGroup.POST(":id/delete", photoController.PhotoDelete)
		photoGroup.POST("consent/register", photoController.ConsentRegister)
		photoGroup.GET("consent/:id", photoController.ConsentGet)
	}

	// 旧版客户端路径别名
	router.GET("/api/kol-new/clinical-photos/consent/:id",
		middleware.RequireRole(allRoles...), photoController.ConsentGet)
}
