package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"

	"github.com/gin-gonic/gin"
)

// InitFileRoutes 初始化文件存储相关路由
func InitFileRoutes(router *gin.Engine) {
	fileController := &controllers.FileController{}

	fileGroup := router.Group("/api/files/")
	fileGroup.Use(middleware.RequireRole(allRoles...))
	{
		fileGroup.POST("generate_upload_url", fileController.GenerateUploadURL)
		fileGroup.GET("url/:storage_id", fileController.FileURL)
		fileGroup.GET("mine", fileController.UserFiles)
	}

	// 上传走生成的URL，PUT原始字节
	router.PUT("/files/upload/:storage_id", middleware.RequireRole(allRoles...), fileController.Upload)
}
