package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitRelationshipRoutes 初始化店铺归属关系相关路由
func InitRelationshipRoutes(router *gin.Engine) {
	relationshipController := &controllers.RelationshipController{}

	relationshipGroup := router.Group("/api/relationships/")
	relationshipGroup.Use(middleware.RequireRole(allRoles...))
	{
		relationshipGroup.GET("subordinates", relationshipController.SubordinateShops)
		relationshipGroup.GET("parent_chain/:id", relationshipController.ParentChain)
	}

	// 建立和解除归属关系仅管理员
	adminGroup := router.Group("/api/relationships/")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.POST("create", relationshipController.RelationshipCreate)
		adminGroup.POST(":id/end", relationshipController.RelationshipEnd)
		adminGroup.GET("tree", relationshipController.OrganizationTree)
	}
}
