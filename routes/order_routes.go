package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
)

// InitOrderRoutes 初始化订单相关路由
func InitOrderRoutes(router *gin.Engine) {
	orderController := &controllers.OrderController{}
	productController := &controllers.ProductController{}

	orderGroup := router.Group("/api/orders/")
	orderGroup.Use(middleware.RequireRole(allRoles...))
	{
		orderGroup.POST("create", orderController.OrderCreate)
		orderGroup.POST("list", orderController.OrderList)
		orderGroup.GET(":id", orderController.OrderDetail)
		orderGroup.GET("stats", orderController.OrderStats)
	}

	// 订单修改、删除和批量操作仅管理员
	adminGroup := router.Group("/api/orders/")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.POST(":id/update", orderController.OrderUpdate)
		adminGroup.POST("items/:id/update", orderController.OrderItemUpdate)
		adminGroup.POST(":id/delete", orderController.OrderDelete)
		adminGroup.POST("bulk_action", orderController.BulkOrderAction)
	}

	// 商品目录
	productGroup := router.Group("/api/products/")
	productGroup.Use(middleware.RequireRole(allRoles...))
	{
		productGroup.GET("list", productController.ProductList)
	}

	productAdminGroup := router.Group("/api/products/")
	productAdminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		productAdminGroup.POST("create", productController.ProductCreate)
		productAdminGroup.POST(":id/update", productController.ProductUpdate)
	}
}
