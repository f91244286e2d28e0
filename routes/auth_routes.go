package routes

import (
	"kol_crm/controllers"
	"kol_crm/middleware"

	"github.com/gin-gonic/gin"
)

// InitAuthRoutes 初始化认证相关路由
func InitAuthRoutes(router *gin.Engine) {
	authController := &controllers.AuthController{}

	// JWT 令牌相关路由
	router.POST("api/token/obtain/", authController.TokenObtainPair)
	router.POST("api/token/refresh/", authController.TokenRefresh)

	// 注册（仅业务角色，管理员不可通过此接口注册）
	router.POST("/auth/register", authController.Register)

	// 当前登录用户信息
	router.GET("/auth/me", middleware.RequireRole(allRoles...), authController.Me)
}
