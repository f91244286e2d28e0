package main

import (
	"log"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/method"
	"kol_crm/middleware"
	"kol_crm/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	appConfig := config.LoadConfig()

	// 初始化数据库
	db.InitDB(appConfig)
	// 运行数据库迁移，同步表结构变更
	db.RunMigrations()

	// 初始化Redis，失败时仪表盘缓存降级为直接计算
	db.InitRedis(appConfig)

	// 在goroutine中启动月度佣金调度器
	log.Println("正在启动月度佣金调度器...")
	go method.StartCommissionScheduler()

	// 创建Gin引擎
	router := gin.Default()

	// 设置中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestLogMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware())
	router.Use(middleware.JWTAuthMiddleware())

	// 设置静态文件服务
	router.Static("/media", appConfig.MediaDir)

	// 初始化路由
	routes.InitRoutes(router)

	// 启动服务器
	log.Printf("Server starting on port %s\n", appConfig.Port)
	if err := router.Run(":" + appConfig.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
