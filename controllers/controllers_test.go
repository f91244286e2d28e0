package controllers

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"kol_crm/db"
	"kol_crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupControllerTest 创建内存数据库并替换全局连接，测试结束后还原
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	// 内存库只允许单连接，避免连接间数据不可见
	sqlDB.SetMaxOpenConns(1)

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.ShopRelationship{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.CommissionCalculation{},
		&models.ClinicalCase{},
		&models.ClinicalPhoto{},
		&models.ConsentFile{},
		&models.FileMetadata{},
		&models.Notification{},
		&models.AuditLog{},
		&models.SalesJournal{},
	)
	if err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}

	oldDB := db.DB
	db.DB = testDB
	t.Cleanup(func() {
		db.DB = oldDB
	})
	return testDB
}

// newTestContext 构造带登录档案的测试请求上下文
func newTestContext(t *testing.T, profile *models.Profile, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("{}")
	}
	req := httptest.NewRequest(method, "/", reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	if profile != nil {
		c.Set("userID", profile.UserID)
		c.Set("profile", profile)
	}
	return c, w
}

// setIDParam 设置路径参数
func setIDParam(c *gin.Context, id int) {
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(id)}}
}

// createTestProfile 创建测试档案
func createTestProfile(t *testing.T, testDB *gorm.DB, userID int, role string) *models.Profile {
	t.Helper()
	profile := models.Profile{
		UserID: userID,
		Email:  "test@test.com",
		Name:   "测试用户",
		Role:   role,
		Status: models.ProfileStatusApproved,
	}
	if err := testDB.Create(&profile).Error; err != nil {
		t.Fatalf("创建测试档案失败: %v", err)
	}
	return &profile
}

// assertStatus 断言HTTP状态码
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("HTTP状态码应为 %d，实际 %d，响应: %s", expected, w.Code, w.Body.String())
	}
}
