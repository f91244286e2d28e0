package method

import (
	"testing"
	"time"

	"kol_crm/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 创建内存数据库并迁移表结构
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
		&models.Profile{},
		&models.ShopRelationship{},
		&models.Order{},
		&models.OrderItem{},
		&models.CommissionCalculation{},
	)
	if err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}
	return testDB
}

// createKolWithShops 创建一个已审核KOL和两个活跃下级店铺
func createKolWithShops(t *testing.T, testDB *gorm.DB) (kol models.Profile, shops []models.Profile) {
	t.Helper()
	kol = models.Profile{UserID: 1, Email: "kol@test.com", Name: "金老师", Role: models.RoleKOL, Status: models.ProfileStatusApproved}
	if err := testDB.Create(&kol).Error; err != nil {
		t.Fatalf("创建KOL失败: %v", err)
	}
	for i := 0; i < 2; i++ {
		shop := models.Profile{
			UserID: 10 + i, Email: "shop@test.com", Name: "店主",
			Role: models.RoleShopOwner, Status: models.ProfileStatusApproved,
			ShopName: "测试店铺",
		}
		if err := testDB.Create(&shop).Error; err != nil {
			t.Fatalf("创建店铺失败: %v", err)
		}
		rel := models.ShopRelationship{
			ShopOwnerID: shop.ID, ParentID: kol.ID,
			StartedAt: time.Now().AddDate(0, -6, 0), IsActive: true,
			RelationshipType: models.RelationshipDirect,
		}
		if err := testDB.Create(&rel).Error; err != nil {
			t.Fatalf("创建归属关系失败: %v", err)
		}
		shops = append(shops, shop)
	}
	return kol, shops
}

// TestCalculateMonthlyCommissions 月度结算聚合下级订单和本店自营
func TestCalculateMonthlyCommissions(t *testing.T) {
	testDB := setupTestDB(t)
	kol, shops := createKolWithShops(t, testDB)

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)

	// 第一家店两笔有效订单，第二家店一笔已取消订单（不计入）
	orders := []models.Order{
		{ShopID: shops[0].ID, OrderNumber: "ORD-20250305-0001", OrderDate: monthStart.AddDate(0, 0, 4),
			TotalAmount: 100000, CommissionRate: 0.3, CommissionAmount: 30000,
			OrderStatus: models.OrderStatusCompleted},
		{ShopID: shops[0].ID, OrderNumber: "ORD-20250310-0001", OrderDate: monthStart.AddDate(0, 0, 9),
			TotalAmount: 50000, CommissionRate: 0.3, CommissionAmount: 15000,
			OrderStatus: models.OrderStatusPending},
		{ShopID: shops[1].ID, OrderNumber: "ORD-20250312-0001", OrderDate: monthStart.AddDate(0, 0, 11),
			TotalAmount: 80000, CommissionRate: 0.3, CommissionAmount: 24000,
			OrderStatus: models.OrderStatusCancelled},
		// 本店自营单，按KOL默认比例30%计佣
		{ShopID: kol.ID, OrderNumber: "ORD-20250315-0001", OrderDate: monthStart.AddDate(0, 0, 14),
			TotalAmount: 200000, CommissionRate: 0.3, CommissionAmount: 0,
			OrderStatus: models.OrderStatusCompleted, IsSelfShopOrder: true},
		// 上个月的订单不计入
		{ShopID: shops[0].ID, OrderNumber: "ORD-20250220-0001", OrderDate: monthStart.AddDate(0, 0, -9),
			TotalAmount: 999999, CommissionRate: 0.3, CommissionAmount: 300000,
			OrderStatus: models.OrderStatusCompleted},
	}
	for i := range orders {
		if err := testDB.Create(&orders[i]).Error; err != nil {
			t.Fatalf("创建订单失败: %v", err)
		}
	}

	result := CalculateMonthlyCommissions(testDB, monthStart)
	if len(result.Errors) != 0 {
		t.Fatalf("结算不应有错误: %v", result.Errors)
	}
	if result.Processed != 1 {
		t.Fatalf("应处理1条结算单，实际 %d", result.Processed)
	}

	var calc models.CommissionCalculation
	if err := testDB.Where("kol_id = ?", kol.ID).First(&calc).Error; err != nil {
		t.Fatalf("查询结算单失败: %v", err)
	}
	if calc.SubordinateSales != 150000 {
		t.Errorf("下级销售额应为150000，实际 %v", calc.SubordinateSales)
	}
	if calc.SubordinateCommission != 45000 {
		t.Errorf("下级佣金应为45000，实际 %v", calc.SubordinateCommission)
	}
	if calc.SelfShopSales != 200000 {
		t.Errorf("本店销售额应为200000，实际 %v", calc.SelfShopSales)
	}
	if calc.SelfShopCommission != 60000 {
		t.Errorf("本店佣金应为200000×30%%=60000，实际 %v", calc.SelfShopCommission)
	}
	if calc.TotalCommission != 105000 {
		t.Errorf("佣金总额应为105000，实际 %v", calc.TotalCommission)
	}
	if calc.SubordinateShopCount != 2 {
		t.Errorf("下级店铺数应为2，实际 %d", calc.SubordinateShopCount)
	}
	if calc.ActiveShopCount != 1 {
		t.Errorf("当月有订单的下级店铺数应为1，实际 %d", calc.ActiveShopCount)
	}
	if calc.Status != models.CalculationStatusCalculated {
		t.Errorf("新结算单状态应为calculated，实际 %s", calc.Status)
	}
}

// TestRecalculationPreservesAdjustment 覆盖重算保留手工调整金额
func TestRecalculationPreservesAdjustment(t *testing.T) {
	testDB := setupTestDB(t)
	kol, shops := createKolWithShops(t, testDB)

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	order := models.Order{
		ShopID: shops[0].ID, OrderNumber: "ORD-20250305-0001", OrderDate: monthStart.AddDate(0, 0, 4),
		TotalAmount: 100000, CommissionRate: 0.3, CommissionAmount: 30000,
		OrderStatus: models.OrderStatusCompleted,
	}
	if err := testDB.Create(&order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	CalculateMonthlyCommissions(testDB, monthStart)

	// 手工调整 +5000
	var calc models.CommissionCalculation
	testDB.Where("kol_id = ?", kol.ID).First(&calc)
	testDB.Model(&calc).Updates(map[string]interface{}{
		"manual_adjustment": 5000.0,
		"total_commission":  calc.TotalCommission + 5000,
		"status":            models.CalculationStatusAdjusted,
	})

	// 覆盖重算
	result := CalculateMonthlyCommissions(testDB, monthStart)
	if len(result.Errors) != 0 {
		t.Fatalf("重算不应有错误: %v", result.Errors)
	}

	testDB.Where("kol_id = ?", kol.ID).First(&calc)
	if calc.TotalCommission != 35000 {
		t.Errorf("重算后总额应为30000+5000=35000，实际 %v", calc.TotalCommission)
	}
	if calc.ManualAdjustment != 5000 {
		t.Errorf("手工调整金额应保留，实际 %v", calc.ManualAdjustment)
	}
}

// TestPaidCalculationNotOverwritten 已支付结算单不允许重算
func TestPaidCalculationNotOverwritten(t *testing.T) {
	testDB := setupTestDB(t)
	kol, shops := createKolWithShops(t, testDB)

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	order := models.Order{
		ShopID: shops[0].ID, OrderNumber: "ORD-20250305-0001", OrderDate: monthStart.AddDate(0, 0, 4),
		TotalAmount: 100000, CommissionRate: 0.3, CommissionAmount: 30000,
		OrderStatus: models.OrderStatusCompleted,
	}
	if err := testDB.Create(&order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	CalculateMonthlyCommissions(testDB, monthStart)

	var calc models.CommissionCalculation
	testDB.Where("kol_id = ?", kol.ID).First(&calc)
	now := time.Now()
	testDB.Model(&calc).Updates(map[string]interface{}{
		"status":  models.CalculationStatusPaid,
		"paid_at": &now,
	})

	result := CalculateMonthlyCommissions(testDB, monthStart)
	if len(result.Errors) != 1 {
		t.Fatalf("已支付结算单重算应报错，errors=%v", result.Errors)
	}
	if result.Processed != 0 {
		t.Errorf("不应有处理成功的记录，实际 %d", result.Processed)
	}

	// 金额未被改动
	testDB.Where("kol_id = ?", kol.ID).First(&calc)
	if calc.TotalCommission != 30000 {
		t.Errorf("已支付结算单金额不应变化，实际 %v", calc.TotalCommission)
	}
	if calc.Status != models.CalculationStatusPaid {
		t.Errorf("状态应保持paid，实际 %s", calc.Status)
	}
}

// TestSkipKolWithoutCommission 当月无佣金且无历史结算单时跳过
func TestSkipKolWithoutCommission(t *testing.T) {
	testDB := setupTestDB(t)
	createKolWithShops(t, testDB)

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	result := CalculateMonthlyCommissions(testDB, monthStart)
	if result.Skipped != 1 {
		t.Errorf("无订单的KOL应被跳过，skipped=%d", result.Skipped)
	}
	if result.Processed != 0 {
		t.Errorf("不应生成结算单，processed=%d", result.Processed)
	}

	var count int64
	testDB.Model(&models.CommissionCalculation{}).Count(&count)
	if count != 0 {
		t.Errorf("结算单表应为空，实际 %d 条", count)
	}
}
