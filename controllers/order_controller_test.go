package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"kol_crm/models"
	"kol_crm/utils"

	"gorm.io/gorm"
)

func createTestOrder(t *testing.T, testDB *gorm.DB, shopID int, orderDate time.Time, total float64, seq int) *models.Order {
	t.Helper()
	order := models.Order{
		ShopID:           shopID,
		OrderNumber:      utils.OrderNumber(orderDate, seq),
		OrderDate:        orderDate,
		TotalAmount:      total,
		CommissionRate:   0.3,
		CommissionAmount: utils.CommissionAmount(total, 0.3),
		CommissionStatus: models.CommissionStatusCalculated,
		OrderStatus:      models.OrderStatusCompleted,
	}
	if err := testDB.Create(&order).Error; err != nil {
		t.Fatalf("创建测试订单失败: %v", err)
	}
	return &order
}

// TestOrderCreateWithItems 创建带明细的订单，订单佣金取行级佣金合计
func TestOrderCreateWithItems(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	oc := &OrderController{}
	body := fmt.Sprintf(`{
		"shop_id": %d,
		"order_date": "2025-03-15",
		"total_amount": 130000,
		"commission_rate": 0.3,
		"items": [
			{"product_name": "Cure Booster", "quantity": 2, "unit_price": 50000},
			{"product_name": "Premium Mask", "quantity": 1, "unit_price": 30000, "item_commission_rate": 0.2}
		]
	}`, shop.ID)
	c, w := newTestContext(t, admin, "POST", body)
	oc.OrderCreate(c)
	assertStatus(t, w, http.StatusOK)

	var order models.Order
	if err := testDB.Where("shop_id = ?", shop.ID).First(&order).Error; err != nil {
		t.Fatalf("查询订单失败: %v", err)
	}

	if !strings.HasPrefix(order.OrderNumber, "ORD-20250315-") {
		t.Errorf("订单号格式错误: %s", order.OrderNumber)
	}
	// 行1: 100000×0.3=30000，行2: 30000×0.2=6000
	if order.CommissionAmount != 36000 {
		t.Errorf("订单佣金应为行级合计36000，实际 %v", order.CommissionAmount)
	}

	var items []models.OrderItem
	testDB.Where("order_id = ?", order.ID).Order("id").Find(&items)
	if len(items) != 2 {
		t.Fatalf("应有2条明细行，实际 %d", len(items))
	}
	if items[0].Subtotal != 100000 || items[0].ItemCommissionAmount != 30000 {
		t.Errorf("第1行小计/佣金错误: %v / %v", items[0].Subtotal, items[0].ItemCommissionAmount)
	}
	if items[1].ItemCommissionAmount != 6000 {
		t.Errorf("第2行应按行级比例0.2计佣: %v", items[1].ItemCommissionAmount)
	}
}

// TestOrderNumberSequenceSkipsGaps 当日序号从已有最大订单号续排
func TestOrderNumberSequenceSkipsGaps(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	// 序号1和3已占用，中间有空洞
	orderDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	createTestOrder(t, testDB, shop.ID, orderDate, 50000, 1)
	createTestOrder(t, testDB, shop.ID, orderDate, 50000, 3)

	oc := &OrderController{}
	body := fmt.Sprintf(`{"shop_id": %d, "order_date": "2025-03-15", "total_amount": 10000}`, shop.ID)
	c, w := newTestContext(t, admin, "POST", body)
	oc.OrderCreate(c)
	assertStatus(t, w, http.StatusOK)

	var order models.Order
	testDB.Where("total_amount = ?", 10000).First(&order)
	if order.OrderNumber != "ORD-20250315-0004" {
		t.Errorf("新订单号应接在最大序号之后，实际 %s", order.OrderNumber)
	}
}

// TestBulkCompleteRejectsCompletedOrder 已完成订单不能重复完成
func TestBulkCompleteRejectsCompletedOrder(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	orderDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	order := createTestOrder(t, testDB, shop.ID, orderDate, 100000, 1)

	oc := &OrderController{}
	body := fmt.Sprintf(`{"order_ids": [%d], "action": "complete"}`, order.ID)
	c, w := newTestContext(t, admin, "POST", body)
	oc.BulkOrderAction(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["processed"] != float64(0) || resp["failed"] != float64(1) {
		t.Errorf("重复完成应失败: %v", resp)
	}

	// 不重复发通知、不写重复审计
	var notificationCount, auditCount int64
	testDB.Model(&models.Notification{}).Where("user_id = ?", shop.ID).Count(&notificationCount)
	testDB.Model(&models.AuditLog{}).
		Where("table_name = ? AND record_id = ?", "orders", fmt.Sprintf("%d", order.ID)).Count(&auditCount)
	if notificationCount != 0 {
		t.Errorf("重复完成不应发通知，实际 %d 条", notificationCount)
	}
	if auditCount != 0 {
		t.Errorf("重复完成不应写审计日志，实际 %d 条", auditCount)
	}
}

// TestOrderCreateRejectsUnapprovedShop 未审核店铺不能创建订单
func TestOrderCreateRejectsUnapprovedShop(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)

	pending := models.Profile{
		UserID: 2, Email: "p@test.com", Name: "待审核店主",
		Role: models.RoleShopOwner, Status: models.ProfileStatusPending,
	}
	if err := testDB.Create(&pending).Error; err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}

	oc := &OrderController{}
	body := fmt.Sprintf(`{"shop_id": %d, "total_amount": 10000}`, pending.ID)
	c, w := newTestContext(t, admin, "POST", body)
	oc.OrderCreate(c)
	assertStatus(t, w, http.StatusConflict)
}

// TestOrderCreateForbiddenForOtherShop 非管理员不能给别人的店铺录单
func TestOrderCreateForbiddenForOtherShop(t *testing.T) {
	testDB := setupControllerTest(t)
	owner := createTestProfile(t, testDB, 1, models.RoleShopOwner)
	other := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	oc := &OrderController{}
	body := fmt.Sprintf(`{"shop_id": %d, "total_amount": 10000}`, other.ID)
	c, w := newTestContext(t, owner, "POST", body)
	oc.OrderCreate(c)
	assertStatus(t, w, http.StatusForbidden)
}

// TestOrderDeleteSoftCancels 删除订单转为取消状态并清零佣金
func TestOrderDeleteSoftCancels(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	orderDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	order := createTestOrder(t, testDB, shop.ID, orderDate, 100000, 1)
	item := models.OrderItem{
		OrderID: order.ID, ProductName: "Cure Booster",
		Quantity: 1, UnitPrice: 100000, Subtotal: 100000,
		ItemCommissionAmount: 30000,
	}
	if err := testDB.Create(&item).Error; err != nil {
		t.Fatalf("创建明细失败: %v", err)
	}

	oc := &OrderController{}
	c, w := newTestContext(t, admin, "POST", `{"reason":"重复录入"}`)
	setIDParam(c, order.ID)
	oc.OrderDelete(c)
	assertStatus(t, w, http.StatusOK)

	// 记录仍在，状态转为取消
	var updated models.Order
	if err := testDB.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("订单不应被物理删除: %v", err)
	}
	if updated.OrderStatus != models.OrderStatusCancelled {
		t.Errorf("订单状态应为cancelled，实际 %s", updated.OrderStatus)
	}
	if updated.CommissionAmount != 0 {
		t.Errorf("订单佣金应清零，实际 %v", updated.CommissionAmount)
	}

	metadata, _ := utils.JSONStringToMap(updated.Metadata)
	if metadata["delete_reason"] != "重复录入" {
		t.Errorf("metadata应记录删除原因: %v", metadata)
	}
	if metadata["deleted_at"] == nil {
		t.Errorf("metadata应记录删除时间: %v", metadata)
	}

	var updatedItem models.OrderItem
	testDB.First(&updatedItem, item.ID)
	if updatedItem.ItemCommissionAmount != 0 {
		t.Errorf("行级佣金应清零，实际 %v", updatedItem.ItemCommissionAmount)
	}
}

// TestOrderDeleteRejectsPaidOrder 佣金已支付的已完成订单不允许删除
func TestOrderDeleteRejectsPaidOrder(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	orderDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	order := createTestOrder(t, testDB, shop.ID, orderDate, 100000, 1)
	testDB.Model(order).Update("commission_status", models.CommissionStatusPaid)

	oc := &OrderController{}
	c, w := newTestContext(t, admin, "POST", "")
	setIDParam(c, order.ID)
	oc.OrderDelete(c)
	assertStatus(t, w, http.StatusConflict)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != utils.CodeCannotDeletePaidOrder {
		t.Errorf("应返回不可删除错误码: %v", resp["code"])
	}
}

// TestBulkPayCommissionAccumulates 批量支付佣金累计到同一张月度结算单
func TestBulkPayCommissionAccumulates(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shop := createTestProfile(t, testDB, 2, models.RoleShopOwner)

	orderDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	orders := []*models.Order{
		createTestOrder(t, testDB, shop.ID, orderDate, 100000, 1),
		createTestOrder(t, testDB, shop.ID, orderDate.AddDate(0, 0, 1), 50000, 2),
		createTestOrder(t, testDB, shop.ID, orderDate.AddDate(0, 0, 2), 30000, 3),
	}

	oc := &OrderController{}
	body := fmt.Sprintf(`{"order_ids": [%d, %d, %d], "action": "pay_commission"}`,
		orders[0].ID, orders[1].ID, orders[2].ID)
	c, w := newTestContext(t, admin, "POST", body)
	oc.BulkOrderAction(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["processed"] != float64(3) || resp["failed"] != float64(0) {
		t.Fatalf("3笔订单应全部成功: %v", resp)
	}

	// 同月订单累计到同一张结算单
	var calcCount int64
	testDB.Model(&models.CommissionCalculation{}).Count(&calcCount)
	if calcCount != 1 {
		t.Fatalf("同月订单应只产生一张结算单，实际 %d 张", calcCount)
	}

	var calc models.CommissionCalculation
	testDB.First(&calc)
	if calc.SelfShopSales != 180000 {
		t.Errorf("结算单销售额应累计180000，实际 %v", calc.SelfShopSales)
	}
	// 30000 + 15000 + 9000
	if calc.SelfShopCommission != 54000 {
		t.Errorf("结算单佣金应累计54000，实际 %v", calc.SelfShopCommission)
	}
	if calc.TotalCommission != 54000 {
		t.Errorf("总佣金应为54000，实际 %v", calc.TotalCommission)
	}

	// 重复支付被拒，结算单不再累计
	c, w = newTestContext(t, admin, "POST", body)
	oc.BulkOrderAction(c)
	assertStatus(t, w, http.StatusOK)

	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["failed"] != float64(3) {
		t.Errorf("重复支付应全部失败: %v", resp)
	}

	testDB.First(&calc)
	if calc.SelfShopCommission != 54000 {
		t.Errorf("重复支付不应再次累计，实际 %v", calc.SelfShopCommission)
	}
}
