package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardController 仪表盘统计控制器

type DashboardController struct{}

// 仪表盘统计缓存时长
const dashboardCacheTTL = 60 * time.Second

// AdminDashboardStats 管理员仪表盘统计，结果缓存60秒
func (dc *DashboardController) AdminDashboardStats(c *gin.Context) {
	// 先查缓存
	if db.RDB != nil {
		cached, err := db.RDB.Get(context.Background(), "dashboard:admin").Result()
		if err == nil && cached != "" {
			var data map[string]interface{}
			if json.Unmarshal([]byte(cached), &data) == nil {
				c.JSON(http.StatusOK, gin.H{"status": "success", "data": data, "cached": true})
				return
			}
		}
	}

	data := computeAdminDashboardStats(db.DB, time.Now())

	// 写缓存失败只记日志
	if db.RDB != nil {
		if jsonData, err := json.Marshal(data); err == nil {
			if err := db.RDB.Set(context.Background(), "dashboard:admin", string(jsonData), dashboardCacheTTL).Err(); err != nil {
				log.Printf("写仪表盘缓存失败: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data, "cached": false})
}

// computeAdminDashboardStats 计算管理员仪表盘统计
func computeAdminDashboardStats(tx *gorm.DB, now time.Time) map[string]interface{} {
	monthStart, monthEnd := utils.MonthRange(now.Year(), now.Month())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var kolsCount int64
	tx.Model(&models.Profile{}).
		Where("role IN ? AND status = ?", []string{models.RoleKOL, models.RoleOL}, models.ProfileStatusApproved).
		Count(&kolsCount)

	var activeShops int64
	tx.Model(&models.Profile{}).
		Where("role = ? AND status = ?", models.RoleShopOwner, models.ProfileStatusApproved).
		Count(&activeShops)

	excluded := []string{models.OrderStatusCancelled, models.OrderStatusRefunded}

	var monthlyOrders int64
	tx.Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ? AND order_status NOT IN ?", monthStart, monthEnd, excluded).
		Count(&monthlyOrders)

	monthlyRevenue := sumOrderAmount(tx, nil, monthStart, monthEnd)
	lastMonthRevenue := sumOrderAmount(tx, nil, lastMonthStart, monthStart)

	// 最近7天销售曲线
	salesChart := make([]map[string]interface{}, 0, 7)
	for i := 6; i >= 0; i-- {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -i)
		amount := sumOrderAmount(tx, nil, day, day.AddDate(0, 0, 1))
		salesChart = append(salesChart, map[string]interface{}{
			"date":   day.Format("2006-01-02"),
			"amount": amount,
		})
	}

	return map[string]interface{}{
		"kols_count":        kolsCount,
		"active_shops":      activeShops,
		"monthly_orders":    monthlyOrders,
		"monthly_revenue":   monthlyRevenue,
		"order_growth_rate": utils.GrowthRate(monthlyRevenue, lastMonthRevenue),
		"sales_chart":       salesChart,
	}
}

// sumOrderAmount 汇总时间段内的有效订单金额，shopIDs为nil时不限店铺
func sumOrderAmount(tx *gorm.DB, shopIDs []int, start, end time.Time) float64 {
	query := tx.Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ? AND order_status NOT IN ?",
			start, end, []string{models.OrderStatusCancelled, models.OrderStatusRefunded})
	if shopIDs != nil {
		query = query.Where("shop_id IN ?", shopIDs)
	}
	var total float64
	query.Select("COALESCE(SUM(total_amount), 0)").Scan(&total)
	return total
}

// KolDashboardStats KOL仪表盘统计
func (dc *DashboardController) KolDashboardStats(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	data := ComputeKolDashboardStats(db.DB, operator.ID, time.Now())
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// ComputeKolDashboardStats 计算KOL仪表盘统计：本店+下级店铺的销售、环比和订货店铺数
func ComputeKolDashboardStats(tx *gorm.DB, kolID int, now time.Time) map[string]interface{} {
	monthStart, monthEnd := utils.MonthRange(now.Year(), now.Month())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	shopIDs := relatedShopIDs(tx, kolID)
	subordinateCount := len(shopIDs) - 1

	currentSales := sumOrderAmount(tx, shopIDs, monthStart, monthEnd)
	lastSales := sumOrderAmount(tx, shopIDs, lastMonthStart, monthStart)

	// 当月有订货的下级店铺（不含本店）
	var orderingIDs []int
	tx.Model(&models.Order{}).
		Where("shop_id IN ? AND shop_id != ? AND order_date >= ? AND order_date < ? AND order_status NOT IN ?",
			shopIDs, kolID, monthStart, monthEnd,
			[]string{models.OrderStatusCancelled, models.OrderStatusRefunded}).
		Distinct("shop_id").Pluck("shop_id", &orderingIDs)

	// 当月结算单
	commissionAmount := 0.0
	commissionStatus := ""
	var calc models.CommissionCalculation
	if err := tx.Where("kol_id = ? AND calculation_month = ?", kolID, monthStart).First(&calc).Error; err == nil {
		commissionAmount = calc.TotalCommission
		commissionStatus = calc.Status
	}

	return map[string]interface{}{
		"current_month_sales": currentSales,
		"last_month_sales":    lastSales,
		"sales_growth_rate":   utils.GrowthRate(currentSales, lastSales),
		"commission": map[string]interface{}{
			"amount": commissionAmount,
			"status": commissionStatus,
		},
		"shops": map[string]interface{}{
			"total":        subordinateCount + 1,
			"ordering":     len(orderingIDs),
			"not_ordering": subordinateCount - len(orderingIDs),
		},
	}
}

// activityItem 活动流条目
type activityItem struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentActivities 最近活动流，合并订单、结算和注册事件
func (dc *DashboardController) RecentActivities(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	limit := 20
	items := []activityItem{}

	// 最近订单
	orderQuery := db.DB.Model(&models.Order{})
	if !IsAdmin(operator) {
		orderQuery = orderQuery.Where("shop_id IN ?", relatedShopIDs(db.DB, operator.ID))
	}
	var orders []models.Order
	orderQuery.Order("created_at DESC").Limit(limit).Find(&orders)
	for _, order := range orders {
		items = append(items, activityItem{
			Type:      "order",
			Title:     order.OrderNumber,
			Detail:    order.OrderStatus,
			CreatedAt: order.CreatedAt,
		})
	}

	// 最近结算
	calcQuery := db.DB.Model(&models.CommissionCalculation{})
	if !IsAdmin(operator) {
		calcQuery = calcQuery.Where("kol_id = ?", operator.ID)
	}
	var calcs []models.CommissionCalculation
	calcQuery.Order("updated_at DESC").Limit(limit).Find(&calcs)
	for _, calc := range calcs {
		items = append(items, activityItem{
			Type:      "commission",
			Title:     calc.CalculationMonth.Format("2006-01"),
			Detail:    calc.Status,
			CreatedAt: calc.UpdatedAt,
		})
	}

	// 最近注册（仅管理员可见）
	if IsAdmin(operator) {
		var profiles []models.Profile
		db.DB.Order("created_at DESC").Limit(limit).Find(&profiles)
		for _, profile := range profiles {
			items = append(items, activityItem{
				Type:      "signup",
				Title:     profile.Name,
				Detail:    profile.Status,
				CreatedAt: profile.CreatedAt,
			})
		}
	}

	// 按时间倒序合并
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": items})
}

// RecentOrderUpdates 最近订单变更
func (dc *DashboardController) RecentOrderUpdates(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	query := db.DB.Model(&models.Order{})
	if !IsAdmin(operator) {
		query = query.Where("shop_id IN ?", relatedShopIDs(db.DB, operator.ID))
	}

	var orders []models.Order
	if err := query.Order("updated_at DESC").Limit(20).Find(&orders).Error; err != nil {
		log.Printf("查询最近订单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": orders})
}

// RecentCommissionUpdates 最近结算变更
func (dc *DashboardController) RecentCommissionUpdates(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	query := db.DB.Model(&models.CommissionCalculation{})
	if !IsAdmin(operator) {
		query = query.Where("kol_id = ?", operator.ID)
	}

	var calcs []models.CommissionCalculation
	if err := query.Order("updated_at DESC").Limit(20).Find(&calcs).Error; err != nil {
		log.Printf("查询最近结算失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": calcs})
}
