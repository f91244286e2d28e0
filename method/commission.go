package method

import (
	"fmt"
	"log"
	"time"

	"kol_crm/models"
	"kol_crm/utils"

	"gorm.io/gorm"
)

// MonthlyCommissionResult 月度结算执行结果
type MonthlyCommissionResult struct {
	Processed int      // 生成或更新的结算单数
	Skipped   int      // 当月无佣金而跳过的KOL数
	Errors    []string // 单个KOL失败的原因，失败不中断整体
}

// CalculateMonthlyCommissions 为所有已审核的KOL/OL生成指定月份的结算单
// 同一(kol, 月份)已有结算单时覆盖重算，保留手工调整金额
func CalculateMonthlyCommissions(tx *gorm.DB, monthStart time.Time) MonthlyCommissionResult {
	result := MonthlyCommissionResult{}
	monthEnd := monthStart.AddDate(0, 1, 0)

	var kols []models.Profile
	if err := tx.Where("role IN ? AND status = ?",
		[]string{models.RoleKOL, models.RoleOL}, models.ProfileStatusApproved).
		Find(&kols).Error; err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("查询KOL列表失败: %v", err))
		return result
	}

	for _, kol := range kols {
		if err := calculateForKol(tx, &kol, monthStart, monthEnd, &result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("KOL %d 结算失败: %v", kol.ID, err))
			log.Printf("KOL %d 月度结算失败: %v", kol.ID, err)
		}
	}

	return result
}

// calculateForKol 结算单个KOL的月度佣金
func calculateForKol(tx *gorm.DB, kol *models.Profile, monthStart, monthEnd time.Time, result *MonthlyCommissionResult) error {
	// 活跃下级店铺
	var rels []models.ShopRelationship
	if err := tx.Where("parent_id = ? AND is_active = ?", kol.ID, true).Find(&rels).Error; err != nil {
		return err
	}
	subIDs := make([]int, 0, len(rels))
	for _, rel := range rels {
		subIDs = append(subIDs, rel.ShopOwnerID)
	}

	// 下级店铺当月有效订单（本店自营单不计入下级部分）
	subordinateSales := 0.0
	subordinateCommission := 0.0
	orderingShops := map[int]bool{}
	if len(subIDs) > 0 {
		var subOrders []models.Order
		if err := tx.Where(
			"shop_id IN ? AND is_self_shop_order = ? AND order_date >= ? AND order_date < ? AND order_status NOT IN ?",
			subIDs, false, monthStart, monthEnd,
			[]string{models.OrderStatusCancelled, models.OrderStatusRefunded},
		).Find(&subOrders).Error; err != nil {
			return err
		}
		for _, order := range subOrders {
			subordinateSales += order.TotalAmount
			subordinateCommission += order.CommissionAmount
			orderingShops[order.ShopID] = true
		}
	}

	// 本店自营销售，按KOL的默认比例计佣
	var selfOrders []models.Order
	if err := tx.Where(
		"shop_id = ? AND is_self_shop_order = ? AND order_date >= ? AND order_date < ? AND order_status NOT IN ?",
		kol.ID, true, monthStart, monthEnd,
		[]string{models.OrderStatusCancelled, models.OrderStatusRefunded},
	).Find(&selfOrders).Error; err != nil {
		return err
	}
	selfShopSales := 0.0
	for _, order := range selfOrders {
		selfShopSales += order.TotalAmount
	}
	selfShopCommission := utils.CommissionAmount(selfShopSales, kol.DefaultCommissionRate())

	totalCommission := subordinateCommission + selfShopCommission

	var existing models.CommissionCalculation
	err := tx.Where("kol_id = ? AND calculation_month = ?", kol.ID, monthStart).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		// 无佣金且无已有结算单时跳过
		if totalCommission <= 0 {
			result.Skipped++
			return nil
		}
		calc := models.CommissionCalculation{
			KolID:                 kol.ID,
			CalculationMonth:      monthStart,
			SubordinateShopCount:  len(subIDs),
			ActiveShopCount:       len(orderingShops),
			SubordinateSales:      subordinateSales,
			SubordinateCommission: subordinateCommission,
			SelfShopSales:         selfShopSales,
			SelfShopCommission:    selfShopCommission,
			TotalCommission:       totalCommission,
			Status:                models.CalculationStatusCalculated,
			CalculatedAt:          time.Now(),
		}
		if err := tx.Create(&calc).Error; err != nil {
			return err
		}
		result.Processed++
		return nil
	} else if err != nil {
		return err
	}

	// 已支付的结算单不允许覆盖重算
	if existing.Status == models.CalculationStatusPaid {
		return fmt.Errorf("结算单已支付，不能重算")
	}

	if err := tx.Model(&existing).Updates(map[string]interface{}{
		"subordinate_shop_count": len(subIDs),
		"active_shop_count":      len(orderingShops),
		"subordinate_sales":      subordinateSales,
		"subordinate_commission": subordinateCommission,
		"self_shop_sales":        selfShopSales,
		"self_shop_commission":   selfShopCommission,
		"total_commission":       totalCommission + existing.ManualAdjustment,
		"calculated_at":          time.Now(),
	}).Error; err != nil {
		return err
	}
	result.Processed++
	return nil
}
