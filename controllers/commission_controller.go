package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/method"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/service/sms"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CommissionController 月度佣金结算控制器

type CommissionController struct{}

// CommissionCalculate 生成指定月份的结算单（管理员）
func (cc *CommissionController) CommissionCalculate(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var calcData struct {
		Month string `json:"month" binding:"required"`
	}
	if err := c.ShouldBindJSON(&calcData); err != nil {
		RespondBindingError(c, err)
		return
	}

	monthStart, err := utils.ParseMonth(calcData.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": err.Error()})
		return
	}

	result := method.CalculateMonthlyCommissions(db.DB, monthStart)

	// 汇总写一条审计日志
	if err := notify.WriteAuditLog(db.DB, "commission_calculations", calcData.Month, models.AuditInsert,
		&operator.ID, operator.Role, nil,
		map[string]interface{}{"processed": result.Processed, "skipped": result.Skipped, "errors": len(result.Errors)},
		nil); err != nil {
		log.Printf("写结算审计日志失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "月度结算完成",
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"errors":    result.Errors,
	})
}

// CommissionList 结算单列表
func (cc *CommissionController) CommissionList(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var queryData struct {
		Month    string `json:"month"`
		KolID    int    `json:"kol_id"`
		Status   string `json:"status"`
		Page     int    `json:"page" binding:"required,min=1"`
		PageSize int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.CommissionCalculation{})

	// 非管理员只能看自己的结算单
	if !IsAdmin(operator) {
		query = query.Where("kol_id = ?", operator.ID)
	} else if queryData.KolID > 0 {
		query = query.Where("kol_id = ?", queryData.KolID)
	}
	if queryData.Month != "" {
		monthStart, err := utils.ParseMonth(queryData.Month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": err.Error()})
			return
		}
		query = query.Where("calculation_month = ?", monthStart)
	}
	if queryData.Status != "" {
		if !containsString(models.ValidCalculationStatuses, queryData.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "结算状态无效"})
			return
		}
		query = query.Where("status = ?", queryData.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计结算单总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var calcs []models.CommissionCalculation
	if err := query.Offset(offset).Limit(limit).Order("calculation_month DESC, kol_id ASC").Find(&calcs).Error; err != nil {
		log.Printf("查询结算单列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	// 附带KOL档案信息
	result := make([]gin.H, 0, len(calcs))
	for _, calc := range calcs {
		var kol models.Profile
		kolName := ""
		if err := db.DB.First(&kol, calc.KolID).Error; err == nil {
			kolName = kol.Name
		}
		result = append(result, gin.H{
			"calculation": calc,
			"kol_name":    kolName,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      result,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// CommissionSummary 结算汇总（管理员）
func (cc *CommissionController) CommissionSummary(c *gin.Context) {
	month := c.Query("month")
	query := db.DB.Model(&models.CommissionCalculation{})
	if month != "" {
		monthStart, err := utils.ParseMonth(month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": err.Error()})
			return
		}
		query = query.Where("calculation_month = ?", monthStart)
	}

	type statRow struct {
		Status string
		Count  int64
		Amount float64
	}
	var rows []statRow
	if err := query.Select("status, COUNT(*) as count, COALESCE(SUM(total_commission), 0) as amount").
		Group("status").Scan(&rows).Error; err != nil {
		log.Printf("结算汇总失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	var totalCount int64
	totalAmount := 0.0
	paidAmount := 0.0
	byStatus := map[string]gin.H{}
	for _, row := range rows {
		byStatus[row.Status] = gin.H{"count": row.Count, "amount": row.Amount}
		totalCount += row.Count
		totalAmount += row.Amount
		if row.Status == models.CalculationStatusPaid {
			paidAmount += row.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total_count":    totalCount,
			"total_amount":   totalAmount,
			"paid_amount":    paidAmount,
			"pending_amount": totalAmount - paidAmount,
			"by_status":      byStatus,
		},
	})
}

// CommissionDetail 结算单详情，附下级店铺当月业绩拆分
func (cc *CommissionController) CommissionDetail(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var calc models.CommissionCalculation
	if err := db.DB.First(&calc, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "结算单不存在"})
		return
	}

	if !IsAdmin(operator) && operator.ID != calc.KolID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权查看该结算单"})
		return
	}

	// 按下级店铺拆分当月业绩
	monthEnd := calc.CalculationMonth.AddDate(0, 1, 0)
	var rels []models.ShopRelationship
	db.DB.Where("parent_id = ? AND is_active = ?", calc.KolID, true).Find(&rels)

	breakdown := make([]gin.H, 0, len(rels))
	for _, rel := range rels {
		var shop models.Profile
		if err := db.DB.First(&shop, rel.ShopOwnerID).Error; err != nil {
			continue
		}
		type sumRow struct {
			Sales      float64
			Commission float64
		}
		var row sumRow
		db.DB.Model(&models.Order{}).
			Select("COALESCE(SUM(total_amount), 0) as sales, COALESCE(SUM(commission_amount), 0) as commission").
			Where("shop_id = ? AND is_self_shop_order = ? AND order_date >= ? AND order_date < ? AND order_status NOT IN ?",
				rel.ShopOwnerID, false, calc.CalculationMonth, monthEnd,
				[]string{models.OrderStatusCancelled, models.OrderStatusRefunded}).
			Scan(&row)
		breakdown = append(breakdown, gin.H{
			"shop_id":    shop.ID,
			"shop_name":  shop.ShopName,
			"sales":      row.Sales,
			"commission": row.Commission,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"calculation": calc,
			"breakdown":   breakdown,
		},
	})
}

// CommissionUpdate 调整/审批/支付结算单
// 手工调整累计到manual_adjustment，调整记录追加到calculation_details
func (cc *CommissionController) CommissionUpdate(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var updateData struct {
		AdjustmentAmount *float64 `json:"adjustment_amount"`
		AdjustmentReason string   `json:"adjustment_reason"`
		Status           *string  `json:"status"`
		PaymentDate      string   `json:"payment_date"`
		PaymentReference string   `json:"payment_reference"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var calc models.CommissionCalculation
	if err := db.DB.First(&calc, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "结算单不存在"})
		return
	}

	if calc.Status == models.CalculationStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeConflict, "message": "已支付的结算单不能修改"})
		return
	}

	updates := map[string]interface{}{}

	if updateData.AdjustmentAmount != nil {
		details, _ := utils.JSONStringToMap(calc.CalculationDetails)
		adjustments, _ := details["adjustments"].([]interface{})
		adjustments = append(adjustments, map[string]interface{}{
			"amount":      *updateData.AdjustmentAmount,
			"reason":      updateData.AdjustmentReason,
			"adjusted_by": operator.ID,
			"adjusted_at": utils.FormatDateTime(time.Now()),
		})
		details["adjustments"] = adjustments
		detailsJSON, _ := utils.MapToJSONString(details)

		newAdjustment := calc.ManualAdjustment + *updateData.AdjustmentAmount
		updates["manual_adjustment"] = newAdjustment
		updates["total_commission"] = calc.SubordinateCommission + calc.SelfShopCommission + newAdjustment
		updates["calculation_details"] = detailsJSON
		updates["status"] = models.CalculationStatusAdjusted
	}

	paying := false
	if updateData.Status != nil {
		if !containsString(models.ValidCalculationStatuses, *updateData.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "结算状态无效"})
			return
		}
		updates["status"] = *updateData.Status
		if *updateData.Status == models.CalculationStatusPaid {
			paying = true
			now := time.Now()
			updates["paid_at"] = &now
			if updateData.PaymentDate != "" {
				if paymentDate, err := time.Parse("2006-01-02", updateData.PaymentDate); err == nil {
					updates["payment_date"] = &paymentDate
				}
			} else {
				updates["payment_date"] = &now
			}
			updates["payment_reference"] = updateData.PaymentReference
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "没有需要更新的字段"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&calc).Updates(updates).Error; err != nil {
			return err
		}

		if paying {
			monthStr := calc.CalculationMonth.Format("2006-01")
			totalAfter := calc.TotalCommission
			if v, ok := updates["total_commission"].(float64); ok {
				totalAfter = v
			}
			if err := notify.CreateNotification(tx, calc.KolID, models.NotifyCommissionPaid,
				"佣金已支付", fmt.Sprintf("%s 月度佣金 %.0f 已支付", monthStr, totalAfter),
				"commission_calculation", fmt.Sprintf("%d", calc.ID), models.PriorityHigh); err != nil {
				return err
			}

			// 短信通知尽力而为，失败只记日志
			var kol models.Profile
			if err := tx.First(&kol, calc.KolID).Error; err == nil && kol.Phone != "" {
				cfg := config.LoadConfig()
				if _, err := sms.SendCommissionPaidSms(cfg, kol.Phone, monthStr, totalAfter); err != nil {
					log.Printf("佣金支付短信发送失败: %v", err)
				}
			}
		}

		return notify.WriteAuditLog(tx, "commission_calculations", fmt.Sprintf("%d", calc.ID),
			models.AuditUpdate, &operator.ID, operator.Role,
			map[string]interface{}{"status": calc.Status, "total_commission": calc.TotalCommission},
			updates, nil)
	})
	if err != nil {
		log.Printf("更新结算单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "结算单更新成功"})
}

// CommissionExport 导出指定月份的结算单Excel（管理员）
func (cc *CommissionController) CommissionExport(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "缺少month参数"})
		return
	}
	monthStart, err := utils.ParseMonth(month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": err.Error()})
		return
	}

	var calcs []models.CommissionCalculation
	if err := db.DB.Where("calculation_month = ?", monthStart).
		Order("total_commission DESC").Find(&calcs).Error; err != nil {
		log.Printf("查询结算单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	// 创建Excel文件
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "佣金结算"
	f.SetSheetName("Sheet1", sheetName)

	// 设置表头
	headers := []string{"KOL姓名", "店铺名称", "结算月份", "下级店铺数", "活跃店铺数",
		"下级销售额", "下级佣金", "本店销售额", "本店佣金", "手工调整", "佣金总额", "状态", "支付日期"}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
	}

	// 填充数据
	for i, calc := range calcs {
		row := i + 2
		var kol models.Profile
		kolName := ""
		shopName := ""
		if err := db.DB.First(&kol, calc.KolID).Error; err == nil {
			kolName = kol.Name
			shopName = kol.ShopName
		}
		paymentDate := ""
		if calc.PaymentDate != nil {
			paymentDate = calc.PaymentDate.Format("2006-01-02")
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), kolName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), shopName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), calc.CalculationMonth.Format("2006-01"))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), calc.SubordinateShopCount)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), calc.ActiveShopCount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), calc.SubordinateSales)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), calc.SubordinateCommission)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), calc.SelfShopSales)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), calc.SelfShopCommission)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), calc.ManualAdjustment)
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), calc.TotalCommission)
		f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), calc.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("M%d", row), paymentDate)
	}

	// 设置响应头并输出文件
	filename := fmt.Sprintf("commission_%s.xlsx", month)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		log.Printf("导出Excel失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "导出失败"})
		return
	}
}
