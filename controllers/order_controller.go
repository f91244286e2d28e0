package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OrderController 订单控制器

type OrderController struct{}

// orderItemInput 订单明细行输入
type orderItemInput struct {
	ProductID          *int     `json:"product_id"`
	ProductName        string   `json:"product_name" binding:"required"`
	ProductCode        string   `json:"product_code"`
	Quantity           int      `json:"quantity" binding:"required,min=1"`
	UnitPrice          float64  `json:"unit_price" binding:"required,min=0"`
	ItemCommissionRate *float64 `json:"item_commission_rate"`
}

// orderCreateInput 创建订单输入
type orderCreateInput struct {
	ShopID          int              `json:"shop_id" binding:"required"`
	OrderDate       string           `json:"order_date"`
	TotalAmount     float64          `json:"total_amount" binding:"required,min=0"`
	CommissionRate  *float64         `json:"commission_rate"`
	IsSelfShopOrder bool             `json:"is_self_shop_order"`
	Notes           string           `json:"notes"`
	Items           []orderItemInput `json:"items"`
}

// OrderCreate 创建订单
// 佣金比例按 请求指定 → 店铺默认 → 0.1 的顺序兜底
func (oc *OrderController) OrderCreate(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var createData orderCreateInput
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	// 非管理员只能给自己的店铺录单
	if !IsAdmin(operator) && operator.ID != createData.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能为自己的店铺创建订单"})
		return
	}

	var shop models.Profile
	if err := db.DB.First(&shop, createData.ShopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "店铺不存在"})
		return
	}
	if shop.Status != models.ProfileStatusApproved {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeConflict, "message": "店铺未通过审核，不能创建订单"})
		return
	}

	orderDate := time.Now()
	if createData.OrderDate != "" {
		parsed, err := time.Parse("2006-01-02", createData.OrderDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "日期格式必须为YYYY-MM-DD"})
			return
		}
		orderDate = parsed
	}

	// 确定订单级佣金比例
	shopDefault := 0.0
	if shop.CommissionRate != nil {
		shopDefault = *shop.CommissionRate
	}
	orderRate := utils.EffectiveRate(nil, floatOrZero(createData.CommissionRate), shopDefault)
	if orderRate <= 0 || orderRate > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "佣金比例必须在0~1之间"})
		return
	}

	// 并发下单可能撞号，唯一键冲突时重算序号重试
	var order models.Order
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order = models.Order{}
		err = oc.createOrderTx(&order, &createData, orderDate, orderRate, shopDefault, operator)
		if err == nil || !isDuplicateOrderNumber(err) {
			break
		}
	}
	if err != nil {
		if isDuplicateOrderNumber(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeConflict, "message": "订单号生成冲突，请重试"})
			return
		}
		log.Printf("创建订单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "创建订单失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "订单创建成功", "data": order})
}

// createOrderTx 在单个事务中生成订单号并落库订单和明细
func (oc *OrderController) createOrderTx(order *models.Order, createData *orderCreateInput,
	orderDate time.Time, orderRate, shopDefault float64, operator *models.Profile) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		seq, err := nextOrderSequence(tx, orderDate)
		if err != nil {
			return err
		}

		*order = models.Order{
			ShopID:           createData.ShopID,
			OrderNumber:      utils.OrderNumber(orderDate, seq),
			OrderDate:        orderDate,
			TotalAmount:      createData.TotalAmount,
			CommissionRate:   orderRate,
			CommissionAmount: utils.CommissionAmount(createData.TotalAmount, orderRate),
			CommissionStatus: models.CommissionStatusCalculated,
			OrderStatus:      models.OrderStatusPending,
			IsSelfShopOrder:  createData.IsSelfShopOrder,
			Notes:            createData.Notes,
			CreatedBy:        operator.ID,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// 有明细行时订单佣金取行级佣金合计
		if len(createData.Items) > 0 {
			itemCommissionTotal := 0.0
			for _, input := range createData.Items {
				subtotal := float64(input.Quantity) * input.UnitPrice
				itemRate := utils.EffectiveRate(input.ItemCommissionRate, orderRate, shopDefault)
				itemCommission := utils.CommissionAmount(subtotal, itemRate)
				item := models.OrderItem{
					OrderID:              order.ID,
					ProductID:            input.ProductID,
					ProductName:          input.ProductName,
					ProductCode:          input.ProductCode,
					Quantity:             input.Quantity,
					UnitPrice:            input.UnitPrice,
					Subtotal:             subtotal,
					ItemCommissionRate:   input.ItemCommissionRate,
					ItemCommissionAmount: itemCommission,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				itemCommissionTotal += itemCommission
			}
			if err := tx.Model(order).Update("commission_amount", itemCommissionTotal).Error; err != nil {
				return err
			}
			order.CommissionAmount = itemCommissionTotal
		}

		// 管理员代录时通知店主及其上级
		if operator.ID != createData.ShopID {
			notify.NotifyOrderParties(tx, createData.ShopID, models.NotifyOrderCreated,
				"新订单登记", fmt.Sprintf("订单 %s 已登记，金额 %.0f", order.OrderNumber, order.TotalAmount),
				fmt.Sprintf("%d", order.ID), models.PriorityNormal)
		}

		return notify.WriteAuditLog(tx, "orders", fmt.Sprintf("%d", order.ID), models.AuditInsert,
			&operator.ID, operator.Role, nil,
			map[string]interface{}{"order_number": order.OrderNumber, "total_amount": order.TotalAmount},
			nil)
	})
}

// nextOrderSequence 取当日已有订单号的最大序号加一
// 按订单号前缀查而不是数当天行数，避免删单或并发下重号
func nextOrderSequence(tx *gorm.DB, orderDate time.Time) (int, error) {
	dayPrefix := fmt.Sprintf("ORD-%s-", orderDate.Format("20060102"))

	var lastNumbers []string
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", dayPrefix+"%").
		Order("order_number DESC").Limit(1).
		Pluck("order_number", &lastNumbers).Error; err != nil {
		return 0, err
	}
	if len(lastNumbers) == 0 {
		return 1, nil
	}

	lastSeq, err := strconv.Atoi(lastNumbers[0][len(dayPrefix):])
	if err != nil {
		return 0, fmt.Errorf("订单号格式异常: %s", lastNumbers[0])
	}
	return lastSeq + 1, nil
}

// isDuplicateOrderNumber 判断是否订单号唯一键冲突
func isDuplicateOrderNumber(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "Duplicate entry") || strings.Contains(errMsg, "UNIQUE constraint failed")
}

// OrderList 订单列表，支持店铺/状态/日期范围过滤
func (oc *OrderController) OrderList(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var queryData struct {
		ShopID           int    `json:"shop_id"`
		OrderStatus      string `json:"order_status"`
		CommissionStatus string `json:"commission_status"`
		BeginDate        string `json:"begin_date"`
		EndDate          string `json:"end_date"`
		Page             int    `json:"page" binding:"required,min=1"`
		PageSize         int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.Order{})

	// 非管理员只能看自己店铺和下级店铺的订单
	if !IsAdmin(operator) {
		shopIDs := relatedShopIDs(db.DB, operator.ID)
		query = query.Where("shop_id IN ?", shopIDs)
	}
	if queryData.ShopID > 0 {
		query = query.Where("shop_id = ?", queryData.ShopID)
	}
	if queryData.OrderStatus != "" {
		if !containsString(models.ValidOrderStatuses, queryData.OrderStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "订单状态无效"})
			return
		}
		query = query.Where("order_status = ?", queryData.OrderStatus)
	}
	if queryData.CommissionStatus != "" {
		if !containsString(models.ValidCommissionStatuses, queryData.CommissionStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "佣金状态无效"})
			return
		}
		query = query.Where("commission_status = ?", queryData.CommissionStatus)
	}
	if queryData.BeginDate != "" {
		beginTime, err := time.Parse("2006-01-02", queryData.BeginDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": "日期格式必须为YYYY-MM-DD"})
			return
		}
		query = query.Where("order_date >= ?", beginTime)
	}
	if queryData.EndDate != "" {
		endTime, err := time.Parse("2006-01-02", queryData.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": "日期格式必须为YYYY-MM-DD"})
			return
		}
		// 包含结束日当天
		query = query.Where("order_date < ?", endTime.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计订单总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var orders []models.Order
	if err := query.Offset(offset).Limit(limit).Order("order_date DESC").Find(&orders).Error; err != nil {
		log.Printf("查询订单列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      orders,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// OrderDetail 订单详情，包含明细行
func (oc *OrderController) OrderDetail(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var order models.Order
	if err := db.DB.First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "订单不存在"})
		return
	}

	if !IsAdmin(operator) && !containsInt(relatedShopIDs(db.DB, operator.ID), order.ShopID) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权查看该订单"})
		return
	}

	var items []models.OrderItem
	if err := db.DB.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		log.Printf("查询订单明细失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"order": order,
			"items": items,
		},
	})
}

// OrderUpdate 更新订单，金额或比例变化时重算佣金
func (oc *OrderController) OrderUpdate(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var updateData struct {
		TotalAmount      *float64 `json:"total_amount"`
		CommissionRate   *float64 `json:"commission_rate"`
		OrderStatus      *string  `json:"order_status"`
		CommissionStatus *string  `json:"commission_status"`
		Notes            *string  `json:"notes"`
		Recalculate      bool     `json:"recalculate"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var order models.Order
	if err := db.DB.First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "订单不存在"})
		return
	}

	if !IsAdmin(operator) && operator.ID != order.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权修改该订单"})
		return
	}

	updates := map[string]interface{}{}
	changedFields := []string{}
	newTotal := order.TotalAmount
	newRate := order.CommissionRate
	recalc := updateData.Recalculate

	if updateData.TotalAmount != nil {
		if *updateData.TotalAmount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "订单金额不能为负"})
			return
		}
		newTotal = *updateData.TotalAmount
		updates["total_amount"] = newTotal
		changedFields = append(changedFields, "total_amount")
		recalc = true
	}
	if updateData.CommissionRate != nil {
		if *updateData.CommissionRate <= 0 || *updateData.CommissionRate > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "佣金比例必须在0~1之间"})
			return
		}
		newRate = *updateData.CommissionRate
		updates["commission_rate"] = newRate
		changedFields = append(changedFields, "commission_rate")
		recalc = true
	}
	if updateData.OrderStatus != nil {
		if !containsString(models.ValidOrderStatuses, *updateData.OrderStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "订单状态无效"})
			return
		}
		updates["order_status"] = *updateData.OrderStatus
		changedFields = append(changedFields, "order_status")
	}
	if updateData.CommissionStatus != nil {
		if !containsString(models.ValidCommissionStatuses, *updateData.CommissionStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "佣金状态无效"})
			return
		}
		updates["commission_status"] = *updateData.CommissionStatus
		changedFields = append(changedFields, "commission_status")
	}
	if updateData.Notes != nil {
		updates["notes"] = *updateData.Notes
		changedFields = append(changedFields, "notes")
	}
	if recalc {
		updates["commission_amount"] = utils.CommissionAmount(newTotal, newRate)
		changedFields = append(changedFields, "commission_amount")
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "没有需要更新的字段"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		// 订单完成时通知店主和上级
		if updateData.OrderStatus != nil && *updateData.OrderStatus == models.OrderStatusCompleted &&
			order.OrderStatus != models.OrderStatusCompleted {
			notify.NotifyOrderParties(tx, order.ShopID, models.NotifyStatusChanged,
				"订单已完成", fmt.Sprintf("订单 %s 已完成", order.OrderNumber),
				fmt.Sprintf("%d", order.ID), models.PriorityNormal)
		}

		return notify.WriteAuditLog(tx, "orders", fmt.Sprintf("%d", order.ID), models.AuditUpdate,
			&operator.ID, operator.Role, nil, updates, changedFields)
	})
	if err != nil {
		log.Printf("更新订单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新订单失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "订单更新成功"})
}

// OrderItemUpdate 更新订单明细行并重算订单佣金合计
func (oc *OrderController) OrderItemUpdate(c *gin.Context) {
	itemID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var updateData struct {
		Quantity           *int     `json:"quantity"`
		UnitPrice          *float64 `json:"unit_price"`
		ItemCommissionRate *float64 `json:"item_commission_rate"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var item models.OrderItem
	if err := db.DB.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "订单明细不存在"})
		return
	}

	var order models.Order
	if err := db.DB.First(&order, item.OrderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "订单不存在"})
		return
	}
	if !IsAdmin(operator) && operator.ID != order.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权修改该订单"})
		return
	}

	if updateData.Quantity != nil {
		if *updateData.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "数量必须大于0"})
			return
		}
		item.Quantity = *updateData.Quantity
	}
	if updateData.UnitPrice != nil {
		if *updateData.UnitPrice < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "单价不能为负"})
			return
		}
		item.UnitPrice = *updateData.UnitPrice
	}
	if updateData.ItemCommissionRate != nil {
		item.ItemCommissionRate = updateData.ItemCommissionRate
	}

	item.Subtotal = float64(item.Quantity) * item.UnitPrice
	itemRate := utils.EffectiveRate(item.ItemCommissionRate, order.CommissionRate, 0)
	item.ItemCommissionAmount = utils.CommissionAmount(item.Subtotal, itemRate)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		// 重算订单合计
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		totalAmount := 0.0
		commissionTotal := 0.0
		for _, it := range items {
			totalAmount += it.Subtotal
			commissionTotal += it.ItemCommissionAmount
		}
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"total_amount":      totalAmount,
			"commission_amount": commissionTotal,
		}).Error; err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "order_items", fmt.Sprintf("%d", item.ID), models.AuditUpdate,
			&operator.ID, operator.Role, nil,
			map[string]interface{}{"subtotal": item.Subtotal, "commission": item.ItemCommissionAmount},
			nil)
	})
	if err != nil {
		log.Printf("更新订单明细失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "明细更新成功", "data": item})
}

// OrderDelete 删除订单（软删除）
// 订单转为cancelled状态并清零行级佣金，删除信息记入metadata
func (oc *OrderController) OrderDelete(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var deleteData struct {
		Reason string `json:"reason"`
	}
	// 请求体可为空
	_ = c.ShouldBindJSON(&deleteData)

	var order models.Order
	if err := db.DB.First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "订单不存在"})
		return
	}

	// 已完成且佣金已支付的订单不允许删除
	if order.OrderStatus == models.OrderStatusCompleted && order.CommissionStatus == models.CommissionStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeCannotDeletePaidOrder, "message": "佣金已支付的订单不能删除"})
		return
	}

	metadata, _ := utils.JSONStringToMap(order.Metadata)
	metadata["deleted_at"] = utils.FormatDateTime(time.Now())
	metadata["deleted_by"] = operator.ID
	metadata["delete_reason"] = deleteData.Reason
	metadataJSON, _ := utils.MapToJSONString(metadata)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"order_status":      models.OrderStatusCancelled,
			"commission_status": models.CommissionStatusCancelled,
			"commission_amount": 0,
			"metadata":          metadataJSON,
		}).Error; err != nil {
			return err
		}

		// 行级佣金清零
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).
			Update("item_commission_amount", 0).Error; err != nil {
			return err
		}

		notify.NotifyOrderParties(tx, order.ShopID, models.NotifyStatusChanged,
			"订单已取消", fmt.Sprintf("订单 %s 已被取消", order.OrderNumber),
			fmt.Sprintf("%d", order.ID), models.PriorityHigh)

		return notify.WriteAuditLog(tx, "orders", fmt.Sprintf("%d", order.ID), models.AuditDelete,
			&operator.ID, operator.Role,
			map[string]interface{}{"order_status": order.OrderStatus},
			map[string]interface{}{"order_status": models.OrderStatusCancelled, "reason": deleteData.Reason},
			[]string{"order_status", "commission_status"})
	})
	if err != nil {
		log.Printf("删除订单失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除订单失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "订单已取消"})
}

// BulkOrderAction 批量处理订单，单条失败不影响其他条目
func (oc *OrderController) BulkOrderAction(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var actionData struct {
		OrderIDs []int  `json:"order_ids" binding:"required,min=1"`
		Action   string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&actionData); err != nil {
		RespondBindingError(c, err)
		return
	}

	validActions := []string{"complete", "cancel", "approve_commission", "pay_commission"}
	if !containsString(validActions, actionData.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "无效的批量操作类型"})
		return
	}

	processed := 0
	failed := 0
	results := []gin.H{}
	var errors []gin.H

	for _, orderID := range actionData.OrderIDs {
		err := oc.applyOrderAction(orderID, actionData.Action, operator)
		if err != nil {
			failed++
			errors = append(errors, gin.H{"order_id": orderID, "error": err.Error()})
			continue
		}
		processed++
		results = append(results, gin.H{"order_id": orderID, "action": actionData.Action})
	}

	// 错误明细最多返回10条
	if len(errors) > 10 {
		errors = errors[:10]
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"success":   failed == 0,
		"processed": processed,
		"failed":    failed,
		"results":   results,
		"errors":    errors,
	})
}

// applyOrderAction 对单个订单执行批量操作中的一项
func (oc *OrderController) applyOrderAction(orderID int, action string, operator *models.Profile) error {
	var order models.Order
	if err := db.DB.First(&order, orderID).Error; err != nil {
		return fmt.Errorf("订单不存在")
	}

	return db.DB.Transaction(func(tx *gorm.DB) error {
		var updates map[string]interface{}
		var title, message string

		switch action {
		case "complete":
			if order.OrderStatus == models.OrderStatusCancelled {
				return fmt.Errorf("已取消的订单不能完成")
			}
			if order.OrderStatus == models.OrderStatusCompleted {
				return fmt.Errorf("订单已是完成状态")
			}
			updates = map[string]interface{}{"order_status": models.OrderStatusCompleted}
			title = "订单已完成"
			message = fmt.Sprintf("订单 %s 已完成", order.OrderNumber)
		case "cancel":
			if order.CommissionStatus == models.CommissionStatusPaid {
				return fmt.Errorf("佣金已支付的订单不能取消")
			}
			updates = map[string]interface{}{
				"order_status":      models.OrderStatusCancelled,
				"commission_status": models.CommissionStatusCancelled,
			}
			title = "订单已取消"
			message = fmt.Sprintf("订单 %s 已取消", order.OrderNumber)
		case "approve_commission":
			if order.CommissionStatus == models.CommissionStatusPaid {
				return fmt.Errorf("佣金已支付")
			}
			updates = map[string]interface{}{"commission_status": models.CommissionStatusApproved}
			title = "佣金已批准"
			message = fmt.Sprintf("订单 %s 的佣金已批准", order.OrderNumber)
		case "pay_commission":
			if order.CommissionStatus == models.CommissionStatusPaid {
				return fmt.Errorf("佣金已支付")
			}
			updates = map[string]interface{}{"commission_status": models.CommissionStatusPaid}
			title = "佣金已支付"
			message = fmt.Sprintf("订单 %s 的佣金 %.0f 已支付", order.OrderNumber, order.CommissionAmount)

			// 佣金支付累计到店铺当月结算单
			if err := accumulatePaidCommission(tx, &order); err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if err := notify.CreateNotification(tx, order.ShopID, models.NotifyStatusChanged,
			title, message, "order", fmt.Sprintf("%d", order.ID), models.PriorityNormal); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "orders", fmt.Sprintf("%d", order.ID), models.AuditUpdate,
			&operator.ID, operator.Role,
			map[string]interface{}{"order_status": order.OrderStatus, "commission_status": order.CommissionStatus},
			map[string]interface{}{"bulk_action": action}, nil)
	})
}

// accumulatePaidCommission 将订单佣金累计到(店铺, 订单所在月)的结算单，不存在则创建
func accumulatePaidCommission(tx *gorm.DB, order *models.Order) error {
	monthStart := time.Date(order.OrderDate.Year(), order.OrderDate.Month(), 1, 0, 0, 0, 0, order.OrderDate.Location())

	var calc models.CommissionCalculation
	err := tx.Where("kol_id = ? AND calculation_month = ?", order.ShopID, monthStart).First(&calc).Error
	if err == gorm.ErrRecordNotFound {
		calc = models.CommissionCalculation{
			KolID:            order.ShopID,
			CalculationMonth: monthStart,
			Status:           models.CalculationStatusCalculated,
			CalculatedAt:     time.Now(),
		}
		if err := tx.Create(&calc).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	calc.SelfShopSales += order.TotalAmount
	calc.SelfShopCommission += order.CommissionAmount
	calc.TotalCommission = calc.SubordinateCommission + calc.SelfShopCommission + calc.ManualAdjustment
	return tx.Save(&calc).Error
}

// OrderStats 订单统计
func (oc *OrderController) OrderStats(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	query := db.DB.Model(&models.Order{})
	if !IsAdmin(operator) {
		query = query.Where("shop_id IN ?", relatedShopIDs(db.DB, operator.ID))
	}

	type statRow struct {
		OrderStatus string
		Count       int64
		Amount      float64
	}
	var rows []statRow
	if err := query.Select("order_status, COUNT(*) as count, COALESCE(SUM(total_amount), 0) as amount").
		Group("order_status").Scan(&rows).Error; err != nil {
		log.Printf("订单统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	byStatus := map[string]gin.H{}
	var totalCount int64
	totalAmount := 0.0
	for _, row := range rows {
		byStatus[row.OrderStatus] = gin.H{"count": row.Count, "amount": row.Amount}
		totalCount += row.Count
		if row.OrderStatus != models.OrderStatusCancelled && row.OrderStatus != models.OrderStatusRefunded {
			totalAmount += row.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total_count":  totalCount,
			"total_amount": totalAmount,
			"by_status":    byStatus,
		},
	})
}

// relatedShopIDs 返回某档案可见的店铺ID集合（自己 + 活跃下级）
func relatedShopIDs(tx *gorm.DB, profileID int) []int {
	ids := []int{profileID}
	var rels []models.ShopRelationship
	if err := tx.Where("parent_id = ? AND is_active = ?", profileID, true).Find(&rels).Error; err != nil {
		return ids
	}
	for _, rel := range rels {
		ids = append(ids, rel.ShopOwnerID)
	}
	return ids
}

// containsInt 检查整数是否在切片中
func containsInt(items []int, target int) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

// floatOrZero 指针为空时返回0
func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
