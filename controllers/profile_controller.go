package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProfileController 档案管理控制器（管理员）

type ProfileController struct{}

// ProfileList 档案列表，支持角色/状态/地区过滤和分页
func (pc *ProfileController) ProfileList(c *gin.Context) {
	var queryData struct {
		Role     string `json:"role"`
		Status   string `json:"status"`
		Region   string `json:"region"`
		Keyword  string `json:"keyword"`
		Page     int    `json:"page" binding:"required,min=1"`
		PageSize int    `json:"page_size" binding:"required,min=1,max=100"`
	}

	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.Profile{})
	if queryData.Role != "" {
		query = query.Where("role = ?", queryData.Role)
	}
	if queryData.Status != "" {
		query = query.Where("status = ?", queryData.Status)
	}
	if queryData.Region != "" {
		query = query.Where("region = ?", queryData.Region)
	}
	if queryData.Keyword != "" {
		kw := "%" + queryData.Keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR shop_name LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计档案总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var profiles []models.Profile
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&profiles).Error; err != nil {
		log.Printf("查询档案列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      profiles,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// ProfileDetail 档案详情
func (pc *ProfileController) ProfileDetail(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var profile models.Profile
	if err := db.DB.First(&profile, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "档案不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": profile})
}

// ProfileStats 档案统计，按角色和状态分组计数
func (pc *ProfileController) ProfileStats(c *gin.Context) {
	type statRow struct {
		Role   string
		Status string
		Count  int64
	}
	var rows []statRow
	if err := db.DB.Model(&models.Profile{}).
		Select("role, status, COUNT(*) as count").
		Group("role, status").Scan(&rows).Error; err != nil {
		log.Printf("统计档案失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	byRole := map[string]int64{}
	byStatus := map[string]int64{}
	var total int64
	for _, row := range rows {
		byRole[row.Role] += row.Count
		byStatus[row.Status] += row.Count
		total += row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total":     total,
			"by_role":   byRole,
			"by_status": byStatus,
		},
	})
}

// ProfileUpdate 更新档案基本信息
func (pc *ProfileController) ProfileUpdate(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	// 管理员可改任何档案，其他角色只能改自己的
	if !IsAdmin(operator) && operator.ID != id {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能修改自己的档案"})
		return
	}

	var updateData struct {
		Name           *string  `json:"name"`
		ShopName       *string  `json:"shop_name"`
		Region         *string  `json:"region"`
		NaverPlaceLink *string  `json:"naver_place_link"`
		Phone          *string  `json:"phone"`
		CommissionRate *float64 `json:"commission_rate"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var profile models.Profile
	if err := db.DB.First(&profile, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "档案不存在"})
		return
	}

	updates := map[string]interface{}{}
	changedFields := []string{}
	if updateData.Name != nil {
		updates["name"] = *updateData.Name
		changedFields = append(changedFields, "name")
	}
	if updateData.ShopName != nil {
		updates["shop_name"] = *updateData.ShopName
		changedFields = append(changedFields, "shop_name")
	}
	if updateData.Region != nil {
		updates["region"] = *updateData.Region
		changedFields = append(changedFields, "region")
	}
	if updateData.NaverPlaceLink != nil {
		updates["naver_place_link"] = *updateData.NaverPlaceLink
		changedFields = append(changedFields, "naver_place_link")
	}
	if updateData.Phone != nil {
		updates["phone"] = *updateData.Phone
		changedFields = append(changedFields, "phone")
	}
	if updateData.CommissionRate != nil {
		// 佣金比例只有管理员可改
		if !IsAdmin(operator) {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "佣金比例只能由管理员修改"})
			return
		}
		if *updateData.CommissionRate < 0 || *updateData.CommissionRate > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "佣金比例必须在0~1之间"})
			return
		}
		updates["commission_rate"] = *updateData.CommissionRate
		changedFields = append(changedFields, "commission_rate")
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "没有需要更新的字段"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&profile).Updates(updates).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "profiles", fmt.Sprintf("%d", profile.ID), models.AuditUpdate,
			&operator.ID, operator.Role, nil, updates, changedFields)
	})
	if err != nil {
		log.Printf("更新档案失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "档案更新成功"})
}

// ProfileApprove 审核通过档案
func (pc *ProfileController) ProfileApprove(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var profile models.Profile
	if err := db.DB.First(&profile, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "档案不存在"})
		return
	}

	if profile.Status == models.ProfileStatusApproved {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeAlreadyApproved, "message": "档案已审核通过"})
		return
	}

	now := time.Now()
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&profile).Updates(map[string]interface{}{
			"status":      models.ProfileStatusApproved,
			"approved_at": &now,
			"approved_by": operator.ID,
		}).Error; err != nil {
			return err
		}

		if err := notify.CreateNotification(tx, profile.ID, models.NotifyStatusChanged,
			"会员审核通过", "您的注册申请已通过审核", "profile",
			fmt.Sprintf("%d", profile.ID), models.PriorityNormal); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "profiles", fmt.Sprintf("%d", profile.ID), models.AuditUpdate,
			&operator.ID, operator.Role,
			map[string]interface{}{"status": profile.Status},
			map[string]interface{}{"status": models.ProfileStatusApproved},
			[]string{"status"})
	})
	if err != nil {
		log.Printf("审核档案失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "审核失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "审核通过"})
}

// ProfileReject 驳回档案
func (pc *ProfileController) ProfileReject(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var rejectData struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&rejectData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "请提供驳回原因"})
		return
	}

	var profile models.Profile
	if err := db.DB.First(&profile, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "档案不存在"})
		return
	}

	if profile.Status == models.ProfileStatusRejected {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeAlreadyRejected, "message": "档案已被驳回"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&profile).Updates(map[string]interface{}{
			"status":           models.ProfileStatusRejected,
			"rejection_reason": rejectData.Reason,
		}).Error; err != nil {
			return err
		}

		if err := notify.CreateNotification(tx, profile.ID, models.NotifyStatusChanged,
			"会员审核未通过", "驳回原因: "+rejectData.Reason, "profile",
			fmt.Sprintf("%d", profile.ID), models.PriorityHigh); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "profiles", fmt.Sprintf("%d", profile.ID), models.AuditUpdate,
			&operator.ID, operator.Role,
			map[string]interface{}{"status": profile.Status},
			map[string]interface{}{"status": models.ProfileStatusRejected, "reason": rejectData.Reason},
			[]string{"status", "rejection_reason"})
	})
	if err != nil {
		log.Printf("驳回档案失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "驳回失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "已驳回"})
}

// BulkUserAction 批量处理档案，单条失败不影响其他条目
func (pc *ProfileController) BulkUserAction(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var actionData struct {
		ProfileIDs []int  `json:"profile_ids" binding:"required,min=1"`
		Action     string `json:"action" binding:"required"`
		Role       string `json:"role"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&actionData); err != nil {
		RespondBindingError(c, err)
		return
	}

	validActions := []string{"approve", "reject", "change_role", "activate", "deactivate"}
	if !containsString(validActions, actionData.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "无效的批量操作类型"})
		return
	}

	processed := 0
	failed := 0
	var errors []gin.H

	for _, profileID := range actionData.ProfileIDs {
		err := pc.applyUserAction(profileID, actionData.Action, actionData.Role, actionData.Reason, operator)
		if err != nil {
			failed++
			errors = append(errors, gin.H{"profile_id": profileID, "error": err.Error()})
			continue
		}
		processed++
	}

	// 错误明细最多返回10条
	if len(errors) > 10 {
		errors = errors[:10]
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"processed": processed,
		"failed":    failed,
		"errors":    errors,
	})
}

// applyUserAction 对单个档案执行批量操作中的一项
func (pc *ProfileController) applyUserAction(profileID int, action, role, reason string, operator *models.Profile) error {
	var profile models.Profile
	if err := db.DB.First(&profile, profileID).Error; err != nil {
		return fmt.Errorf("档案不存在")
	}

	return db.DB.Transaction(func(tx *gorm.DB) error {
		var updates map[string]interface{}
		switch action {
		case "approve":
			if profile.Status == models.ProfileStatusApproved {
				return fmt.Errorf("档案已审核通过")
			}
			now := time.Now()
			updates = map[string]interface{}{
				"status":      models.ProfileStatusApproved,
				"approved_at": &now,
				"approved_by": operator.ID,
			}
		case "reject":
			if profile.Status == models.ProfileStatusRejected {
				return fmt.Errorf("档案已被驳回")
			}
			updates = map[string]interface{}{
				"status":           models.ProfileStatusRejected,
				"rejection_reason": reason,
			}
		case "change_role":
			validRoles := []string{models.RoleKOL, models.RoleOL, models.RoleShopOwner}
			if !containsString(validRoles, role) {
				return fmt.Errorf("无效的目标角色")
			}
			updates = map[string]interface{}{"role": role}
		case "activate":
			if err := tx.Model(&models.User{}).Where("id = ?", profile.UserID).
				Update("is_active", true).Error; err != nil {
				return err
			}
			updates = map[string]interface{}{}
		case "deactivate":
			if err := tx.Model(&models.User{}).Where("id = ?", profile.UserID).
				Update("is_active", false).Error; err != nil {
				return err
			}
			updates = map[string]interface{}{}
		}

		if len(updates) > 0 {
			if err := tx.Model(&profile).Updates(updates).Error; err != nil {
				return err
			}
		}

		return notify.WriteAuditLog(tx, "profiles", fmt.Sprintf("%d", profile.ID), models.AuditUpdate,
			&operator.ID, operator.Role, nil,
			map[string]interface{}{"bulk_action": action}, nil)
	})
}
