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

// NotificationController 站内通知控制器

type NotificationController struct{}

// NotificationList 当前用户的通知列表，软删除的不返回
func (nc *NotificationController) NotificationList(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var queryData struct {
		IsRead   *bool  `json:"is_read"`
		Type     string `json:"type"`
		Priority string `json:"priority"`
		SortBy   string `json:"sort_by"`
		Page     int    `json:"page" binding:"required,min=1"`
		PageSize int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.Notification{}).Where("user_id = ?", operator.ID).
		Where("metadata IS NULL OR metadata = '' OR metadata NOT LIKE ?", "%\"deleted\":true%")

	if queryData.IsRead != nil {
		query = query.Where("is_read = ?", *queryData.IsRead)
	}
	if queryData.Type != "" {
		if !containsString(models.ValidNotificationTypes, queryData.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "通知类型无效"})
			return
		}
		query = query.Where("type = ?", queryData.Type)
	}
	if queryData.Priority != "" {
		if !containsString(models.ValidPriorities, queryData.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "优先级无效"})
			return
		}
		query = query.Where("priority = ?", queryData.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计通知总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	// 默认按时间倒序，可选按优先级排序
	orderClause := "created_at DESC"
	if queryData.SortBy == "priority" {
		orderClause = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END, created_at DESC"
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var notifications []models.Notification
	if err := query.Offset(offset).Limit(limit).Order(orderClause).Find(&notifications).Error; err != nil {
		log.Printf("查询通知列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      notifications,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// UnreadCount 未读数量和是否有高优先级未读
func (nc *NotificationController) UnreadCount(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var count int64
	if err := db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", operator.ID, false).Count(&count).Error; err != nil {
		log.Printf("统计未读通知失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	var highCount int64
	db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ? AND priority IN ?",
			operator.ID, false, []string{models.PriorityHigh, models.PriorityUrgent}).
		Count(&highCount)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"unread_count":      count,
			"has_high_priority": highCount > 0,
		},
	})
}

// MarkRead 标记单条通知已读
// 幂等操作：已读的通知重复标记返回already_read，不改动read_at
func (nc *NotificationController) MarkRead(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var notification models.Notification
	if err := db.DB.First(&notification, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "通知不存在"})
		return
	}
	if notification.UserID != operator.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能操作自己的通知"})
		return
	}

	if notification.IsRead {
		c.JSON(http.StatusOK, gin.H{
			"status":       "success",
			"already_read": true,
		})
		return
	}

	now := time.Now()
	if err := db.DB.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": &now,
	}).Error; err != nil {
		log.Printf("标记已读失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "操作失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"already_read": false,
	})
}

// MarkAllRead 标记当前用户所有未读通知为已读，整批只写一条审计日志
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var unread []models.Notification
	if err := db.DB.Where("user_id = ? AND is_read = ?", operator.ID, false).Find(&unread).Error; err != nil {
		log.Printf("查询未读通知失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	now := time.Now()
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for i := range unread {
			if err := tx.Model(&unread[i]).Updates(map[string]interface{}{
				"is_read": true,
				"read_at": &now,
			}).Error; err != nil {
				return err
			}
		}
		return notify.WriteAuditLog(tx, "notifications", fmt.Sprintf("%d", operator.ID),
			models.AuditUpdate, &operator.ID, operator.Role, nil,
			map[string]interface{}{"marked_read": len(unread)}, nil)
	})
	if err != nil {
		log.Printf("批量标记已读失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "操作失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"marked_read": len(unread),
	})
}

// NotificationDelete 删除通知，默认软删除，permanent=true时物理删除
func (nc *NotificationController) NotificationDelete(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var notification models.Notification
	if err := db.DB.First(&notification, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "通知不存在"})
		return
	}
	if notification.UserID != operator.ID && !IsAdmin(operator) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能操作自己的通知"})
		return
	}

	if c.Query("permanent") == "true" {
		if err := db.DB.Delete(&notification).Error; err != nil {
			log.Printf("删除通知失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "通知已删除"})
		return
	}

	metadata, _ := utils.JSONStringToMap(notification.Metadata)
	metadata["deleted"] = true
	metadata["deleted_at"] = utils.FormatDateTime(time.Now())
	metadataJSON, _ := utils.MapToJSONString(metadata)
	if err := db.DB.Model(&notification).Update("metadata", metadataJSON).Error; err != nil {
		log.Printf("软删除通知失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "通知已删除"})
}

// NotificationCreate 创建通知（管理员）
func (nc *NotificationController) NotificationCreate(c *gin.Context) {
	var createData struct {
		UserID   int    `json:"user_id" binding:"required"`
		Type     string `json:"type" binding:"required"`
		Title    string `json:"title" binding:"required"`
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	if err := notify.CreateNotification(db.DB, createData.UserID, createData.Type,
		createData.Title, createData.Message, "", "", createData.Priority); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "通知已创建"})
}

// BulkNotificationCreate 批量创建通知（管理员），错误明细最多返回10条
func (nc *NotificationController) BulkNotificationCreate(c *gin.Context) {
	var createData struct {
		UserIDs  []int  `json:"user_ids" binding:"required,min=1"`
		Type     string `json:"type" binding:"required"`
		Title    string `json:"title" binding:"required"`
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	processed := 0
	failed := 0
	var errors []gin.H
	for _, userID := range createData.UserIDs {
		if err := notify.CreateNotification(db.DB, userID, createData.Type,
			createData.Title, createData.Message, "", "", createData.Priority); err != nil {
			failed++
			errors = append(errors, gin.H{"user_id": userID, "error": err.Error()})
			continue
		}
		processed++
	}

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
