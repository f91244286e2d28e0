package notify

import (
	"fmt"
	"log"
	"time"

	"kol_crm/models"
	"kol_crm/utils"

	"gorm.io/gorm"
)

// CreateNotification 写入一条站内通知
// 每个触发事件一条记录，不做合并去重
func CreateNotification(tx *gorm.DB, userID int, notifyType, title, message string, relatedType, relatedID, priority string) error {
	typeValid := false
	for _, t := range models.ValidNotificationTypes {
		if t == notifyType {
			typeValid = true
			break
		}
	}
	if !typeValid {
		return fmt.Errorf("无效的通知类型: %s", notifyType)
	}

	if priority == "" {
		priority = models.PriorityNormal
	}
	priorityValid := false
	for _, p := range models.ValidPriorities {
		if p == priority {
			priorityValid = true
			break
		}
	}
	if !priorityValid {
		return fmt.Errorf("无效的通知优先级: %s", priority)
	}

	notification := models.Notification{
		UserID:      userID,
		Type:        notifyType,
		Title:       title,
		Message:     message,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		Priority:    priority,
	}
	return tx.Create(&notification).Error
}

// NotifyOrderParties 订单事件同时通知店主和其活跃上级KOL
func NotifyOrderParties(tx *gorm.DB, shopID int, notifyType, title, message, relatedID, priority string) {
	if err := CreateNotification(tx, shopID, notifyType, title, message, "order", relatedID, priority); err != nil {
		log.Printf("通知店主失败: %v", err)
	}

	// 查找店铺的活跃上级
	var rel models.ShopRelationship
	if err := tx.Where("shop_owner_id = ? AND is_active = ?", shopID, true).First(&rel).Error; err != nil {
		return
	}
	if err := CreateNotification(tx, rel.ParentID, notifyType, title, message, "order", relatedID, priority); err != nil {
		log.Printf("通知上级KOL失败: %v", err)
	}
}

// WriteAuditLog 追加一条审计日志
func WriteAuditLog(tx *gorm.DB, tableName, recordID, action string, userID *int, userRole string, oldValues, newValues map[string]interface{}, changedFields []string) error {
	oldJSON := ""
	if oldValues != nil {
		oldJSON, _ = utils.MapToJSONString(oldValues)
	}
	newJSON := ""
	if newValues != nil {
		newJSON, _ = utils.MapToJSONString(newValues)
	}

	auditLog := models.AuditLog{
		Table:         tableName,
		RecordID:      recordID,
		Action:        action,
		UserID:        userID,
		UserRole:      userRole,
		OldValues:     oldJSON,
		NewValues:     newJSON,
		ChangedFields: utils.SliceToJSONString(changedFields),
		CreatedAt:     time.Now(),
	}
	return tx.Create(&auditLog).Error
}
