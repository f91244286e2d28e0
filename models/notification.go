package models

import (
	"time"
)

// 通知类型常量
const (
	NotifySystem           = "system"
	NotifyCRMUpdate        = "crm_update"
	NotifyOrderCreated     = "order_created"
	NotifyCommissionPaid   = "commission_paid"
	NotifyClinicalProgress = "clinical_progress"
	NotifyApprovalRequired = "approval_required"
	NotifyStatusChanged    = "status_changed"
	NotifyReminder         = "reminder"
)

// 通知优先级常量
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidNotificationTypes 合法通知类型
var ValidNotificationTypes = []string{
	NotifySystem, NotifyCRMUpdate, NotifyOrderCreated, NotifyCommissionPaid,
	NotifyClinicalProgress, NotifyApprovalRequired, NotifyStatusChanged, NotifyReminder,
}

// ValidPriorities 合法优先级
var ValidPriorities = []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

// Notification 站内通知，每个触发事件产生一条，不做合并去重
type Notification struct {
	ID          int        `gorm:"primaryKey;autoIncrement"`
	UserID      int        `gorm:"column:user_id;type:int;not null;index"`           // 接收人档案ID
	Type        string     `gorm:"column:type;type:varchar(30);not null;index"`      // 通知类型
	Title       string     `gorm:"column:title;type:varchar(255);not null"`          // 标题
	Message     string     `gorm:"column:message;type:text"`                         // 内容
	RelatedType string     `gorm:"column:related_type;type:varchar(50)"`             // 关联对象类型
	RelatedID   string     `gorm:"column:related_id;type:varchar(50)"`               // 关联对象ID
	IsRead      bool       `gorm:"column:is_read;type:tinyint(1);default:0;index"`   // 是否已读
	ReadAt      *time.Time `gorm:"column:read_at;type:datetime"`                     // 首次已读时间，重复标记不更新
	Priority    string     `gorm:"column:priority;type:varchar(10);default:normal"`  // 优先级 low/normal/high/urgent
	Metadata    string     `gorm:"column:metadata;type:json"`                        // 扩展JSON（软删除标记等）
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (Notification) TableName() string {
	return "notifications"
}
