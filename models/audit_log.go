package models

import (
	"time"
)

// 审计动作常量
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditLog 审计日志，只追加不修改
type AuditLog struct {
	ID            int       `gorm:"primaryKey;autoIncrement"`
	Table         string    `gorm:"column:table_name;type:varchar(64);not null;index"` // 业务表名
	RecordID      string    `gorm:"column:record_id;type:varchar(50);not null"`        // 业务记录ID
	Action        string    `gorm:"column:action;type:varchar(10);not null"`           // 动作 INSERT/UPDATE/DELETE
	UserID        *int      `gorm:"column:user_id;type:int"`                           // 操作人档案ID
	UserRole      string    `gorm:"column:user_role;type:varchar(20)"`                 // 操作人角色
	OldValues     string    `gorm:"column:old_values;type:json"`                       // 变更前JSON
	NewValues     string    `gorm:"column:new_values;type:json"`                       // 变更后JSON
	ChangedFields string    `gorm:"column:changed_fields;type:json"`                   // 变更字段JSON数组
	Metadata      string    `gorm:"column:metadata;type:json"`                         // 扩展JSON
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName 设置表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
