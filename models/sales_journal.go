package models

import (
	"time"
)

// SalesJournal 销售日志，按(user_id, date)唯一，重复提交覆盖更新
type SalesJournal struct {
	ID           int       `gorm:"primaryKey;autoIncrement"`
	UserID       int       `gorm:"column:user_id;type:int;not null;uniqueIndex:uk_user_date"` // 作者档案ID
	Date         string    `gorm:"column:date;type:varchar(10);not null;uniqueIndex:uk_user_date"` // 日期 YYYY-MM-DD
	ShopID       *int      `gorm:"column:shop_id;type:int"`                    // 关联店铺档案ID（按店名精确匹配）
	ShopName     string    `gorm:"column:shop_name;type:varchar(255)"`         // 店铺名称
	Content      string    `gorm:"column:content;type:text;not null"`          // 日志内容
	SpecialNotes string    `gorm:"column:special_notes;type:text"`             // 特记事项
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (SalesJournal) TableName() string {
	return "sales_journals"
}
