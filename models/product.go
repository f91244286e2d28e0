package models

import (
	"time"
)

// Product 商品模型
type Product struct {
	ID                    int       `gorm:"primaryKey;autoIncrement"`
	Name                  string    `gorm:"column:name;type:varchar(255);not null"`                 // 商品名称
	Code                  string    `gorm:"column:code;type:varchar(50);not null;uniqueIndex"`      // 商品编码
	Category              string    `gorm:"column:category;type:varchar(30);not null"`              // 分类 skincare/device/supplement/cosmetic/accessory
	Price                 float64   `gorm:"column:price;type:decimal(12,2);not null"`               // 单价
	IsActive              bool      `gorm:"column:is_active;type:tinyint(1);default:1"`             // 是否在售
	DefaultCommissionRate float64   `gorm:"column:default_commission_rate;type:decimal(5,4);default:0"` // 默认佣金比例
	MinCommissionRate     float64   `gorm:"column:min_commission_rate;type:decimal(5,4);default:0"` // 最低佣金比例
	MaxCommissionRate     float64   `gorm:"column:max_commission_rate;type:decimal(5,4);default:0"` // 最高佣金比例
	SortOrder             int       `gorm:"column:sort_order;type:int;default:0"`                   // 排序权重
	Description           string    `gorm:"column:description;type:text"`                           // 商品说明
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (Product) TableName() string {
	return "products"
}

// ValidProductCategories 合法商品分类
var ValidProductCategories = []string{"skincare", "device", "supplement", "cosmetic", "accessory"}
