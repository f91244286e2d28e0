package models

import (
	"time"
)

// 关系类型常量
const (
	RelationshipDirect      = "direct"
	RelationshipTransferred = "transferred"
	RelationshipTemporary   = "temporary"
)

// ShopRelationship 店铺与上级KOL/OL的归属关系
// 每个店铺同一时刻只允许一条活跃关系，切换上级时旧关系置为不活跃
type ShopRelationship struct {
	ID               int        `gorm:"primaryKey;autoIncrement"`
	ShopOwnerID      int        `gorm:"column:shop_owner_id;type:int;not null;index"`          // 店铺档案ID
	ParentID         int        `gorm:"column:parent_id;type:int;not null;index"`              // 上级KOL/OL档案ID
	StartedAt        time.Time  `gorm:"column:started_at;type:datetime;not null"`              // 关系开始时间
	EndedAt          *time.Time `gorm:"column:ended_at;type:datetime"`                         // 关系结束时间
	IsActive         bool       `gorm:"column:is_active;type:tinyint(1);default:1;index"`      // 是否活跃
	RelationshipType string     `gorm:"column:relationship_type;type:varchar(20);default:direct"` // 关系类型 direct/transferred/temporary
	Notes            string     `gorm:"column:notes;type:varchar(500)"`                        // 备注
	CreatedBy        int        `gorm:"column:created_by;type:int"`                            // 创建人档案ID
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (ShopRelationship) TableName() string {
	return "shop_relationships"
}
