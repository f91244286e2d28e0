package models

import (
	"time"
)

// 角色常量
const (
	RoleAdmin     = "admin"
	RoleKOL       = "kol"
	RoleOL        = "ol"
	RoleShopOwner = "shop_owner"
)

// 审核状态常量
const (
	ProfileStatusPending  = "pending"
	ProfileStatusApproved = "approved"
	ProfileStatusRejected = "rejected"
)

// Profile 业务档案模型，一个账号对应一条档案
type Profile struct {
	ID                 int        `gorm:"primaryKey;autoIncrement"`
	UserID             int        `gorm:"column:user_id;type:int;not null;uniqueIndex"`        // 关联的登录账号ID
	Email              string     `gorm:"column:email;type:varchar(255);not null"`             // 邮箱（冗余，便于查询）
	Name               string     `gorm:"column:name;type:varchar(100);not null"`              // 姓名
	Role               string     `gorm:"column:role;type:varchar(20);not null;index"`         // 角色 admin/kol/ol/shop_owner
	Status             string     `gorm:"column:status;type:varchar(20);default:pending;index"` // 审核状态 pending/approved/rejected
	ShopName           string     `gorm:"column:shop_name;type:varchar(255)"`                  // 店铺名称
	Region             string     `gorm:"column:region;type:varchar(100)"`                     // 地区
	NaverPlaceLink     string     `gorm:"column:naver_place_link;type:varchar(500)"`           // Naver地图链接
	Phone              string     `gorm:"column:phone;type:varchar(30)"`                       // 联系电话
	CommissionRate     *float64   `gorm:"column:commission_rate;type:decimal(5,4)"`            // 佣金比例（0~1小数，NULL时按角色默认）
	ApprovedAt         *time.Time `gorm:"column:approved_at;type:datetime"`                    // 审核通过时间
	ApprovedBy         *int       `gorm:"column:approved_by;type:int"`                         // 审核人档案ID
	RejectionReason    string     `gorm:"column:rejection_reason;type:varchar(500)"`           // 驳回原因
	TotalSubordinates  int        `gorm:"column:total_subordinates;type:int;default:0"`        // 下级店铺总数
	ActiveSubordinates int        `gorm:"column:active_subordinates;type:int;default:0"`       // 活跃下级店铺数
	Metadata           string     `gorm:"column:metadata;type:json"`                           // 扩展字段JSON
	CreatedAt          time.Time  `gorm:"autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (Profile) TableName() string {
	return "profiles"
}

// DefaultCommissionRate 返回档案的有效佣金比例，未设置时按角色默认（kol 30%，ol 20%）
func (p *Profile) DefaultCommissionRate() float64 {
	if p.CommissionRate != nil && *p.CommissionRate > 0 {
		return *p.CommissionRate
	}
	if p.Role == RoleOL {
		return 0.20
	}
	return 0.30
}
