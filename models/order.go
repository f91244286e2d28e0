package models

import (
	"time"
)

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// 佣金状态常量
const (
	CommissionStatusCalculated = "calculated"
	CommissionStatusAdjusted   = "adjusted"
	CommissionStatusApproved   = "approved"
	CommissionStatusPaid       = "paid"
	CommissionStatusCancelled  = "cancelled"
)

// ValidOrderStatuses 合法订单状态
var ValidOrderStatuses = []string{
	OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
}

// ValidCommissionStatuses 合法佣金状态
var ValidCommissionStatuses = []string{
	CommissionStatusCalculated, CommissionStatusAdjusted, CommissionStatusApproved,
	CommissionStatusPaid, CommissionStatusCancelled,
}

// Order 订单模型
// 订单不做物理删除，删除操作转为cancelled状态并在metadata中记录删除信息
type Order struct {
	ID               int       `gorm:"primaryKey;autoIncrement"`
	ShopID           int       `gorm:"column:shop_id;type:int;not null;index"`                   // 下单店铺档案ID
	OrderNumber      string    `gorm:"column:order_number;type:varchar(50);not null;uniqueIndex"` // 订单号 ORD-YYYYMMDD-NNNN
	OrderDate        time.Time `gorm:"column:order_date;type:datetime;not null;index"`           // 下单时间
	TotalAmount      float64   `gorm:"column:total_amount;type:decimal(12,2);not null"`          // 订单总金额
	CommissionRate   float64   `gorm:"column:commission_rate;type:decimal(5,4);not null"`        // 订单佣金比例（0~1小数）
	CommissionAmount float64   `gorm:"column:commission_amount;type:decimal(12,2);default:0"`    // 订单佣金金额
	CommissionStatus string    `gorm:"column:commission_status;type:varchar(20);default:calculated;index"` // 佣金状态
	OrderStatus      string    `gorm:"column:order_status;type:varchar(20);default:pending;index"` // 订单状态
	IsSelfShopOrder  bool      `gorm:"column:is_self_shop_order;type:tinyint(1);default:0"`      // 是否本店订单（KOL自营）
	Notes            string    `gorm:"column:notes;type:varchar(500)"`                           // 备注
	Metadata         string    `gorm:"column:metadata;type:json"`                                // 扩展字段JSON（删除信息等）
	CreatedBy        int       `gorm:"column:created_by;type:int"`                               // 创建人档案ID
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单明细行
type OrderItem struct {
	ID                   int       `gorm:"primaryKey;autoIncrement"`
	OrderID              int       `gorm:"column:order_id;type:int;not null;index"`              // 所属订单ID
	ProductID            *int      `gorm:"column:product_id;type:int"`                           // 商品ID（手工录入行可为空）
	ProductName          string    `gorm:"column:product_name;type:varchar(255);not null"`       // 商品名称快照
	ProductCode          string    `gorm:"column:product_code;type:varchar(50)"`                 // 商品编码快照
	Quantity             int       `gorm:"column:quantity;type:int;not null"`                    // 数量
	UnitPrice            float64   `gorm:"column:unit_price;type:decimal(12,2);not null"`        // 单价
	Subtotal             float64   `gorm:"column:subtotal;type:decimal(12,2);not null"`          // 小计 = 数量 × 单价
	ItemCommissionRate   *float64  `gorm:"column:item_commission_rate;type:decimal(5,4)"`        // 行级佣金比例，NULL时沿用订单比例
	ItemCommissionAmount float64   `gorm:"column:item_commission_amount;type:decimal(12,2);default:0"` // 行级佣金金额
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (OrderItem) TableName() string {
	return "order_items"
}
