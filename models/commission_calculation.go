package models

import (
	"time"
)

// 月度佣金结算状态常量
const (
	CalculationStatusCalculated = "calculated"
	CalculationStatusAdjusted   = "adjusted"
	CalculationStatusReviewed   = "reviewed"
	CalculationStatusApproved   = "approved"
	CalculationStatusPaid       = "paid"
	CalculationStatusCancelled  = "cancelled"
)

// ValidCalculationStatuses 合法结算状态
var ValidCalculationStatuses = []string{
	CalculationStatusCalculated, CalculationStatusAdjusted, CalculationStatusReviewed,
	CalculationStatusApproved, CalculationStatusPaid, CalculationStatusCancelled,
}

// CommissionCalculation 月度佣金结算单，按(kol_id, calculation_month)唯一
type CommissionCalculation struct {
	ID                    int        `gorm:"primaryKey;autoIncrement"`
	KolID                 int        `gorm:"column:kol_id;type:int;not null;uniqueIndex:uk_kol_month"` // KOL/OL档案ID
	CalculationMonth      time.Time  `gorm:"column:calculation_month;type:date;not null;uniqueIndex:uk_kol_month"` // 结算月份（当月1日）
	SubordinateShopCount  int        `gorm:"column:subordinate_shop_count;type:int;default:0"`       // 下级店铺数
	ActiveShopCount       int        `gorm:"column:active_shop_count;type:int;default:0"`            // 当月有订单的下级店铺数
	SubordinateSales      float64    `gorm:"column:subordinate_sales;type:decimal(14,2);default:0"`  // 下级店铺销售额
	SubordinateCommission float64    `gorm:"column:subordinate_commission;type:decimal(14,2);default:0"` // 下级店铺佣金
	SelfShopSales         float64    `gorm:"column:self_shop_sales;type:decimal(14,2);default:0"`    // 本店销售额
	SelfShopCommission    float64    `gorm:"column:self_shop_commission;type:decimal(14,2);default:0"` // 本店佣金
	ManualAdjustment      float64    `gorm:"column:manual_adjustment;type:decimal(14,2);default:0"`  // 手工调整金额累计
	TotalCommission       float64    `gorm:"column:total_commission;type:decimal(14,2);default:0"`   // 佣金总额
	Status                string     `gorm:"column:status;type:varchar(20);default:calculated;index"` // 结算状态
	CalculationDetails    string     `gorm:"column:calculation_details;type:json"`                   // 计算明细与调整记录JSON
	PaymentDate           *time.Time `gorm:"column:payment_date;type:datetime"`                      // 支付日期
	PaymentReference      string     `gorm:"column:payment_reference;type:varchar(100)"`             // 支付凭证号
	CalculatedAt          time.Time  `gorm:"column:calculated_at;type:datetime"`                     // 计算时间
	PaidAt                *time.Time `gorm:"column:paid_at;type:datetime"`                           // 实际支付时间
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (CommissionCalculation) TableName() string {
	return "commission_calculations"
}
