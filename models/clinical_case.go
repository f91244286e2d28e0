package models

import (
	"time"
)

// 临床案例状态常量
const (
	CaseStatusInProgress = "in_progress"
	CaseStatusCompleted  = "completed"
	CaseStatusPaused     = "paused"
	CaseStatusCancelled  = "cancelled"
)

// 同意书状态常量
const (
	ConsentNone      = "no_consent"
	ConsentConsented = "consented"
	ConsentPending   = "pending"
)

// ValidCaseStatuses 合法案例状态
var ValidCaseStatuses = []string{
	CaseStatusInProgress, CaseStatusCompleted, CaseStatusPaused, CaseStatusCancelled,
}

// ClinicalCase 临床案例模型
// subject_type为self时表示店主本人案例，customer时为顾客案例
type ClinicalCase struct {
	ID              int        `gorm:"primaryKey;autoIncrement"`
	ShopID          int        `gorm:"column:shop_id;type:int;not null;index"`               // 所属店铺档案ID
	SubjectType     string     `gorm:"column:subject_type;type:varchar(20);default:customer"` // 对象类型 self/customer
	Name            string     `gorm:"column:name;type:varchar(100);not null"`               // 对象姓名
	Gender          string     `gorm:"column:gender;type:varchar(10)"`                       // 性别
	Age             *int       `gorm:"column:age;type:int"`                                  // 年龄
	Status          string     `gorm:"column:status;type:varchar(20);default:in_progress;index"` // 状态 in_progress/completed/paused/cancelled
	CaseTitle       string     `gorm:"column:case_title;type:varchar(255)"`                  // 案例标题
	ConcernArea     string     `gorm:"column:concern_area;type:varchar(255)"`                // 关注部位
	TreatmentPlan   string     `gorm:"column:treatment_plan;type:text"`                      // 护理方案
	TreatmentItem   string     `gorm:"column:treatment_item;type:varchar(255)"`              // 护理项目
	StartDate       *time.Time `gorm:"column:start_date;type:date"`                          // 开始日期
	EndDate         *time.Time `gorm:"column:end_date;type:date"`                            // 结束日期
	TotalSessions   int        `gorm:"column:total_sessions;type:int;default:0"`             // 计划护理次数
	ConsentStatus   string     `gorm:"column:consent_status;type:varchar(20);default:no_consent"` // 同意书状态
	ConsentDate     *time.Time `gorm:"column:consent_date;type:datetime"`                    // 同意时间
	MarketingConsent bool      `gorm:"column:marketing_consent;type:tinyint(1);default:0"`   // 营销使用同意

	// 旧版商品使用标记（第1回合信息缺失时据此合成）
	CureBooster   bool `gorm:"column:cure_booster;type:tinyint(1);default:0"`     // Cure Booster使用
	CureMask      bool `gorm:"column:cure_mask;type:tinyint(1);default:0"`        // Cure Mask使用
	PremiumMask   bool `gorm:"column:premium_mask;type:tinyint(1);default:0"`     // Premium Mask使用
	AllInOneSerum bool `gorm:"column:all_in_one_serum;type:tinyint(1);default:0"` // All-in-one Serum使用

	// 旧版皮肤类型标记
	SkinRedSensitive bool   `gorm:"column:skin_red_sensitive;type:tinyint(1);default:0"` // 泛红敏感
	SkinPigment      bool   `gorm:"column:skin_pigment;type:tinyint(1);default:0"`       // 色素
	SkinPore         bool   `gorm:"column:skin_pore;type:tinyint(1);default:0"`          // 毛孔
	SkinTrouble      bool   `gorm:"column:skin_trouble;type:tinyint(1);default:0"`       // 痘痘
	SkinWrinkle      bool   `gorm:"column:skin_wrinkle;type:tinyint(1);default:0"`       // 皱纹
	SkinEtc          string `gorm:"column:skin_etc;type:varchar(255)"`                   // 其他皮肤问题

	Notes         string    `gorm:"column:notes;type:text"`                     // 备注
	Tags          string    `gorm:"column:tags;type:json"`                      // 标签JSON数组
	Metadata      string    `gorm:"column:metadata;type:json"`                  // 扩展JSON，含roundInfo回合信息映射
	PhotoCount    int       `gorm:"column:photo_count;type:int;default:0"`      // 照片数量（冗余计数）
	LatestSession int       `gorm:"column:latest_session;type:int;default:0"`   // 最新回合号（冗余）
	CreatedBy     int       `gorm:"column:created_by;type:int"`                 // 创建人档案ID
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (ClinicalCase) TableName() string {
	return "clinical_cases"
}

// IsPersonal 是否店主本人案例，仅以subject_type判定
func (cc *ClinicalCase) IsPersonal() bool {
	return cc.SubjectType == "self"
}
