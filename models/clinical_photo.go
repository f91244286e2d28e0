package models

import (
	"time"
)

// 照片角度常量
const (
	PhotoTypeFront     = "front"
	PhotoTypeLeftSide  = "left_side"
	PhotoTypeRightSide = "right_side"
)

// ValidPhotoTypes 合法照片角度
var ValidPhotoTypes = []string{PhotoTypeFront, PhotoTypeLeftSide, PhotoTypeRightSide}

// ClinicalPhoto 临床照片，(case_id, session_number, photo_type)逻辑唯一
// 重复上传同一槽位时删除旧记录再插入
type ClinicalPhoto struct {
	ID            int       `gorm:"primaryKey;autoIncrement"`
	CaseID        int       `gorm:"column:case_id;type:int;not null;index"`           // 所属案例ID
	SessionNumber int       `gorm:"column:session_number;type:int;not null"`          // 回合号
	PhotoType     string    `gorm:"column:photo_type;type:varchar(20);not null"`      // 角度 front/left_side/right_side
	StorageID     string    `gorm:"column:storage_id;type:varchar(100);not null"`     // 存储文件ID
	FileSize      int64     `gorm:"column:file_size;type:bigint;default:0"`           // 文件大小（字节）
	UploadDate    time.Time `gorm:"column:upload_date;type:datetime"`                 // 上传时间
	UploadedBy    int       `gorm:"column:uploaded_by;type:int"`                      // 上传人档案ID
	Metadata      string    `gorm:"column:metadata;type:json"`                        // 扩展JSON
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (ClinicalPhoto) TableName() string {
	return "clinical_photos"
}

// ConsentFile 案例同意书文件，每个案例最多一份，重复上传时替换
type ConsentFile struct {
	ID         int       `gorm:"primaryKey;autoIncrement"`
	CaseID     int       `gorm:"column:case_id;type:int;not null;uniqueIndex"`  // 所属案例ID
	StorageID  string    `gorm:"column:storage_id;type:varchar(100);not null"`  // 存储文件ID
	FileName   string    `gorm:"column:file_name;type:varchar(255)"`            // 文件名
	FileSize   int64     `gorm:"column:file_size;type:bigint;default:0"`        // 文件大小（字节）
	FileType   string    `gorm:"column:file_type;type:varchar(100)"`            // MIME类型
	UploadDate time.Time `gorm:"column:upload_date;type:datetime"`              // 上传时间
	UploadedBy int       `gorm:"column:uploaded_by;type:int"`                   // 上传人档案ID
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (ConsentFile) TableName() string {
	return "consent_files"
}
