package models

import (
	"time"
)

// FileMetadata 上传文件元数据，storage_id为对外引用键
type FileMetadata struct {
	ID         int       `gorm:"primaryKey;autoIncrement"`
	StorageID  string    `gorm:"column:storage_id;type:varchar(100);not null;uniqueIndex"` // 存储文件ID
	FilePath   string    `gorm:"column:file_path;type:varchar(500);not null"`              // 磁盘相对路径
	FileName   string    `gorm:"column:file_name;type:varchar(255)"`                       // 原始文件名
	FileSize   int64     `gorm:"column:file_size;type:bigint;default:0"`                   // 文件大小（字节）
	MimeType   string    `gorm:"column:mime_type;type:varchar(100)"`                       // MIME类型
	Width      int       `gorm:"column:width;type:int;default:0"`                          // 图片宽度（非图片为0）
	Height     int       `gorm:"column:height;type:int;default:0"`                         // 图片高度（非图片为0）
	UploadedBy int       `gorm:"column:uploaded_by;type:int"`                              // 上传人档案ID
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (FileMetadata) TableName() string {
	return "file_metadata"
}
