package models

import (
	"time"
)

// User 登录账号模型
type User struct {
	ID        int        `gorm:"primaryKey;autoIncrement"`
	Email     string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex"` // 登录邮箱
	Password  string     `gorm:"column:password;type:varchar(255);not null"`          // bcrypt密码哈希
	IsActive  bool       `gorm:"column:is_active;type:tinyint(1);default:1"`          // 是否可登录
	LastLogin *time.Time `gorm:"column:last_login;type:datetime"`                     // 最后登录时间
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
