package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
// 索引与唯一约束：手机号唯一、邮箱唯一（邮箱可不填，NULL不参与唯一约束）
// 说明：密码仅存储哈希（PasswordHash），不存储明文
// OTP 为空(NULL)表示已完成验证，是唯一的验证判定条件
// Status 可用于标记用户在线/离线/禁用等

type User struct {
	ID           uint           `gorm:"primaryKey"`
	Name         string         `gorm:"type:varchar(64);not null;comment:显示名称"`
	Phone        string         `gorm:"type:varchar(32);not null;uniqueIndex;comment:手机号"`
	Email        *string        `gorm:"type:varchar(128);uniqueIndex;comment:邮箱(NULL表示未填写)"`
	PasswordHash string         `gorm:"type:varchar(255);not null;comment:密码哈希"`
	Avatar       string         `gorm:"type:varchar(255);comment:头像URL"`
	OTP          *string        `gorm:"type:varchar(16);comment:验证码(NULL表示已验证)"`
	Status       string         `gorm:"type:varchar(32);default:'offline';comment:状态"`
	LastSeen     time.Time      `gorm:"comment:最近在线时间"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName 指定表名（因全局配置使用单数表名，这里与结构体名一致为 user）
func (User) TableName() string { return "user" }

// IsVerified 判断用户是否已完成OTP验证
func (u *User) IsVerified() bool { return u.OTP == nil }
