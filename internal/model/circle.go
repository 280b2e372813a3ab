package model

import (
	"time"

	"gorm.io/gorm"
)

// Circle 圈子（用户自建的好友分组，作为pulse的广播目标）
// MembersCount 必须与circle_member表中的存活行数一致，成员变更与计数更新在同一事务内完成
// PrivacyType: private/public

type Circle struct {
	ID           uint           `gorm:"primaryKey"`
	OwnerID      uint           `gorm:"not null;index;comment:创建者ID"`
	Name         string         `gorm:"type:varchar(64);not null;comment:圈子名称"`
	PrivacyType  string         `gorm:"type:varchar(32);default:'private';comment:隐私类型"`
	MembersCount int64          `gorm:"default:0;comment:成员数"`
	PulsesCount  int64          `gorm:"default:0;comment:pulse总数"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Circle) TableName() string { return "circle" }

// 圈子隐私类型
const (
	CirclePrivacyPrivate = "private"
	CirclePrivacyPublic  = "public"
)

// CircleMember 圈子成员
// 唯一约束保证同一用户在同一圈子中仅有一条成员记录

type CircleMember struct {
	ID       uint      `gorm:"primaryKey"`
	CircleID uint      `gorm:"not null;uniqueIndex:idx_circle_member;comment:圈子ID"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_circle_member;comment:成员用户ID"`
	JoinedAt time.Time `gorm:"comment:加入时间"`
}

func (CircleMember) TableName() string { return "circle_member" }
