package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pulse 状态短消息
// Type: direct-定向发送 circle-圈子广播
// CircleID 仅当Type为circle时必填
// 创建后不可变，仅接收记录的seen_at与聚合的反应计数会变化

type Pulse struct {
	ID        uint           `gorm:"primaryKey"`
	SenderID  uint           `gorm:"not null;index;comment:发送者ID"`
	Type      string         `gorm:"type:varchar(32);not null;default:'direct';comment:类型(direct/circle)"`
	Message   string         `gorm:"type:text;not null;comment:消息内容"`
	CircleID  *uint          `gorm:"index;comment:圈子ID(circle类型)"`
	Metadata  datatypes.JSON `gorm:"comment:附加元数据"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Pulse) TableName() string { return "pulse" }

// Pulse类型
const (
	PulseTypeDirect = "direct"
	PulseTypeCircle = "circle"
)

// PulseRecipient pulse的接收记录
// 发送时按当时的接收者集合快照创建，圈子成员后续变动不回溯
// SeenAt 只写一次且不可撤销（单调）

type PulseRecipient struct {
	ID          uint       `gorm:"primaryKey"`
	PulseID     uint       `gorm:"not null;uniqueIndex:idx_pulse_recipient;comment:pulse ID"`
	RecipientID uint       `gorm:"not null;uniqueIndex:idx_pulse_recipient;comment:接收者ID"`
	SeenAt      *time.Time `gorm:"comment:查看时间(NULL表示未读)"`
	CreatedAt   time.Time  `gorm:"comment:创建时间"`
}

func (PulseRecipient) TableName() string { return "pulse_recipient" }

// PulseReaction 对pulse的反应
// 唯一约束保证每个用户对同一pulse仅有一条反应，后写覆盖

type PulseReaction struct {
	ID           uint      `gorm:"primaryKey"`
	PulseID      uint      `gorm:"not null;uniqueIndex:idx_pulse_reaction;comment:pulse ID"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_pulse_reaction;comment:用户ID"`
	ReactionType string    `gorm:"type:varchar(32);not null;comment:反应类型"`
	CreatedAt    time.Time `gorm:"comment:创建时间"`
	UpdatedAt    time.Time `gorm:"comment:更新时间"`
}

func (PulseReaction) TableName() string { return "pulse_reaction" }

// ReactionTypes 反应类型全集
// 切片顺序即枚举声明顺序，汇总排序时用作计数相同时的决胜依据
var ReactionTypes = []string{"heart", "laugh", "wow", "sad", "fire", "thumbs_up"}

// IsValidReaction 判断反应类型是否合法
func IsValidReaction(t string) bool {
	for _, r := range ReactionTypes {
		if r == t {
			return true
		}
	}
	return false
}

// ReactionOrder 返回反应类型在枚举中的声明序号（未知类型排在最后）
func ReactionOrder(t string) int {
	for i, r := range ReactionTypes {
		if r == t {
			return i
		}
	}
	return len(ReactionTypes)
}
