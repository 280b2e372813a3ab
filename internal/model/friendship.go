package model

import (
	"time"

	"gorm.io/gorm"
)

// FriendRequest 好友请求
// Status: pending/accepted/rejected
// 同一有序(sender, receiver)对最多允许一条pending记录

type FriendRequest struct {
	ID          uint           `gorm:"primaryKey"`
	SenderID    uint           `gorm:"not null;index:idx_request_pair;comment:发起者ID"`
	ReceiverID  uint           `gorm:"not null;index:idx_request_pair;comment:接收者ID"`
	Status      string         `gorm:"type:varchar(32);default:'pending';comment:请求状态"`
	RespondedAt *time.Time     `gorm:"comment:响应时间"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (FriendRequest) TableName() string { return "friend_request" }

// 好友请求状态
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// Friendship 好友关系边（单向行）
// 每段好友关系由A→B和B→A两行镜像构成，接受请求时在同一事务内成对创建
// 双行冗余换取任意方向O(1)单行查询，属于刻意设计而非规范化疏漏
// 拉黑为单向操作：仅设置本方向行的IsBlocked/BlockedAt

type Friendship struct {
	ID                   uint           `gorm:"primaryKey"`
	UserID               uint           `gorm:"not null;uniqueIndex:idx_friend_pair;comment:用户ID"`
	FriendID             uint           `gorm:"not null;uniqueIndex:idx_friend_pair;comment:好友ID"`
	FriendshipStartedAt  time.Time      `gorm:"comment:好友关系建立时间"`
	IsBlocked            bool           `gorm:"default:false;comment:是否已拉黑"`
	BlockedAt            *time.Time     `gorm:"comment:拉黑时间"`
	CreatedAt            time.Time      `gorm:"comment:创建时间"`
	UpdatedAt            time.Time      `gorm:"comment:更新时间"`
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (Friendship) TableName() string { return "friendship" }

// FriendshipStat 有向好友互动统计
// 与好友关系边同事务成对创建，每个方向一行
// ResponseRate/StreakDays 在接收方查看pulse时重算

type FriendshipStat struct {
	ID                uint       `gorm:"primaryKey"`
	UserID            uint       `gorm:"not null;uniqueIndex:idx_stat_pair;comment:用户ID"`
	FriendID          uint       `gorm:"not null;uniqueIndex:idx_stat_pair;comment:好友ID"`
	PulsesSent        int64      `gorm:"default:0;comment:发送pulse数"`
	PulsesReceived    int64      `gorm:"default:0;comment:接收pulse数"`
	ResponseRate      float64    `gorm:"default:0;comment:响应率(已读/接收)"`
	StreakDays        int        `gorm:"default:0;comment:连续互动天数"`
	LastInteractionAt *time.Time `gorm:"comment:最近互动时间"`
	CreatedAt         time.Time  `gorm:"comment:创建时间"`
	UpdatedAt         time.Time  `gorm:"comment:更新时间"`
}

func (FriendshipStat) TableName() string { return "friendship_stat" }
