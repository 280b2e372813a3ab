package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification 通知记录
// FromUserID 为NULL表示系统通知
// ActorName/ActorAvatar 为创建时刻的触发者快照，之后资料修改不回写
// RelatedKind+RelatedID 指向触发实体（封闭集合，见RelatedKind*常量）
// ReadAt 非空当且仅当IsRead为true

type Notification struct {
	ID          uint           `gorm:"primaryKey"`
	UserID      uint           `gorm:"not null;index;comment:接收用户ID"`
	FromUserID  *uint          `gorm:"index;comment:触发用户ID(NULL为系统)"`
	Type        string         `gorm:"type:varchar(32);not null;index;comment:通知类型"`
	ActorName   string         `gorm:"type:varchar(64);comment:触发者名称快照"`
	ActorAvatar string         `gorm:"type:varchar(255);comment:触发者头像快照"`
	RelatedKind string         `gorm:"type:varchar(32);default:'none';comment:关联实体种类"`
	RelatedID   uint           `gorm:"default:0;comment:关联实体ID"`
	Data        datatypes.JSON `gorm:"comment:附加数据"`
	Priority    string         `gorm:"type:varchar(16);default:'normal';comment:优先级"`
	IsRead      bool           `gorm:"default:false;index;comment:是否已读"`
	ReadAt      *time.Time     `gorm:"comment:阅读时间"`
	CreatedAt   time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Notification) TableName() string { return "notification" }

// 通知类型
const (
	NotificationTypePulse         = "pulse_received"
	NotificationTypeReaction      = "pulse_reaction"
	NotificationTypeFriendRequest = "friend_request"
	NotificationTypeFriendAccept  = "friend_accepted"
	NotificationTypeCircleInvite  = "circle_invite"
	NotificationTypeCircleJoined  = "circle_joined"
)

// 通知优先级
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// 关联实体种类（封闭集合，不做运行时类型名解析）
const (
	RelatedKindNone          = "none"
	RelatedKindPulse         = "pulse"
	RelatedKindFriendRequest = "friend_request"
	RelatedKindUser          = "user"
	RelatedKindCircle        = "circle"
)

// PushSubscription 浏览器Web Push订阅记录
// 每用户可有多条（多设备/多浏览器），endpoint全局唯一
// 核心通知逻辑只关心订阅是否存在，keys仅由推送通道消费

type PushSubscription struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"not null;index;comment:用户ID"`
	Endpoint  string         `gorm:"type:varchar(512);not null;uniqueIndex;comment:推送端点"`
	P256dh    string         `gorm:"type:varchar(255);not null;comment:客户端公钥"`
	Auth      string         `gorm:"type:varchar(255);not null;comment:认证密钥"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (PushSubscription) TableName() string { return "push_subscription" }
