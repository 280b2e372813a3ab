package repository

import (
	"errors"
	"time"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// FriendshipRepository 好友关系数据仓储
// 覆盖好友请求、双向好友边与有向互动统计三张表
type FriendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建FriendshipRepository实例
func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// ---------- 好友请求 ----------

// CreateRequest 创建好友请求
func (r *FriendshipRepository) CreateRequest(req *model.FriendRequest) error {
	return r.db.Create(req).Error
}

// GetRequestByID 根据ID获取好友请求
func (r *FriendshipRepository) GetRequestByID(id uint) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetPendingRequest 获取有序(sender, receiver)对上的pending请求
func (r *FriendshipRepository) GetPendingRequest(senderID, receiverID uint) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.Where("sender_id = ? AND receiver_id = ? AND status = ?",
		senderID, receiverID, model.RequestStatusPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingForReceiver 列出发给指定用户的pending请求
func (r *FriendshipRepository) ListPendingForReceiver(receiverID uint) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	err := r.db.Where("receiver_id = ? AND status = ?", receiverID, model.RequestStatusPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// RejectRequest 将pending请求置为rejected并记录响应时间
func (r *FriendshipRepository) RejectRequest(requestID uint, respondedAt time.Time) error {
	return r.db.Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       model.RequestStatusRejected,
			"responded_at": respondedAt,
		}).Error
}

// ---------- 好友边与统计 ----------

// AcceptRequest 接受好友请求：单事务内完成
//  1. 请求状态pending→accepted并记录响应时间
//  2. 创建A→B与B→A两条好友边
//  3. 创建两个方向的互动统计行
//
// 任一步失败整体回滚，不允许只存在单方向的边或统计
func (r *FriendshipRepository) AcceptRequest(req *model.FriendRequest, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.FriendRequest{}).
			Where("id = ? AND status = ?", req.ID, model.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":       model.RequestStatusAccepted,
				"responded_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		edges := []*model.Friendship{
			{UserID: req.SenderID, FriendID: req.ReceiverID, FriendshipStartedAt: now},
			{UserID: req.ReceiverID, FriendID: req.SenderID, FriendshipStartedAt: now},
		}
		for _, e := range edges {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}

		stats := []*model.FriendshipStat{
			{UserID: req.SenderID, FriendID: req.ReceiverID},
			{UserID: req.ReceiverID, FriendID: req.SenderID},
		}
		for _, s := range stats {
			if err := tx.Create(s).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetEdge 获取user→friend方向的好友边
func (r *FriendshipRepository) GetEdge(userID, friendID uint) (*model.Friendship, error) {
	var edge model.Friendship
	err := r.db.Where("user_id = ? AND friend_id = ?", userID, friendID).First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// AreFriends 判断两个用户是否为好友
// 双行冗余设计下单方向单行查询即可，无需join
func (r *FriendshipRepository) AreFriends(userID, friendID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	return count > 0, err
}

// ListFriends 列出用户的全部好友边（排除已拉黑）
func (r *FriendshipRepository) ListFriends(userID uint) ([]*model.Friendship, error) {
	var edges []*model.Friendship
	err := r.db.Where("user_id = ? AND is_blocked = ?", userID, false).
		Order("friendship_started_at DESC").
		Find(&edges).Error
	return edges, err
}

// Block 单向拉黑：仅设置user→friend方向边的拉黑标记
func (r *FriendshipRepository) Block(userID, friendID uint, now time.Time) error {
	result := r.db.Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Updates(map[string]interface{}{
			"is_blocked": true,
			"blocked_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---------- 互动统计 ----------

// GetStat 获取user→friend方向的互动统计
func (r *FriendshipRepository) GetStat(userID, friendID uint) (*model.FriendshipStat, error) {
	var stat model.FriendshipStat
	err := r.db.Where("user_id = ? AND friend_id = ?", userID, friendID).First(&stat).Error
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// RecordPulseSent 记录一次pulse发送：发送方向pulses_sent+1，接收方向pulses_received+1
// 双方last_interaction_at同步更新；非好友对（如圈子内非好友成员）静默跳过
func (r *FriendshipRepository) RecordPulseSent(senderID, recipientID uint, now time.Time) error {
	err := r.db.Model(&model.FriendshipStat{}).
		Where("user_id = ? AND friend_id = ?", senderID, recipientID).
		Updates(map[string]interface{}{
			"pulses_sent":         gorm.Expr("pulses_sent + 1"),
			"last_interaction_at": now,
		}).Error
	if err != nil {
		return err
	}

	return r.db.Model(&model.FriendshipStat{}).
		Where("user_id = ? AND friend_id = ?", recipientID, senderID).
		Updates(map[string]interface{}{
			"pulses_received":     gorm.Expr("pulses_received + 1"),
			"last_interaction_at": now,
		}).Error
}

// UpdateStatOnSeen 接收方查看pulse后重算响应统计
// 响应率 = 已读数/接收数；连续天数在上次互动为前一自然日时+1，更早则重置为1
func (r *FriendshipRepository) UpdateStatOnSeen(recipientID, senderID uint, seenCount int64, now time.Time) error {
	stat, err := r.GetStat(recipientID, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	rate := float64(0)
	if stat.PulsesReceived > 0 {
		rate = float64(seenCount) / float64(stat.PulsesReceived)
		if rate > 1 {
			rate = 1
		}
	}

	streak := stat.StreakDays
	if stat.LastInteractionAt == nil {
		streak = 1
	} else {
		prev := stat.LastInteractionAt.Truncate(24 * time.Hour)
		today := now.Truncate(24 * time.Hour)
		switch today.Sub(prev) {
		case 0:
			if streak == 0 {
				streak = 1
			}
		case 24 * time.Hour:
			streak++
		default:
			streak = 1
		}
	}

	return r.db.Model(&model.FriendshipStat{}).
		Where("user_id = ? AND friend_id = ?", recipientID, senderID).
		Updates(map[string]interface{}{
			"response_rate":       rate,
			"streak_days":         streak,
			"last_interaction_at": now,
		}).Error
}
