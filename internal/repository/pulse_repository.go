package repository

import (
	"time"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// PulseRepository pulse数据仓储
type PulseRepository struct {
	db *gorm.DB
}

// NewPulseRepository 创建PulseRepository实例
func NewPulseRepository(db *gorm.DB) *PulseRepository {
	return &PulseRepository{db: db}
}

// CreateWithRecipients 创建pulse及其接收记录（单事务）
// 接收记录按发送时刻的接收者快照创建，后续成员变动不回溯
func (r *PulseRepository) CreateWithRecipients(pulse *model.Pulse, recipientIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pulse).Error; err != nil {
			return err
		}
		for _, rid := range recipientIDs {
			rec := &model.PulseRecipient{
				PulseID:     pulse.ID,
				RecipientID: rid,
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据ID获取pulse
func (r *PulseRepository) GetByID(id uint) (*model.Pulse, error) {
	var pulse model.Pulse
	if err := r.db.First(&pulse, id).Error; err != nil {
		return nil, err
	}
	return &pulse, nil
}

// GetRecipient 获取pulse的指定接收记录
func (r *PulseRepository) GetRecipient(pulseID, recipientID uint) (*model.PulseRecipient, error) {
	var rec model.PulseRecipient
	err := r.db.Where("pulse_id = ? AND recipient_id = ?", pulseID, recipientID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecipients 列出pulse的全部接收记录
func (r *PulseRepository) ListRecipients(pulseID uint) ([]*model.PulseRecipient, error) {
	var recs []*model.PulseRecipient
	err := r.db.Where("pulse_id = ?", pulseID).Find(&recs).Error
	return recs, err
}

// MarkSeen 标记接收记录为已读
// 条件更新仅命中seen_at为NULL的行：首次调用写入时间戳，重复调用不改动（单调，不可撤销）
// 返回本次是否实际写入
func (r *PulseRepository) MarkSeen(pulseID, recipientID uint, now time.Time) (bool, error) {
	result := r.db.Model(&model.PulseRecipient{}).
		Where("pulse_id = ? AND recipient_id = ? AND seen_at IS NULL", pulseID, recipientID).
		Update("seen_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountSeenFrom 统计recipient已读的、由sender发送的pulse数（响应率计算用）
func (r *PulseRepository) CountSeenFrom(recipientID, senderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.PulseRecipient{}).
		Joins("JOIN pulse ON pulse.id = pulse_recipient.pulse_id").
		Where("pulse_recipient.recipient_id = ? AND pulse.sender_id = ? AND pulse_recipient.seen_at IS NOT NULL",
			recipientID, senderID).
		Count(&count).Error
	return count, err
}

// ListSent 列出用户发送的pulse（分页）
func (r *PulseRepository) ListSent(senderID uint, limit, offset int) ([]*model.Pulse, error) {
	var pulses []*model.Pulse
	err := r.db.Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&pulses).Error
	return pulses, err
}

// ReceivedPulse 接收视角的pulse（带已读时间）
type ReceivedPulse struct {
	Pulse  *model.Pulse
	SeenAt *time.Time
}

// ListReceived 列出用户收到的pulse（分页，含已读状态）
func (r *PulseRepository) ListReceived(recipientID uint, limit, offset int) ([]*ReceivedPulse, error) {
	var recs []*model.PulseRecipient
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	result := make([]*ReceivedPulse, 0, len(recs))
	for _, rec := range recs {
		pulse, err := r.GetByID(rec.PulseID)
		if err != nil {
			continue
		}
		result = append(result, &ReceivedPulse{Pulse: pulse, SeenAt: rec.SeenAt})
	}
	return result, nil
}

// ---------- 反应 ----------

// GetReaction 获取用户对pulse的反应记录
func (r *PulseRepository) GetReaction(pulseID, userID uint) (*model.PulseReaction, error) {
	var reaction model.PulseReaction
	err := r.db.Where("pulse_id = ? AND user_id = ?", pulseID, userID).First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// CreateReaction 创建反应记录
func (r *PulseRepository) CreateReaction(reaction *model.PulseReaction) error {
	return r.db.Create(reaction).Error
}

// UpdateReactionType 更新反应类型（后写覆盖）
func (r *PulseRepository) UpdateReactionType(id uint, reactionType string) error {
	return r.db.Model(&model.PulseReaction{}).
		Where("id = ?", id).
		Update("reaction_type", reactionType).Error
}

// DeleteReaction 删除反应记录
func (r *PulseRepository) DeleteReaction(id uint) error {
	return r.db.Delete(&model.PulseReaction{}, id).Error
}

// ListReactions 列出pulse的全部反应
func (r *PulseRepository) ListReactions(pulseID uint) ([]*model.PulseReaction, error) {
	var reactions []*model.PulseReaction
	err := r.db.Where("pulse_id = ?", pulseID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

// CountReactionsByType 按类型统计pulse的反应数（读取时聚合，不维护冗余计数）
func (r *PulseRepository) CountReactionsByType(pulseID uint) (map[string]int64, error) {
	type row struct {
		ReactionType string
		Cnt          int64
	}
	var rows []row
	err := r.db.Model(&model.PulseReaction{}).
		Select("reaction_type, COUNT(*) as cnt").
		Where("pulse_id = ?", pulseID).
		Group("reaction_type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ReactionType] = r.Cnt
	}
	return counts, nil
}
