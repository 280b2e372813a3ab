package repository

import (
	"time"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// CircleRepository 圈子数据仓储
type CircleRepository struct {
	db *gorm.DB
}

// NewCircleRepository 创建CircleRepository实例
func NewCircleRepository(db *gorm.DB) *CircleRepository {
	return &CircleRepository{db: db}
}

// Create 创建圈子：创建者自动成为首个成员，members_count同事务置1
func (r *CircleRepository) Create(circle *model.Circle) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		circle.MembersCount = 1
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		member := &model.CircleMember{
			CircleID: circle.ID,
			UserID:   circle.OwnerID,
			JoinedAt: time.Now(),
		}
		return tx.Create(member).Error
	})
}

// GetByID 根据ID获取圈子
func (r *CircleRepository) GetByID(id uint) (*model.Circle, error) {
	var circle model.Circle
	if err := r.db.First(&circle, id).Error; err != nil {
		return nil, err
	}
	return &circle, nil
}

// Update 更新圈子名称/隐私类型
func (r *CircleRepository) Update(id uint, name, privacyType string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if privacyType != "" {
		updates["privacy_type"] = privacyType
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&model.Circle{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除圈子及其成员记录
func (r *CircleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("circle_id = ?", id).Delete(&model.CircleMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Circle{}, id).Error
	})
}

// AddMember 添加成员：成员行与members_count在同一事务内变更，保证计数与存活行数一致
func (r *CircleRepository) AddMember(circleID, userID uint, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		member := &model.CircleMember{
			CircleID: circleID,
			UserID:   userID,
			JoinedAt: now,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		return tx.Model(&model.Circle{}).
			Where("id = ?", circleID).
			Update("members_count", gorm.Expr("members_count + 1")).Error
	})
}

// RemoveMember 移除成员：与计数递减同事务
func (r *CircleRepository) RemoveMember(circleID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("circle_id = ? AND user_id = ?", circleID, userID).
			Delete(&model.CircleMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.Circle{}).
			Where("id = ?", circleID).
			Update("members_count", gorm.Expr("members_count - 1")).Error
	})
}

// IsMember 判断用户是否为圈子成员
func (r *CircleRepository) IsMember(circleID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.CircleMember{}).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Count(&count).Error
	return count > 0, err
}

// MemberIDs 获取圈子当前全部成员ID（发送pulse时的快照来源）
func (r *CircleRepository) MemberIDs(circleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.CircleMember{}).
		Where("circle_id = ?", circleID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListMembers 列出圈子成员记录
func (r *CircleRepository) ListMembers(circleID uint) ([]*model.CircleMember, error) {
	var members []*model.CircleMember
	err := r.db.Where("circle_id = ?", circleID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// ListOwned 列出用户创建的圈子
func (r *CircleRepository) ListOwned(ownerID uint) ([]*model.Circle, error) {
	var circles []*model.Circle
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&circles).Error
	return circles, err
}

// ListJoined 列出用户加入的全部圈子（含自建）
func (r *CircleRepository) ListJoined(userID uint) ([]*model.Circle, error) {
	var circles []*model.Circle
	err := r.db.
		Joins("JOIN circle_member ON circle_member.circle_id = circle.id").
		Where("circle_member.user_id = ?", userID).
		Order("circle.created_at DESC").
		Find(&circles).Error
	return circles, err
}

// IncrementPulses 圈子pulse计数+1
func (r *CircleRepository) IncrementPulses(circleID uint) error {
	return r.db.Model(&model.Circle{}).
		Where("id = ?", circleID).
		Update("pulses_count", gorm.Expr("pulses_count + 1")).Error
}
