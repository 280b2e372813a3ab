package repository

import (
	"errors"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// PushSubscriptionRepository 推送订阅数据仓储
type PushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository 创建PushSubscriptionRepository实例
func NewPushSubscriptionRepository(db *gorm.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert 按endpoint更新或插入订阅
// 同一浏览器重新订阅会产生相同endpoint，直接覆盖keys并重新归属用户
func (r *PushSubscriptionRepository) Upsert(sub *model.PushSubscription) error {
	var existing model.PushSubscription
	err := r.db.Where("endpoint = ?", sub.Endpoint).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(sub).Error
		}
		return err
	}

	return r.db.Model(&existing).Updates(map[string]interface{}{
		"user_id": sub.UserID,
		"p256dh":  sub.P256dh,
		"auth":    sub.Auth,
	}).Error
}

// DeleteByEndpoint 根据endpoint删除订阅（用户主动退订）
func (r *PushSubscriptionRepository) DeleteByEndpoint(userID uint, endpoint string) error {
	result := r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&model.PushSubscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByID 根据ID删除订阅（推送服务报告订阅失效时使用）
func (r *PushSubscriptionRepository) DeleteByID(id uint) error {
	return r.db.Delete(&model.PushSubscription{}, id).Error
}

// ListForUser 列出用户的全部订阅
func (r *PushSubscriptionRepository) ListForUser(userID uint) ([]*model.PushSubscription, error) {
	var subs []*model.PushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// HasSubscription 判断用户是否存在任一订阅
func (r *PushSubscriptionRepository) HasSubscription(userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.PushSubscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}
