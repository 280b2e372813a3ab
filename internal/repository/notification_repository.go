package repository

import (
	"time"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据仓储
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建NotificationRepository实例
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建通知
func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// GetByID 根据ID获取通知
func (r *NotificationRepository) GetByID(id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser 列出用户的通知（可仅未读，分页）
func (r *NotificationRepository) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]*model.Notification, error) {
	var list []*model.Notification
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	return list, err
}

// MarkRead 标记通知为已读：read_at与is_read同步写入，保证两者一致
// 条件更新仅命中未读行，重复标记是无害的no-op
func (r *NotificationRepository) MarkRead(id, userID uint, now time.Time) (bool, error) {
	result := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkAllRead 标记用户全部通知为已读，返回影响行数
func (r *NotificationRepository) MarkAllRead(userID uint, now time.Time) (int64, error) {
	result := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

// Delete 删除通知（仅限本人）
func (r *NotificationRepository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearRead 删除用户全部已读通知
func (r *NotificationRepository) ClearRead(userID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND is_read = ?", userID, true).Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}

// CleanupOld 删除早于截止时间的已读通知（未读通知无论多旧都保留）
func (r *NotificationRepository) CleanupOld(before time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND created_at < ?", true, before).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}

// CountUnread 统计用户未读通知数
func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// UserStats 用户通知统计
type UserStats struct {
	Total        int64            `json:"total"`
	Unread       int64            `json:"unread"`
	Today        int64            `json:"today"`
	ThisWeek     int64            `json:"this_week"`
	HighPriority int64            `json:"high_priority"`
	ByType       map[string]int64 `json:"by_type"`
}

// GetUserStats 统计用户通知概况
// 各项为相互独立的只读聚合查询，不做缓存，始终反映当前状态
func (r *NotificationRepository) GetUserStats(userID uint, now time.Time) (*UserStats, error) {
	stats := &UserStats{ByType: make(map[string]int64)}

	base := func() *gorm.DB {
		return r.db.Model(&model.Notification{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_read = ?", false).Count(&stats.Unread).Error; err != nil {
		return nil, err
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := base().Where("created_at >= ?", todayStart).Count(&stats.Today).Error; err != nil {
		return nil, err
	}

	weekStart := todayStart.AddDate(0, 0, -int(now.Weekday()))
	if err := base().Where("created_at >= ?", weekStart).Count(&stats.ThisWeek).Error; err != nil {
		return nil, err
	}

	if err := base().Where("priority = ?", model.PriorityHigh).Count(&stats.HighPriority).Error; err != nil {
		return nil, err
	}

	type typeRow struct {
		Type string
		Cnt  int64
	}
	var rows []typeRow
	err := base().Select("type, COUNT(*) as cnt").Group("type").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByType[row.Type] = row.Cnt
	}

	return stats, nil
}
