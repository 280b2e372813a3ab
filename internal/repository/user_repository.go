package repository

import (
	"time"

	"pulse/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户数据仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建UserRepository实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// GetByID 根据ID获取用户
func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var u model.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs 批量获取用户
func (r *UserRepository) GetByIDs(ids []uint) ([]*model.User, error) {
	var users []*model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// GetByPhoneOrEmail 根据手机号或邮箱获取用户
func (r *UserRepository) GetByPhoneOrEmail(identifier string) (*model.User, error) {
	var u model.User
	if err := r.db.Where("phone = ? OR email = ?", identifier, identifier).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateStatus 更新用户在线状态
func (r *UserRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "last_seen": time.Now()}).Error
}

// UpdateProfile 更新用户资料（名称/头像）
func (r *UserRepository) UpdateProfile(id uint, name, avatar string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}

// SetOTP 写入验证码
func (r *UserRepository) SetOTP(id uint, otp string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("otp", otp).Error
}

// ClearOTP 清除验证码（置NULL即视为已验证）
func (r *UserRepository) ClearOTP(id uint) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("otp", nil).Error
}

// Search 按手机号精确或名称前缀搜索用户
func (r *UserRepository) Search(keyword string, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Where("phone = ? OR name LIKE ?", keyword, keyword+"%").
		Limit(limit).
		Find(&users).Error
	return users, err
}
