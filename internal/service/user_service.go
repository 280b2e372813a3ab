package service

import (
	"errors"

	"pulse/internal/model"
	"pulse/internal/repository"
	"pulse/pkg/jwt"
	"pulse/pkg/password"
	"pulse/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 用户业务逻辑
// 注册→OTP验证→登录的串行流程：未验证账户不能登录
// OTP为NULL即视为已验证，是唯一判定条件
type UserService struct {
	repo   *repository.UserRepository
	jwtSvc *jwt.JWTService
	log    *zap.Logger
}

// NewUserService 创建UserService实例
func NewUserService(repo *repository.UserRepository, jwtSvc *jwt.JWTService, log *zap.Logger) *UserService {
	return &UserService{repo: repo, jwtSvc: jwtSvc, log: log}
}

// Register 注册新用户
// 手机号/邮箱冲突返回ErrDuplicateUser；成功后生成OTP待验证
// OTP应经短信/邮件通道下发，这里仅记录日志（通道对接见handler层注释）
func (s *UserService) Register(name, phone, email, plainPassword string) (*model.User, error) {
	if name == "" || phone == "" || plainPassword == "" {
		return nil, ErrInvalidUser
	}

	if _, err := s.repo.GetByPhoneOrEmail(phone); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if email != "" {
		if _, err := s.repo.GetByPhoneOrEmail(email); err == nil {
			return nil, ErrDuplicateUser
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	otp, err := password.GenerateOTP()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		OTP:          &otp,
		Status:       "offline",
	}
	// 邮箱可不填，存NULL以免空串撞唯一索引
	if email != "" {
		user.Email = &email
	}
	if err := s.repo.Create(user); err != nil {
		// 并发注册撞唯一索引时与预检同样归为重复用户
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.log.Info("用户注册成功，待OTP验证",
		zap.Uint("user_id", user.ID),
		zap.String("phone", phone),
	)

	return user, nil
}

// VerifyOTP 校验验证码
// 成功后清除OTP（账户转为已验证）并签发令牌
func (s *UserService) VerifyOTP(identifier, otp string) (string, *model.User, error) {
	user, err := s.getByIdentifier(identifier)
	if err != nil {
		return "", nil, err
	}

	if user.IsVerified() {
		// 已验证账户重复提交OTP按无效处理
		return "", nil, ErrInvalidOTP
	}
	if otp == "" || *user.OTP != otp {
		return "", nil, ErrInvalidOTP
	}

	if err := s.repo.ClearOTP(user.ID); err != nil {
		return "", nil, err
	}
	user.OTP = nil

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login 密码登录（仅限已验证账户）
// 身份不存在与密码错误统一返回ErrInvalidPassword，不泄露账户存在性
func (s *UserService) Login(identifier, plainPassword string) (string, *model.User, error) {
	user, err := s.getByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidPassword
		}
		return "", nil, err
	}

	if !password.Verify(plainPassword, user.PasswordHash) {
		return "", nil, ErrInvalidPassword
	}
	if !user.IsVerified() {
		return "", nil, ErrNotVerified
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	_ = s.repo.UpdateStatus(user.ID, "online")

	return token, user, nil
}

// Logout 登出：状态置离线并更新在线缓存
func (s *UserService) Logout(userID uint) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(userID, "offline"); err != nil {
		return err
	}
	_ = redis.SetUserPresence(userID, user.Name, "offline")
	return nil
}

// GetByID 获取用户资料
func (s *UserService) GetByID(id uint) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile 更新用户资料（名称/头像）
// 通知中的触发者字段是创建时刻快照，历史通知不受本次修改影响
func (s *UserService) UpdateProfile(id uint, name, avatar string) (*model.User, error) {
	if err := s.repo.UpdateProfile(id, name, avatar); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Search 按手机号精确或名称前缀搜索用户
func (s *UserService) Search(keyword string) ([]*model.User, error) {
	if keyword == "" {
		return nil, nil
	}
	return s.repo.Search(keyword, 20)
}

func (s *UserService) getByIdentifier(identifier string) (*model.User, error) {
	user, err := s.repo.GetByPhoneOrEmail(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) issueToken(user *model.User) (string, error) {
	return s.jwtSvc.GenerateUserToken(user.ID, user.Name)
}
