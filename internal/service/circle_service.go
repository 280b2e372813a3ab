package service

import (
	"errors"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"

	"gorm.io/gorm"
)

// CircleService 圈子业务逻辑
// 权限模型：改名/改隐私/解散/移除成员仅限圈主；退出对所有非圈主成员开放
// 圈主不可退出自己的圈子，只能解散
type CircleService struct {
	repo       *repository.CircleRepository
	friendRepo *repository.FriendshipRepository
	userRepo   *repository.UserRepository
	notifySvc  *NotificationService
	now        func() time.Time
}

// NewCircleService 创建CircleService实例
func NewCircleService(
	repo *repository.CircleRepository,
	friendRepo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	notifySvc *NotificationService,
) *CircleService {
	return &CircleService{
		repo:       repo,
		friendRepo: friendRepo,
		userRepo:   userRepo,
		notifySvc:  notifySvc,
		now:        time.Now,
	}
}

// Create 创建圈子（创建者自动入圈）
func (s *CircleService) Create(ownerID uint, name, privacyType string) (*model.Circle, error) {
	if name == "" {
		return nil, ErrInvalidCircle
	}
	if privacyType == "" {
		privacyType = model.CirclePrivacyPrivate
	}
	if privacyType != model.CirclePrivacyPrivate && privacyType != model.CirclePrivacyPublic {
		return nil, ErrInvalidCircle
	}

	circle := &model.Circle{
		OwnerID:     ownerID,
		Name:        name,
		PrivacyType: privacyType,
	}
	if err := s.repo.Create(circle); err != nil {
		return nil, err
	}
	return circle, nil
}

// Get 获取圈子（私有圈子仅成员可见）
func (s *CircleService) Get(circleID, userID uint) (*model.Circle, error) {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return nil, err
	}

	if circle.PrivacyType == model.CirclePrivacyPrivate {
		member, err := s.repo.IsMember(circleID, userID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotCircleMember
		}
	}
	return circle, nil
}

// Update 更新圈子名称/隐私类型（仅限圈主）
func (s *CircleService) Update(circleID, userID uint, name, privacyType string) (*model.Circle, error) {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != userID {
		return nil, ErrNotCircleOwner
	}
	if privacyType != "" &&
		privacyType != model.CirclePrivacyPrivate && privacyType != model.CirclePrivacyPublic {
		return nil, ErrInvalidCircle
	}

	if err := s.repo.Update(circleID, name, privacyType); err != nil {
		return nil, err
	}
	return s.repo.GetByID(circleID)
}

// Delete 解散圈子（仅限圈主）
func (s *CircleService) Delete(circleID, userID uint) error {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != userID {
		return ErrNotCircleOwner
	}
	return s.repo.Delete(circleID)
}

// Invite 圈主邀请好友入圈
// 被邀请者必须是圈主好友；直接入圈并向其发出circle_invite通知
func (s *CircleService) Invite(circleID, ownerID, inviteeID uint) error {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != ownerID {
		return ErrNotCircleOwner
	}

	if _, err := s.userRepo.GetByID(inviteeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	friends, err := s.friendRepo.AreFriends(ownerID, inviteeID)
	if err != nil {
		return err
	}
	if !friends {
		return ErrFriendshipNotFound
	}

	member, err := s.repo.IsMember(circleID, inviteeID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	if err := s.repo.AddMember(circleID, inviteeID, s.now()); err != nil {
		return err
	}

	s.notifySvc.NotifyCircleInvite(ownerID, inviteeID, circle)

	return nil
}

// Join 用户主动加入公开圈子
// 私有圈子只能通过圈主邀请进入；加入后向圈主发出circle_joined高优先级通知
func (s *CircleService) Join(circleID, userID uint) error {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return err
	}
	if circle.PrivacyType != model.CirclePrivacyPublic {
		return ErrPermissionDenied
	}

	member, err := s.repo.IsMember(circleID, userID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	if err := s.repo.AddMember(circleID, userID, s.now()); err != nil {
		return err
	}

	s.notifySvc.NotifyCircleJoined(userID, circle)

	return nil
}

// Leave 退出圈子（圈主不可退出，只能解散）
func (s *CircleService) Leave(circleID, userID uint) error {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID == userID {
		return ErrPermissionDenied
	}

	if err := s.repo.RemoveMember(circleID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotCircleMember
		}
		return err
	}
	return nil
}

// RemoveMember 移除成员（仅限圈主，不能移除自己）
func (s *CircleService) RemoveMember(circleID, ownerID, memberID uint) error {
	circle, err := s.getCircle(circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != ownerID {
		return ErrNotCircleOwner
	}
	if memberID == ownerID {
		return ErrPermissionDenied
	}

	if err := s.repo.RemoveMember(circleID, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotCircleMember
		}
		return err
	}
	return nil
}

// ListMembers 列出圈子成员（仅限成员查看，带资料）
func (s *CircleService) ListMembers(circleID, userID uint) ([]*CircleMemberInfo, error) {
	if _, err := s.getCircle(circleID); err != nil {
		return nil, err
	}

	member, err := s.repo.IsMember(circleID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotCircleMember
	}

	records, err := s.repo.ListMembers(circleID)
	if err != nil {
		return nil, err
	}

	result := make([]*CircleMemberInfo, 0, len(records))
	for _, rec := range records {
		user, err := s.userRepo.GetByID(rec.UserID)
		if err != nil {
			continue
		}
		result = append(result, &CircleMemberInfo{User: user, JoinedAt: rec.JoinedAt})
	}
	return result, nil
}

// CircleMemberInfo 成员视图（资料+加入时间）
type CircleMemberInfo struct {
	User     *model.User `json:"user"`
	JoinedAt time.Time   `json:"joined_at"`
}

// ListOwned 列出用户创建的圈子
func (s *CircleService) ListOwned(userID uint) ([]*model.Circle, error) {
	return s.repo.ListOwned(userID)
}

// ListJoined 列出用户加入的全部圈子（含自建）
func (s *CircleService) ListJoined(userID uint) ([]*model.Circle, error) {
	return s.repo.ListJoined(userID)
}

func (s *CircleService) getCircle(circleID uint) (*model.Circle, error) {
	circle, err := s.repo.GetByID(circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, err
	}
	return circle, nil
}

// SetClock 替换时钟（测试用）
func (s *CircleService) SetClock(now func() time.Time) {
	s.now = now
}
