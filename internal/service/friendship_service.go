package service

import (
	"errors"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"

	"gorm.io/gorm"
)

// FriendshipService 好友关系业务逻辑
// 请求生命周期：pending → accepted/rejected，均为终态
// 接受请求时由仓储层在单事务内成对创建双向边与统计行
type FriendshipService struct {
	repo      *repository.FriendshipRepository
	userRepo  *repository.UserRepository
	notifySvc *NotificationService
	now       func() time.Time
}

// NewFriendshipService 创建FriendshipService实例
func NewFriendshipService(
	repo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	notifySvc *NotificationService,
) *FriendshipService {
	return &FriendshipService{
		repo:      repo,
		userRepo:  userRepo,
		notifySvc: notifySvc,
		now:       time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *FriendshipService) SetClock(now func() time.Time) {
	s.now = now
}

// SendRequest 发送好友请求
// 拒绝：发给自己 / 接收者不存在 / 双方已是好友 / 任一方向已有pending请求
// 历史上被拒绝或已接受的旧请求不阻止新请求
func (s *FriendshipService) SendRequest(senderID, receiverID uint) (*model.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	if _, err := s.userRepo.GetByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	already, err := s.repo.AreFriends(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyFriends
	}

	// 两个方向任一存在pending都视为重复
	if _, err := s.repo.GetPendingRequest(senderID, receiverID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetPendingRequest(receiverID, senderID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req := &model.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.RequestStatusPending,
	}
	if err := s.repo.CreateRequest(req); err != nil {
		return nil, err
	}

	s.notifySvc.NotifyFriendRequest(senderID, receiverID, req.ID)

	return req, nil
}

// AcceptRequest 接受好友请求（仅限接收者）
// 返回alreadyFriends=true表示该对用户已是好友，本次调用为无害no-op
func (s *FriendshipService) AcceptRequest(requestID, userID uint) (alreadyFriends bool, err error) {
	req, err := s.getRequest(requestID)
	if err != nil {
		return false, err
	}
	if req.ReceiverID != userID {
		return false, ErrPermissionDenied
	}

	switch req.Status {
	case model.RequestStatusAccepted:
		return true, nil
	case model.RequestStatusRejected:
		return false, ErrRequestNotFound
	}

	// 对向请求先被接受的竞态兜底
	already, err := s.repo.AreFriends(req.SenderID, req.ReceiverID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	if err := s.repo.AcceptRequest(req, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRequestNotFound
		}
		return false, err
	}

	s.notifySvc.NotifyFriendAccepted(req.ReceiverID, req.SenderID, req.ID)

	return false, nil
}

// RejectRequest 拒绝好友请求（仅限接收者）
func (s *FriendshipService) RejectRequest(requestID, userID uint) error {
	req, err := s.getRequest(requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != userID {
		return ErrPermissionDenied
	}
	if req.Status != model.RequestStatusPending {
		return ErrRequestNotFound
	}

	return s.repo.RejectRequest(requestID, s.now())
}

// ListPending 列出发给用户的pending好友请求（带发起者资料）
func (s *FriendshipService) ListPending(userID uint) ([]*PendingRequest, error) {
	reqs, err := s.repo.ListPendingForReceiver(userID)
	if err != nil {
		return nil, err
	}

	result := make([]*PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		sender, err := s.userRepo.GetByID(req.SenderID)
		if err != nil {
			continue
		}
		result = append(result, &PendingRequest{Request: req, Sender: sender})
	}
	return result, nil
}

// PendingRequest 待处理请求（带发起者资料）
type PendingRequest struct {
	Request *model.FriendRequest `json:"request"`
	Sender  *model.User          `json:"sender"`
}

// IsFriendWith 判断两个用户是否为好友
func (s *FriendshipService) IsFriendWith(userID, friendID uint) (bool, error) {
	return s.repo.AreFriends(userID, friendID)
}

// ListFriends 列出用户好友（带资料与互动统计，排除已拉黑）
func (s *FriendshipService) ListFriends(userID uint) ([]*FriendInfo, error) {
	edges, err := s.repo.ListFriends(userID)
	if err != nil {
		return nil, err
	}

	result := make([]*FriendInfo, 0, len(edges))
	for _, edge := range edges {
		friend, err := s.userRepo.GetByID(edge.FriendID)
		if err != nil {
			continue
		}
		info := &FriendInfo{
			Friend: friend,
			Since:  edge.FriendshipStartedAt,
		}
		if stat, err := s.repo.GetStat(userID, edge.FriendID); err == nil {
			info.Stat = stat
		}
		result = append(result, info)
	}
	return result, nil
}

// FriendInfo 好友视图（资料+关系起点+互动统计）
type FriendInfo struct {
	Friend *model.User           `json:"friend"`
	Since  time.Time             `json:"since"`
	Stat   *model.FriendshipStat `json:"stat,omitempty"`
}

// GetStat 获取user→friend方向的互动统计
func (s *FriendshipService) GetStat(userID, friendID uint) (*model.FriendshipStat, error) {
	stat, err := s.repo.GetStat(userID, friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	return stat, nil
}

// Block 拉黑好友（单向：仅本方向边标记，对方视角不受影响）
func (s *FriendshipService) Block(userID, friendID uint) error {
	if err := s.repo.Block(userID, friendID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return err
	}
	return nil
}

func (s *FriendshipService) getRequest(requestID uint) (*model.FriendRequest, error) {
	req, err := s.repo.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}
