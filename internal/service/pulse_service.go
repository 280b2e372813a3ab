package service

import (
	"errors"
	"sort"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"

	"gorm.io/gorm"
)

// PulseService pulse业务逻辑
// 发送解析规则：
//   - direct：接收者为显式用户列表，逐个校验好友关系，无效者静默剔除
//   - circle：接收者为发送时刻的圈子成员快照（去除发送者本人）
//
// 两种类型剔除后接收者为空都拒绝发送
type PulseService struct {
	repo       *repository.PulseRepository
	friendRepo *repository.FriendshipRepository
	circleRepo *repository.CircleRepository
	userRepo   *repository.UserRepository
	notifySvc  *NotificationService
	now        func() time.Time
}

// NewPulseService 创建PulseService实例
func NewPulseService(
	repo *repository.PulseRepository,
	friendRepo *repository.FriendshipRepository,
	circleRepo *repository.CircleRepository,
	userRepo *repository.UserRepository,
	notifySvc *NotificationService,
) *PulseService {
	return &PulseService{
		repo:       repo,
		friendRepo: friendRepo,
		circleRepo: circleRepo,
		userRepo:   userRepo,
		notifySvc:  notifySvc,
		now:        time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *PulseService) SetClock(now func() time.Time) {
	s.now = now
}

// SendDirect 定向发送pulse
// 接收者列表去重后逐个校验：必须是发送者好友且未被发送者拉黑，否则剔除
// 发送者本人出现在列表中同样剔除
func (s *PulseService) SendDirect(senderID uint, message string, recipientIDs []uint) (*model.Pulse, error) {
	if message == "" {
		return nil, ErrInvalidPulse
	}

	seen := make(map[uint]bool, len(recipientIDs))
	valid := make([]uint, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		if rid == senderID || seen[rid] {
			continue
		}
		seen[rid] = true

		edge, err := s.friendRepo.GetEdge(senderID, rid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if edge.IsBlocked {
			continue
		}
		valid = append(valid, rid)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyRecipients
	}

	pulse := &model.Pulse{
		SenderID: senderID,
		Type:     model.PulseTypeDirect,
		Message:  message,
	}
	if err := s.repo.CreateWithRecipients(pulse, valid); err != nil {
		return nil, err
	}

	s.fanout(pulse, valid)

	return pulse, nil
}

// SendToCircle 向圈子广播pulse（仅限成员）
// 接收者为调用时刻的成员快照去除发送者本人；之后的成员变动不影响本条pulse
func (s *PulseService) SendToCircle(senderID, circleID uint, message string) (*model.Pulse, error) {
	if message == "" {
		return nil, ErrInvalidPulse
	}

	if _, err := s.circleRepo.GetByID(circleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, err
	}

	member, err := s.circleRepo.IsMember(circleID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotCircleMember
	}

	memberIDs, err := s.circleRepo.MemberIDs(circleID)
	if err != nil {
		return nil, err
	}
	recipients := make([]uint, 0, len(memberIDs))
	for _, mid := range memberIDs {
		if mid != senderID {
			recipients = append(recipients, mid)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrEmptyRecipients
	}

	pulse := &model.Pulse{
		SenderID: senderID,
		Type:     model.PulseTypeCircle,
		CircleID: &circleID,
		Message:  message,
	}
	if err := s.repo.CreateWithRecipients(pulse, recipients); err != nil {
		return nil, err
	}

	// 圈子计数独立于pulse事务，失败不影响已发送的pulse
	_ = s.circleRepo.IncrementPulses(circleID)

	s.fanout(pulse, recipients)

	return pulse, nil
}

// fanout 发送后处理：逐接收者更新互动统计并投递通知
// 统计仅对好友对生效（圈子内非好友成员静默跳过），通知对全部接收者投递
func (s *PulseService) fanout(pulse *model.Pulse, recipientIDs []uint) {
	now := s.now()
	for _, rid := range recipientIDs {
		_ = s.friendRepo.RecordPulseSent(pulse.SenderID, rid, now)
		s.notifySvc.NotifyPulseReceived(pulse.SenderID, rid, pulse)
	}
}

// Get 获取pulse（仅发送者与接收者可见）
func (s *PulseService) Get(pulseID, userID uint) (*model.Pulse, error) {
	pulse, err := s.getPulse(pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.SenderID == userID {
		return pulse, nil
	}
	if _, err := s.repo.GetRecipient(pulseID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRecipient
		}
		return nil, err
	}
	return pulse, nil
}

// MarkSeen 接收者标记pulse为已读
// 首次标记写入时间戳并重算对发送者的响应统计；重复标记为无害no-op
// 返回本次是否实际写入
func (s *PulseService) MarkSeen(pulseID, userID uint) (bool, error) {
	pulse, err := s.getPulse(pulseID)
	if err != nil {
		return false, err
	}

	if _, err := s.repo.GetRecipient(pulseID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotRecipient
		}
		return false, err
	}

	now := s.now()
	wrote, err := s.repo.MarkSeen(pulseID, userID, now)
	if err != nil {
		return false, err
	}
	if !wrote {
		return false, nil
	}

	// 响应率与连续天数重算；统计行不存在（非好友）时内部跳过
	seenCount, err := s.repo.CountSeenFrom(userID, pulse.SenderID)
	if err == nil {
		_ = s.friendRepo.UpdateStatOnSeen(userID, pulse.SenderID, seenCount, now)
	}

	return true, nil
}

// ListRecipients 发送者查看pulse的接收与已读情况
func (s *PulseService) ListRecipients(pulseID, userID uint) ([]*model.PulseRecipient, error) {
	pulse, err := s.getPulse(pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.SenderID != userID {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListRecipients(pulseID)
}

// ListSent 列出用户发送的pulse（分页）
func (s *PulseService) ListSent(userID uint, page, pageSize int) ([]*model.Pulse, error) {
	limit, offset := normalizePage(page, pageSize)
	return s.repo.ListSent(userID, limit, offset)
}

// ListReceived 列出用户收到的pulse（分页，含已读状态）
func (s *PulseService) ListReceived(userID uint, page, pageSize int) ([]*repository.ReceivedPulse, error) {
	limit, offset := normalizePage(page, pageSize)
	return s.repo.ListReceived(userID, limit, offset)
}

// ---------- 反应 ----------

// ToggleResult 反应切换结果
const (
	ReactionAdded   = "added"
	ReactionChanged = "changed"
	ReactionRemoved = "removed"
)

// ToggleReaction 切换用户对pulse的反应
// 语义：无反应→添加；同类型已存在→移除；不同类型已存在→覆盖
// 仅发送者与接收者可反应；添加/覆盖时通知pulse发送者（本人除外）
func (s *PulseService) ToggleReaction(pulseID, userID uint, reactionType string) (string, error) {
	if !model.IsValidReaction(reactionType) {
		return "", ErrInvalidReaction
	}

	pulse, err := s.Get(pulseID, userID)
	if err != nil {
		return "", err
	}

	existing, err := s.repo.GetReaction(pulseID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		reaction := &model.PulseReaction{
			PulseID:      pulseID,
			UserID:       userID,
			ReactionType: reactionType,
		}
		if err := s.repo.CreateReaction(reaction); err != nil {
			return "", err
		}
		s.notifySvc.NotifyReaction(userID, pulse, reactionType)
		return ReactionAdded, nil
	}

	if existing.ReactionType == reactionType {
		if err := s.repo.DeleteReaction(existing.ID); err != nil {
			return "", err
		}
		return ReactionRemoved, nil
	}

	if err := s.repo.UpdateReactionType(existing.ID, reactionType); err != nil {
		return "", err
	}
	s.notifySvc.NotifyReaction(userID, pulse, reactionType)
	return ReactionChanged, nil
}

// ReactionCount 单个反应类型的计数
type ReactionCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// ReactionsSummary 汇总pulse的反应计数
// 排序：计数降序；计数相同时按反应类型的枚举声明顺序
func (s *PulseService) ReactionsSummary(pulseID, userID uint) ([]*ReactionCount, error) {
	if _, err := s.Get(pulseID, userID); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountReactionsByType(pulseID)
	if err != nil {
		return nil, err
	}

	result := make([]*ReactionCount, 0, len(counts))
	for t, c := range counts {
		result = append(result, &ReactionCount{Type: t, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return model.ReactionOrder(result[i].Type) < model.ReactionOrder(result[j].Type)
	})
	return result, nil
}

// ListReactions 列出pulse的全部反应明细
func (s *PulseService) ListReactions(pulseID, userID uint) ([]*model.PulseReaction, error) {
	if _, err := s.Get(pulseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListReactions(pulseID)
}

func (s *PulseService) getPulse(pulseID uint) (*model.Pulse, error) {
	pulse, err := s.repo.GetByID(pulseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPulseNotFound
		}
		return nil, err
	}
	return pulse, nil
}

func normalizePage(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
