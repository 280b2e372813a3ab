package service

import (
	"encoding/json"
	"fmt"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"
	"pulse/pkg/redis"
	"pulse/pkg/websocket"
	"pulse/pkg/webpush"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// NotificationService 通知扇出服务
// 纯转换层：领域事件 → 通知行 → (尽力而为的)推送投递
// 统一规则：
//   - 不给触发者本人发通知
//   - 通知携带触发者展示字段的创建时刻快照，之后不再回查
//   - 创建失败只记日志并吞掉，绝不中断触发动作
//
// 时钟与日志通过构造注入，不依赖包级全局状态
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	subsRepo *repository.PushSubscriptionRepository
	sender   *webpush.Sender
	log      *zap.Logger
	now      func() time.Time
}

// NewNotificationService 创建NotificationService实例
func NewNotificationService(
	repo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	subsRepo *repository.PushSubscriptionRepository,
	sender *webpush.Sender,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		subsRepo: subsRepo,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *NotificationService) SetClock(now func() time.Time) {
	s.now = now
}

// ---------- 扇出入口 ----------

// NotifyPulseReceived pulse送达通知（每个接收者一条，不合并）
func (s *NotificationService) NotifyPulseReceived(senderID, recipientID uint, pulse *model.Pulse) {
	preview := pulse.Message
	if len([]rune(preview)) > 60 {
		preview = string([]rune(preview)[:60]) + "…"
	}
	s.deliver(fanoutEvent{
		actorID:     senderID,
		recipientID: recipientID,
		typ:         model.NotificationTypePulse,
		relatedKind: model.RelatedKindPulse,
		relatedID:   pulse.ID,
		priority:    model.PriorityNormal,
		title:       "新的pulse",
		bodyFmt:     "%s 给你发来了pulse：" + preview,
		url:         fmt.Sprintf("/pulses/%d", pulse.ID),
		data:        map[string]interface{}{"pulse_id": pulse.ID, "pulse_type": pulse.Type},
	})
}

// NotifyReaction 反应通知（发给pulse发送者，本人反应自己的pulse时抑制）
func (s *NotificationService) NotifyReaction(reactorID uint, pulse *model.Pulse, reactionType string) {
	s.deliver(fanoutEvent{
		actorID:     reactorID,
		recipientID: pulse.SenderID,
		typ:         model.NotificationTypeReaction,
		relatedKind: model.RelatedKindPulse,
		relatedID:   pulse.ID,
		priority:    model.PriorityNormal,
		title:       "收到反应",
		bodyFmt:     "%s 对你的pulse做出了反应",
		url:         fmt.Sprintf("/pulses/%d", pulse.ID),
		data:        map[string]interface{}{"pulse_id": pulse.ID, "reaction_type": reactionType},
	})
}

// NotifyFriendRequest 好友请求通知
func (s *NotificationService) NotifyFriendRequest(senderID, receiverID, requestID uint) {
	s.deliver(fanoutEvent{
		actorID:     senderID,
		recipientID: receiverID,
		typ:         model.NotificationTypeFriendRequest,
		relatedKind: model.RelatedKindFriendRequest,
		relatedID:   requestID,
		priority:    model.PriorityNormal,
		title:       "好友请求",
		bodyFmt:     "%s 想添加你为好友",
		url:         "/friends/requests",
		data:        map[string]interface{}{"request_id": requestID},
	})
}

// NotifyFriendAccepted 好友接受通知（高优先级）
func (s *NotificationService) NotifyFriendAccepted(accepterID, requesterID, requestID uint) {
	s.deliver(fanoutEvent{
		actorID:     accepterID,
		recipientID: requesterID,
		typ:         model.NotificationTypeFriendAccept,
		relatedKind: model.RelatedKindUser,
		relatedID:   accepterID,
		priority:    model.PriorityHigh,
		title:       "好友请求已接受",
		bodyFmt:     "%s 接受了你的好友请求",
		url:         "/friends",
		data:        map[string]interface{}{"request_id": requestID},
	})
}

// NotifyCircleInvite 圈子邀请通知
func (s *NotificationService) NotifyCircleInvite(inviterID, inviteeID uint, circle *model.Circle) {
	s.deliver(fanoutEvent{
		actorID:     inviterID,
		recipientID: inviteeID,
		typ:         model.NotificationTypeCircleInvite,
		relatedKind: model.RelatedKindCircle,
		relatedID:   circle.ID,
		priority:    model.PriorityNormal,
		title:       "圈子邀请",
		bodyFmt:     "%s 邀请你加入圈子「" + circle.Name + "」",
		url:         fmt.Sprintf("/circles/%d", circle.ID),
		data:        map[string]interface{}{"circle_id": circle.ID},
	})
}

// NotifyCircleJoined 成员加入通知（发给圈主，高优先级）
func (s *NotificationService) NotifyCircleJoined(joinerID uint, circle *model.Circle) {
	s.deliver(fanoutEvent{
		actorID:     joinerID,
		recipientID: circle.OwnerID,
		typ:         model.NotificationTypeCircleJoined,
		relatedKind: model.RelatedKindCircle,
		relatedID:   circle.ID,
		priority:    model.PriorityHigh,
		title:       "新成员加入",
		bodyFmt:     "%s 加入了圈子「" + circle.Name + "」",
		url:         fmt.Sprintf("/circles/%d", circle.ID),
		data:        map[string]interface{}{"circle_id": circle.ID},
	})
}

// fanoutEvent 一次扇出的内部描述
type fanoutEvent struct {
	actorID     uint
	recipientID uint
	typ         string
	relatedKind string
	relatedID   uint
	priority    string
	title       string
	bodyFmt     string // 含一个%s占位符(触发者名称)
	url         string
	data        map[string]interface{}
}

// deliver 执行单条扇出：落库 + 实时事件 + 推送入队
// 任何失败仅记日志，调用方的领域动作不受影响
func (s *NotificationService) deliver(ev fanoutEvent) {
	// 不给触发者本人发通知
	if ev.actorID == ev.recipientID {
		return
	}

	// 触发者快照（名称/头像），创建后不再回查
	actor, err := s.userRepo.GetByID(ev.actorID)
	if err != nil {
		s.log.Warn("通知扇出失败：触发者不存在",
			zap.Uint("actor_id", ev.actorID),
			zap.String("type", ev.typ),
			zap.Error(err),
		)
		return
	}

	dataJSON, err := json.Marshal(ev.data)
	if err != nil {
		s.log.Warn("通知扇出失败：数据序列化错误", zap.Error(err))
		return
	}

	fromID := ev.actorID
	n := &model.Notification{
		UserID:      ev.recipientID,
		FromUserID:  &fromID,
		Type:        ev.typ,
		ActorName:   actor.Name,
		ActorAvatar: actor.Avatar,
		RelatedKind: ev.relatedKind,
		RelatedID:   ev.relatedID,
		Data:        datatypes.JSON(dataJSON),
		Priority:    ev.priority,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(n); err != nil {
		s.log.Warn("通知创建失败",
			zap.Uint("user_id", ev.recipientID),
			zap.String("type", ev.typ),
			zap.Error(err),
		)
		return
	}

	// 未读计数缓存+1（缓存不可用时静默降级）
	_ = redis.IncrementUnreadCount(ev.recipientID)

	// 实时通道：在线直推，离线落缓冲
	s.emitRealtime(n)

	// Web Push入队（异步边界，失败不回传）
	s.enqueuePush(n, ev, actor)
}

// emitRealtime 通过WebSocket推送实时通知事件
func (s *NotificationService) emitRealtime(n *model.Notification) {
	event, err := json.Marshal(map[string]interface{}{
		"type":         "notification",
		"notification": n,
	})
	if err != nil {
		return
	}
	websocket.GetManager().SendToUser(n.UserID, event)
}

// enqueuePush 构造完整推送载荷并入队
func (s *NotificationService) enqueuePush(n *model.Notification, ev fanoutEvent, actor *model.User) {
	if s.sender == nil || !s.sender.Enabled() {
		return
	}

	// 无订阅的用户直接跳过，避免无谓的队列流量
	has, err := s.subsRepo.HasSubscription(ev.recipientID)
	if err != nil || !has {
		return
	}

	task, err := s.buildPushTask(n, ev, actor)
	if err != nil {
		s.log.Warn("推送载荷序列化失败", zap.Error(err))
		return
	}
	if err := redis.EnqueuePushTask(task); err != nil {
		s.log.Warn("推送任务入队失败",
			zap.Uint("user_id", ev.recipientID),
			zap.Error(err),
		)
	}
}

// buildPushTask 构造推送任务：载荷携带与service worker约定的完整字段
// TTL与紧急程度同时写入载荷(客户端渲染用)与任务(推送服务HTTP头用)
func (s *NotificationService) buildPushTask(n *model.Notification, ev fanoutEvent, actor *model.User) (*redis.PushTask, error) {
	urgency := "normal"
	if ev.priority == model.PriorityHigh {
		urgency = "high"
	}
	ttl := s.sender.DefaultTTL()

	data := map[string]interface{}{
		"url":     ev.url,
		"type":    ev.typ,
		"user_id": ev.recipientID,
	}
	for k, v := range ev.data {
		data[k] = v
	}

	payload := &webpush.Payload{
		Title:              ev.title,
		Body:               fmt.Sprintf(ev.bodyFmt, actor.Name),
		Icon:               actor.Avatar,
		Badge:              "/icons/badge.png",
		Tag:                fmt.Sprintf("%s-%d", ev.typ, n.ID),
		Data:               data,
		RequireInteraction: ev.priority == model.PriorityHigh,
		TTL:                ttl,
		Urgency:            urgency,
	}
	body, err := payload.Marshal()
	if err != nil {
		return nil, err
	}

	return &redis.PushTask{
		UserID:    ev.recipientID,
		Payload:   body,
		TTL:       ttl,
		Urgency:   urgency,
		CreatedAt: s.now(),
	}, nil
}

// ---------- 读取与状态变更 ----------

// List 列出用户通知（可仅未读，分页）
func (s *NotificationService) List(userID uint, unreadOnly bool, page, pageSize int) ([]*model.Notification, error) {
	limit, offset := normalizePage(page, pageSize)
	return s.repo.ListForUser(userID, unreadOnly, limit, offset)
}

// MarkRead 标记单条通知为已读
func (s *NotificationService) MarkRead(notificationID, userID uint) error {
	// 先确认通知存在且属于该用户
	n, err := s.repo.GetByID(notificationID)
	if err != nil {
		return ErrNotificationNotFound
	}
	if n.UserID != userID {
		return ErrPermissionDenied
	}

	updated, err := s.repo.MarkRead(notificationID, userID, s.now())
	if err != nil {
		return err
	}
	if updated {
		_ = redis.DecrementUnreadCount(userID)
	}
	return nil
}

// MarkAllRead 标记用户全部通知为已读
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	affected, err := s.repo.MarkAllRead(userID, s.now())
	if err != nil {
		return 0, err
	}
	_ = redis.ResetUnreadCount(userID)
	return affected, nil
}

// Delete 删除通知
func (s *NotificationService) Delete(notificationID, userID uint) error {
	n, err := s.repo.GetByID(notificationID)
	if err != nil {
		return ErrNotificationNotFound
	}
	if n.UserID != userID {
		return ErrPermissionDenied
	}
	if err := s.repo.Delete(notificationID, userID); err != nil {
		return err
	}
	if !n.IsRead {
		_ = redis.DecrementUnreadCount(userID)
	}
	return nil
}

// ClearRead 清空用户全部已读通知
func (s *NotificationService) ClearRead(userID uint) (int64, error) {
	return s.repo.ClearRead(userID)
}

// GetUnreadCount 获取未读通知数（优先走Redis计数缓存，未命中回源并重建）
func (s *NotificationService) GetUnreadCount(userID uint) (int64, error) {
	count, err := redis.GetUnreadCount(userID)
	if err == nil && count >= 0 {
		return count, nil
	}

	dbCount, err := s.repo.CountUnread(userID)
	if err != nil {
		return 0, err
	}

	_ = redis.SetUnreadCount(userID, dbCount)

	return dbCount, nil
}

// GetUserStats 获取用户通知统计
func (s *NotificationService) GetUserStats(userID uint) (*repository.UserStats, error) {
	return s.repo.GetUserStats(userID, s.now())
}

// Cleanup 删除超过保留期的已读通知；未读通知无论多旧都保留
// 由cmd/server中的定时任务周期性调用
func (s *NotificationService) Cleanup(days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	before := s.now().AddDate(0, 0, -days)
	deleted, err := s.repo.CleanupOld(before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("通知清理完成",
			zap.Int("retention_days", days),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}
