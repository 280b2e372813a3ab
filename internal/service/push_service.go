package service

import (
	"context"
	"errors"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"
	"pulse/pkg/redis"
	"pulse/pkg/webpush"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PushService Web Push订阅管理与投递工作协程
// 订阅以endpoint为唯一键：同一浏览器重复订阅做覆盖式更新
// 投递失败仅记日志；推送服务报告订阅失效(404/410)时删除该订阅记录
type PushService struct {
	subsRepo *repository.PushSubscriptionRepository
	sender   *webpush.Sender
	log      *zap.Logger
}

// NewPushService 创建PushService实例
func NewPushService(subsRepo *repository.PushSubscriptionRepository, sender *webpush.Sender, log *zap.Logger) *PushService {
	return &PushService{subsRepo: subsRepo, sender: sender, log: log}
}

// PublicKey 返回VAPID公钥（浏览器订阅时使用，无需认证）
func (s *PushService) PublicKey() string {
	if s.sender == nil {
		return ""
	}
	return s.sender.PublicKey()
}

// Subscribe 登记浏览器推送订阅
func (s *PushService) Subscribe(userID uint, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	if endpoint == "" || p256dh == "" || auth == "" {
		return nil, ErrInvalidSub
	}

	sub := &model.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	}
	if err := s.subsRepo.Upsert(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe 退订指定endpoint
func (s *PushService) Unsubscribe(userID uint, endpoint string) error {
	if err := s.subsRepo.DeleteByEndpoint(userID, endpoint); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}
	return nil
}

// ListSubscriptions 列出用户当前订阅
func (s *PushService) ListSubscriptions(userID uint) ([]*model.PushSubscription, error) {
	return s.subsRepo.ListForUser(userID)
}

// RunWorker 推送投递工作协程
// 循环消费推送队列：每个任务向目标用户的全部订阅投递
// 队列不可用时退避后重试；ctx取消后退出
func (s *PushService) RunWorker(ctx context.Context) {
	if s.sender == nil || !s.sender.Enabled() {
		s.log.Info("未配置VAPID密钥，推送工作协程不启动")
		return
	}

	s.log.Info("推送工作协程已启动")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("推送工作协程退出")
			return
		default:
		}

		task, err := redis.DequeuePushTask()
		if err != nil {
			s.log.Warn("弹出推送任务失败", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}

		s.deliver(task)
	}
}

// deliver 向任务目标用户的全部订阅投递
func (s *PushService) deliver(task *redis.PushTask) {
	subs, err := s.subsRepo.ListForUser(task.UserID)
	if err != nil {
		s.log.Warn("加载推送订阅失败",
			zap.Uint("user_id", task.UserID),
			zap.Error(err),
		)
		return
	}

	for _, sub := range subs {
		gone, err := s.sender.Send(sub, task.Payload, task.TTL, task.Urgency)
		if err != nil {
			s.log.Warn("推送投递失败",
				zap.Uint("user_id", task.UserID),
				zap.Uint("subscription_id", sub.ID),
				zap.Error(err),
			)
			continue
		}
		if gone {
			// 推送服务侧已删除该订阅，本地记录同步清理
			if err := s.subsRepo.DeleteByID(sub.ID); err != nil {
				s.log.Warn("清理失效订阅失败",
					zap.Uint("subscription_id", sub.ID),
					zap.Error(err),
				)
			} else {
				s.log.Info("已清理失效推送订阅",
					zap.Uint("user_id", task.UserID),
					zap.Uint("subscription_id", sub.ID),
				)
			}
		}
	}
}
