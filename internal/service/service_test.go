package service_test

import (
	"testing"

	"pulse/internal/repository"
	"pulse/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testServices 测试用的服务装配（共享同一个sqlite内存库）
// 推送发送器为nil（未启用），实时/缓存通道在测试环境不可用时静默降级
type testServices struct {
	userRepo   *repository.UserRepository
	friendRepo *repository.FriendshipRepository
	circleRepo *repository.CircleRepository
	pulseRepo  *repository.PulseRepository
	notifyRepo *repository.NotificationRepository

	notifySvc *service.NotificationService
	friendSvc *service.FriendshipService
	circleSvc *service.CircleService
	pulseSvc  *service.PulseService
}

func newTestServices(t *testing.T, db *gorm.DB) *testServices {
	t.Helper()

	s := &testServices{
		userRepo:   repository.NewUserRepository(db),
		friendRepo: repository.NewFriendshipRepository(db),
		circleRepo: repository.NewCircleRepository(db),
		pulseRepo:  repository.NewPulseRepository(db),
		notifyRepo: repository.NewNotificationRepository(db),
	}

	s.notifySvc = service.NewNotificationService(
		s.notifyRepo,
		s.userRepo,
		repository.NewPushSubscriptionRepository(db),
		nil,
		zap.NewNop(),
	)
	s.friendSvc = service.NewFriendshipService(s.friendRepo, s.userRepo, s.notifySvc)
	s.circleSvc = service.NewCircleService(s.circleRepo, s.friendRepo, s.userRepo, s.notifySvc)
	s.pulseSvc = service.NewPulseService(s.pulseRepo, s.friendRepo, s.circleRepo, s.userRepo, s.notifySvc)

	return s
}
