package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse/config"
	"pulse/internal/handler"
	"pulse/internal/model"
	"pulse/internal/repository"
	"pulse/internal/service"
	"pulse/pkg/db"
	"pulse/pkg/jwt"
	"pulse/pkg/logger"
	"pulse/pkg/redis"
	"pulse/pkg/response"
	"pulse/pkg/webpush"
	"pulse/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志
	log := logger.InitLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("服务启动中",
		zap.String("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// 3. 初始化数据库
	gormDB, err := db.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer db.CloseDB()

	// 4. 迁移表结构
	if err := db.AutoMigrate(
		&model.User{},
		&model.FriendRequest{},
		&model.Friendship{},
		&model.FriendshipStat{},
		&model.Circle{},
		&model.CircleMember{},
		&model.Pulse{},
		&model.PulseRecipient{},
		&model.PulseReaction{},
		&model.Notification{},
		&model.PushSubscription{},
	); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 初始化Redis（不可用时降级运行：计数缓存回源DB，推送与离线缓冲不可用）
	if err := redis.InitRedis(cfg.Redis); err != nil {
		logger.Warn("Redis初始化失败，相关功能降级", zap.Error(err))
	} else {
		defer redis.Close()
	}

	// 6. 组装仓储与服务
	userRepo := repository.NewUserRepository(gormDB)
	friendRepo := repository.NewFriendshipRepository(gormDB)
	circleRepo := repository.NewCircleRepository(gormDB)
	pulseRepo := repository.NewPulseRepository(gormDB)
	notifyRepo := repository.NewNotificationRepository(gormDB)
	subsRepo := repository.NewPushSubscriptionRepository(gormDB)

	jwtSvc := jwt.NewJWTService(cfg.JWT)
	pushSender := webpush.NewSender(cfg.Push)

	notifySvc := service.NewNotificationService(notifyRepo, userRepo, subsRepo, pushSender, log)
	userSvc := service.NewUserService(userRepo, jwtSvc, log)
	friendSvc := service.NewFriendshipService(friendRepo, userRepo, notifySvc)
	circleSvc := service.NewCircleService(circleRepo, friendRepo, userRepo, notifySvc)
	pulseSvc := service.NewPulseService(pulseRepo, friendRepo, circleRepo, userRepo, notifySvc)
	pushSvc := service.NewPushService(subsRepo, pushSender, log)

	// 7. 后台任务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pushSvc.RunWorker(ctx)
	go runCleanup(ctx, notifySvc, cfg.Notification)

	// 8. 路由
	router := setupRouter(cfg, userSvc, friendSvc, circleSvc, pulseSvc, notifySvc, pushSvc, jwtSvc)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP服务监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始关闭")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP服务关闭失败", zap.Error(err))
	}

	logger.Info("服务已退出")
}

// runCleanup 周期性清理超过保留期的已读通知
func runCleanup(ctx context.Context, notifySvc *service.NotificationService, cfg config.NotificationConfig) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := notifySvc.Cleanup(cfg.RetentionDays); err != nil {
				logger.Warn("通知清理失败", zap.Error(err))
			}
		}
	}
}

// setupRouter 注册全部路由
func setupRouter(
	cfg *config.Config,
	userSvc *service.UserService,
	friendSvc *service.FriendshipService,
	circleSvc *service.CircleService,
	pulseSvc *service.PulseService,
	notifySvc *service.NotificationService,
	pushSvc *service.PushService,
	jwtSvc *jwt.JWTService,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.RequestIDMiddleware(), logger.LoggerMiddleware(), logger.ErrorLoggerMiddleware())

	// WebSocket处理函数从上下文读取共享的JWT服务与心跳配置
	router.Use(func(c *gin.Context) {
		c.Set("jwt_service", jwtSvc)
		c.Set("ws_config", cfg.WebSocket)
		c.Next()
	})

	userHandler := handler.NewUserHandler(userSvc)
	friendHandler := handler.NewFriendshipHandler(friendSvc)
	circleHandler := handler.NewCircleHandler(circleSvc)
	pulseHandler := handler.NewPulseHandler(pulseSvc)
	notifyHandler := handler.NewNotificationHandler(notifySvc)
	pushHandler := handler.NewPushHandler(pushSvc)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(); err != nil {
			response.InternalError(c, "数据库不可用")
			return
		}
		response.Success(c, gin.H{"status": "ok"})
	})

	// 实时通知通道
	router.GET("/ws", websocket.WsHandler)

	api := router.Group("/api/v1")

	// 公开接口
	auth := api.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/verify", userHandler.VerifyOTP)
		auth.POST("/login", userHandler.Login)
	}
	api.GET("/push/public-key", pushHandler.PublicKey)

	// 认证接口
	authorized := api.Group("")
	authorized.Use(jwtSvc.AuthMiddleware())
	{
		authorized.POST("/auth/logout", userHandler.Logout)

		users := authorized.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.PUT("/me", userHandler.UpdateProfile)
			users.GET("/search", userHandler.Search)
			users.GET("/:id", userHandler.GetUser)
		}

		friends := authorized.Group("/friends")
		{
			friends.GET("", friendHandler.ListFriends)
			friends.POST("/requests", friendHandler.SendRequest)
			friends.GET("/requests", friendHandler.ListPending)
			friends.POST("/requests/:id/accept", friendHandler.Accept)
			friends.POST("/requests/:id/reject", friendHandler.Reject)
			friends.GET("/:id/stat", friendHandler.GetStat)
			friends.POST("/:id/block", friendHandler.Block)
		}

		circles := authorized.Group("/circles")
		{
			circles.GET("", circleHandler.ListMine)
			circles.POST("", circleHandler.Create)
			circles.GET("/:id", circleHandler.Get)
			circles.PUT("/:id", circleHandler.Update)
			circles.DELETE("/:id", circleHandler.Delete)
			circles.POST("/:id/invite", circleHandler.Invite)
			circles.POST("/:id/join", circleHandler.Join)
			circles.POST("/:id/leave", circleHandler.Leave)
			circles.GET("/:id/members", circleHandler.ListMembers)
			circles.DELETE("/:id/members/:memberId", circleHandler.RemoveMember)
		}

		pulses := authorized.Group("/pulses")
		{
			pulses.POST("", pulseHandler.Send)
			pulses.GET("/sent", pulseHandler.ListSent)
			pulses.GET("/received", pulseHandler.ListReceived)
			pulses.GET("/:id", pulseHandler.Get)
			pulses.POST("/:id/seen", pulseHandler.MarkSeen)
			pulses.GET("/:id/recipients", pulseHandler.ListRecipients)
			pulses.POST("/:id/reactions", pulseHandler.ToggleReaction)
			pulses.GET("/:id/reactions", pulseHandler.ListReactions)
			pulses.GET("/:id/reactions/summary", pulseHandler.ReactionsSummary)
		}

		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", notifyHandler.List)
			notifications.GET("/unread-count", notifyHandler.UnreadCount)
			notifications.GET("/stats", notifyHandler.Stats)
			notifications.POST("/read-all", notifyHandler.MarkAllRead)
			notifications.POST("/:id/read", notifyHandler.MarkRead)
			notifications.DELETE("/read", notifyHandler.ClearRead)
			notifications.DELETE("/:id", notifyHandler.Delete)
		}

		push := authorized.Group("/push")
		{
			push.GET("/subscriptions", pushHandler.ListSubscriptions)
			push.POST("/subscriptions", pushHandler.Subscribe)
			push.DELETE("/subscriptions", pushHandler.Unsubscribe)
		}
	}

	return router
}
