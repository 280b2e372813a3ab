package testutil

import (
	"testing"

	"pulse/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// SetupTestDB 创建sqlite内存库并迁移全部表结构
// 每个测试用例独立一库，用例结束自动关闭
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

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
		t.Fatalf("迁移测试表结构失败: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestUser 插入一个已验证的测试用户
func CreateTestUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	email := name + "@test.local"
	user := &model.User{
		Name:         name,
		Phone:        "138" + name,
		Email:        &email,
		PasswordHash: "$2a$10$test",
		Avatar:       "/avatars/" + name + ".png",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return user
}
