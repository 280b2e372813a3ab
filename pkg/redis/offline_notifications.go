package redis

import (
	"fmt"
	"time"
)

// 离线通知缓冲相关常量
// 用户无活跃WebSocket连接时，实时通知事件先缓冲在此，连接建立后重放
const (
	OfflineNotifyKeyPrefix = "pulse:offline:notify:" // 离线通知key前缀
	OfflineNotifyTTL       = 7 * 24 * time.Hour      // 7天过期
	OfflineNotifyMax       = 100                     // 每用户最多缓冲100条
)

// AddOfflineNotification 缓冲一条离线通知事件（序列化后的JSON）
func AddOfflineNotification(userID uint, event []byte) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", OfflineNotifyKeyPrefix, userID)

	// LPUSH添加到列表头部（最新的在前面）
	if err := client.LPush(ctx, key, event).Err(); err != nil {
		return fmt.Errorf("缓冲离线通知失败: %w", err)
	}

	if err := client.Expire(ctx, key, OfflineNotifyTTL).Err(); err != nil {
		return fmt.Errorf("设置离线通知TTL失败: %w", err)
	}

	// 限制缓冲数量
	if err := client.LTrim(ctx, key, 0, OfflineNotifyMax-1).Err(); err != nil {
		return fmt.Errorf("限制离线通知数量失败: %w", err)
	}

	return nil
}

// GetOfflineNotifications 获取用户的离线通知事件（按时间倒序，最多limit条）
func GetOfflineNotifications(userID uint, limit int64) ([][]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", OfflineNotifyKeyPrefix, userID)

	values, err := client.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("获取离线通知失败: %w", err)
	}

	events := make([][]byte, 0, len(values))
	for _, v := range values {
		events = append(events, []byte(v))
	}

	return events, nil
}

// ClearOfflineNotifications 清空用户的离线通知缓冲
func ClearOfflineNotifications(userID uint) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", OfflineNotifyKeyPrefix, userID)
	return client.Del(ctx, key).Err()
}
