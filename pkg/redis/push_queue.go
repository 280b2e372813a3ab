package redis

import (
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// 推送队列相关常量
const (
	PushQueueKey    = "pulse:push:queue"   // 推送任务列表key
	PushQueueMaxLen = 10000                // 队列长度上限，超出丢弃最旧任务
	PushPopTimeout  = 5 * time.Second      // 阻塞弹出超时
)

// PushTask 推送任务
// 由通知扇出入队，推送工作协程消费后通过Web Push投递
// Payload 为完整的推送载荷JSON（title/body/icon/data/ttl/urgency等）
type PushTask struct {
	UserID    uint            `json:"user_id"`    // 目标用户ID
	Payload   json.RawMessage `json:"payload"`    // 推送载荷
	TTL       int             `json:"ttl"`        // 消息TTL(秒)
	Urgency   string          `json:"urgency"`    // 紧急程度(normal/high)
	CreatedAt time.Time       `json:"created_at"` // 入队时间
}

// EnqueuePushTask 推送任务入队
// 投递是尽力而为的异步边界：入队失败只返回错误由调用方记录日志，不影响触发动作
func EnqueuePushTask(task *PushTask) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化推送任务失败: %w", err)
	}

	// LPUSH入队，LTRIM限制队列长度
	if err := client.LPush(ctx, PushQueueKey, data).Err(); err != nil {
		return fmt.Errorf("推送任务入队失败: %w", err)
	}
	if err := client.LTrim(ctx, PushQueueKey, 0, PushQueueMaxLen-1).Err(); err != nil {
		return fmt.Errorf("裁剪推送队列失败: %w", err)
	}

	return nil
}

// DequeuePushTask 阻塞式弹出一个推送任务
// 队列为空时最多阻塞PushPopTimeout后返回(nil, nil)
func DequeuePushTask() (*PushTask, error) {
	if client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}

	result, err := client.BRPop(ctx, PushPopTimeout, PushQueueKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("弹出推送任务失败: %w", err)
	}

	// BRPop返回[key, value]
	if len(result) < 2 {
		return nil, nil
	}

	var task PushTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("解析推送任务失败: %w", err)
	}

	return &task, nil
}

// PushQueueLength 获取当前推送队列长度
func PushQueueLength() (int64, error) {
	if client == nil {
		return 0, fmt.Errorf("redis客户端未初始化")
	}
	return client.LLen(ctx, PushQueueKey).Result()
}
