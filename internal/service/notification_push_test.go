package service

import (
	"encoding/json"
	"testing"
	"time"

	"pulse/config"
	"pulse/internal/model"
	"pulse/pkg/webpush"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPushTaskCarriesTTLAndUrgency(t *testing.T) {
	sender := webpush.NewSender(config.PushConfig{
		VAPIDPublicKey:  "test-public",
		VAPIDPrivateKey: "test-private",
		Subject:         "mailto:ops@pulse.local",
		DefaultTTL:      3600,
	})
	svc := &NotificationService{sender: sender, now: time.Now}

	n := &model.Notification{ID: 7, UserID: 2}
	actor := &model.User{Name: "张三", Avatar: "/avatars/zs.png"}
	ev := fanoutEvent{
		actorID:     1,
		recipientID: 2,
		typ:         model.NotificationTypeFriendAccept,
		priority:    model.PriorityHigh,
		title:       "好友请求已接受",
		bodyFmt:     "%s 接受了你的好友请求",
		url:         "/friends",
		data:        map[string]interface{}{"request_id": uint(9)},
	}

	task, err := svc.buildPushTask(n, ev, actor)
	require.NoError(t, err)
	assert.Equal(t, uint(2), task.UserID)
	assert.Equal(t, 3600, task.TTL)
	assert.Equal(t, "high", task.Urgency)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(task.Payload, &payload))
	assert.EqualValues(t, 3600, payload["ttl"])
	assert.Equal(t, "high", payload["urgency"])
	assert.Equal(t, "张三 接受了你的好友请求", payload["body"])
	assert.Equal(t, true, payload["requireInteraction"])

	data, ok := payload["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/friends", data["url"])
	assert.EqualValues(t, 9, data["request_id"])
}

func TestBuildPushTaskNormalPriority(t *testing.T) {
	sender := webpush.NewSender(config.PushConfig{
		VAPIDPublicKey:  "test-public",
		VAPIDPrivateKey: "test-private",
		Subject:         "mailto:ops@pulse.local",
		DefaultTTL:      86400,
	})
	svc := &NotificationService{sender: sender, now: time.Now}

	n := &model.Notification{ID: 8, UserID: 3}
	actor := &model.User{Name: "李四"}
	ev := fanoutEvent{
		actorID:     2,
		recipientID: 3,
		typ:         model.NotificationTypePulse,
		priority:    model.PriorityNormal,
		title:       "新的pulse",
		bodyFmt:     "%s 给你发来了pulse",
		url:         "/pulses/8",
	}

	task, err := svc.buildPushTask(n, ev, actor)
	require.NoError(t, err)
	assert.Equal(t, 86400, task.TTL)
	assert.Equal(t, "normal", task.Urgency)
}
