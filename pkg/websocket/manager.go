package websocket

import (
	"sync"
	"time"

	"pulse/pkg/redis"

	"github.com/gorilla/websocket"
)

// Client 代表一个WebSocket连接的用户
// UserID: 用户ID
// Conn: WebSocket连接
// Send: 发送事件的通道

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager 管理所有在线用户的WebSocket连接
// 实时通知事件经此推送；不在线的用户落入Redis离线缓冲，连接建立后重放

type Manager struct {
	clients map[uint]*Client // 在线用户
	lock    sync.RWMutex
}

var manager = &Manager{
	clients: make(map[uint]*Client),
}

// GetManager 获取全局WebSocket管理器
func GetManager() *Manager {
	return manager
}

// AddClient 添加新连接
func (m *Manager) AddClient(userID uint, client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.clients[userID] = client

	// 重放Redis中缓冲的离线通知
	go m.replayOfflineNotifications(userID, client)
}

// RemoveClient 移除连接
func (m *Manager) RemoveClient(userID uint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if c, ok := m.clients[userID]; ok {
		close(c.Send)
		delete(m.clients, userID)
	}
}

// SendToUser 推送通知事件给指定用户
// 若用户不在线则缓冲到Redis离线通知
func (m *Manager) SendToUser(userID uint, event []byte) {
	m.lock.RLock()
	client, ok := m.clients[userID]
	m.lock.RUnlock()
	if ok {
		// 在线，直接推送
		select {
		case client.Send <- event:
		default:
			// 发送通道已满，可能连接已断开
		}
	} else {
		// 不在线，缓冲到Redis
		go func() {
			_ = redis.AddOfflineNotification(userID, event)
		}()
	}
}

// IsOnline 判断用户是否有活跃连接
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// OnlineCount 当前连接数
func (m *Manager) OnlineCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}

// replayOfflineNotifications 连接建立后重放离线期间缓冲的通知事件
func (m *Manager) replayOfflineNotifications(userID uint, client *Client) {
	events, err := redis.GetOfflineNotifications(userID, redis.OfflineNotifyMax)
	if err != nil {
		return
	}

	// LRange返回最新在前，倒序重放保持时间顺序
	for i := len(events) - 1; i >= 0; i-- {
		select {
		case client.Send <- events[i]:
		case <-time.After(5 * time.Second):
			// 发送超时，停止重放
			return
		}
	}

	// 重放完成后清空缓冲
	_ = redis.ClearOfflineNotifications(userID)
}
