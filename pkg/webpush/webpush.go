package webpush

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pulse/config"
	"pulse/internal/model"

	wp "github.com/SherClockHolmes/webpush-go"
)

// Payload Web Push推送载荷
// 字段集合即与service worker约定的完整契约，客户端按原样渲染
type Payload struct {
	Title              string                 `json:"title"`                        // 通知标题
	Body               string                 `json:"body"`                         // 通知正文
	Icon               string                 `json:"icon,omitempty"`               // 图标URL
	Badge              string                 `json:"badge,omitempty"`              // 角标URL
	Tag                string                 `json:"tag,omitempty"`                // 去重标签
	Data               map[string]interface{} `json:"data,omitempty"`               // 透传数据(url/type等)
	Actions            []Action               `json:"actions,omitempty"`            // 操作按钮
	RequireInteraction bool                   `json:"requireInteraction,omitempty"` // 是否需要用户交互才消失
	Silent             bool                   `json:"silent,omitempty"`             // 静默通知
	TTL                int                    `json:"ttl,omitempty"`                // 存活时间(秒)
	Urgency            string                 `json:"urgency,omitempty"`            // 紧急程度
}

// Action 通知操作按钮
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// Sender Web Push发送器
// 持有VAPID密钥对，向推送服务投递订阅消息
type Sender struct {
	publicKey  string
	privateKey string
	subject    string
	defaultTTL int
	client     *http.Client
}

// NewSender 创建Web Push发送器
func NewSender(cfg config.PushConfig) *Sender {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.Subject,
		defaultTTL: cfg.DefaultTTL,
		client:     &http.Client{Timeout: timeout},
	}
}

// PublicKey 返回VAPID公钥（通过公开接口下发给浏览器）
func (s *Sender) PublicKey() string {
	return s.publicKey
}

// DefaultTTL 返回配置的默认消息存活时间(秒)
func (s *Sender) DefaultTTL() int {
	return s.defaultTTL
}

// Enabled 判断是否配置了VAPID密钥对
func (s *Sender) Enabled() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// Send 向单条订阅投递载荷
// 返回subscriptionGone=true表示推送服务报告订阅已失效(404/410)，调用方应删除该订阅记录
func (s *Sender) Send(sub *model.PushSubscription, payload []byte, ttl int, urgency string) (subscriptionGone bool, err error) {
	if !s.Enabled() {
		return false, fmt.Errorf("未配置VAPID密钥")
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	u := wp.UrgencyNormal
	if urgency == string(wp.UrgencyHigh) {
		u = wp.UrgencyHigh
	}

	resp, err := wp.SendNotification(payload, &wp.Subscription{
		Endpoint: sub.Endpoint,
		Keys: wp.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &wp.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             ttl,
		Urgency:         u,
		HTTPClient:      s.client,
	})
	if err != nil {
		return false, fmt.Errorf("web push发送失败: %w", err)
	}
	defer resp.Body.Close()

	// 404/410表示订阅已在推送服务侧删除
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return true, nil
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("推送服务返回状态码%d", resp.StatusCode)
	}

	return false, nil
}

// Marshal 序列化载荷
func (p *Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
