package handler

import (
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// PushHandler Web Push订阅接口
type PushHandler struct {
	pushSvc *service.PushService
}

// NewPushHandler 创建PushHandler实例
func NewPushHandler(pushSvc *service.PushService) *PushHandler {
	return &PushHandler{pushSvc: pushSvc}
}

// PublicKey 下发VAPID公钥（无需认证，浏览器订阅流程首步）
// GET /api/v1/push/public-key
func (h *PushHandler) PublicKey(c *gin.Context) {
	key := h.pushSvc.PublicKey()
	if key == "" {
		response.NotFound(c, "服务端未启用Web Push")
		return
	}
	response.Success(c, gin.H{"public_key": key})
}

// SubscribeBody 订阅参数（浏览器PushSubscription对象展开）
type SubscribeBody struct {
	Endpoint string `json:"endpoint" binding:"required,max=512"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe 登记推送订阅
// POST /api/v1/push/subscriptions
func (h *PushHandler) Subscribe(c *gin.Context) {
	var body SubscribeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	sub, err := h.pushSvc.Subscribe(
		jwt.GetUserIDUint(c),
		body.Endpoint,
		body.Keys.P256dh,
		body.Keys.Auth,
	)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, sub)
}

// UnsubscribeBody 退订参数
type UnsubscribeBody struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe 退订
// DELETE /api/v1/push/subscriptions
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var body UnsubscribeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.pushSvc.Unsubscribe(jwt.GetUserIDUint(c), body.Endpoint); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已退订", nil)
}

// ListSubscriptions 列出当前用户的订阅
// GET /api/v1/push/subscriptions
func (h *PushHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.pushSvc.ListSubscriptions(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, subs)
}
