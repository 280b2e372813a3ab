package handler

import (
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知接口
type NotificationHandler struct {
	notifySvc *service.NotificationService
}

// NewNotificationHandler 创建NotificationHandler实例
func NewNotificationHandler(notifySvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifySvc: notifySvc}
}

// List 列出通知
// GET /api/v1/notifications?unread_only=true&page=1&page_size=20
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notifySvc.List(
		jwt.GetUserIDUint(c),
		c.Query("unread_only") == "true",
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// UnreadCount 未读通知数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifySvc.GetUnreadCount(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// Stats 通知统计概况
// GET /api/v1/notifications/stats
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.notifySvc.GetUserStats(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, stats)
}

// MarkRead 标记单条通知为已读（幂等）
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifySvc.MarkRead(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已读", nil)
}

// MarkAllRead 全部标记为已读
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	affected, err := h.notifySvc.MarkAllRead(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"marked": affected})
}

// Delete 删除通知
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifySvc.Delete(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已删除", nil)
}

// ClearRead 清空全部已读通知
// DELETE /api/v1/notifications/read
func (h *NotificationHandler) ClearRead(c *gin.Context) {
	deleted, err := h.notifySvc.ClearRead(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
