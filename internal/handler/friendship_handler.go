package handler

import (
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendshipHandler 好友关系接口
type FriendshipHandler struct {
	friendSvc *service.FriendshipService
}

// NewFriendshipHandler 创建FriendshipHandler实例
func NewFriendshipHandler(friendSvc *service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendSvc: friendSvc}
}

// SendRequestBody 发送好友请求参数
type SendRequestBody struct {
	ReceiverID uint `json:"receiver_id" binding:"required"`
}

// SendRequest 发送好友请求
// POST /api/v1/friends/requests
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	var body SendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req, err := h.friendSvc.SendRequest(jwt.GetUserIDUint(c), body.ReceiverID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, req)
}

// ListPending 列出收到的pending好友请求
// GET /api/v1/friends/requests
func (h *FriendshipHandler) ListPending(c *gin.Context) {
	reqs, err := h.friendSvc.ListPending(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, reqs)
}

// Accept 接受好友请求
// POST /api/v1/friends/requests/:id/accept
// 已为好友的重复接受返回成功且标记already_friends
func (h *FriendshipHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	alreadyFriends, err := h.friendSvc.AcceptRequest(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"already_friends": alreadyFriends})
}

// Reject 拒绝好友请求
// POST /api/v1/friends/requests/:id/reject
func (h *FriendshipHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.friendSvc.RejectRequest(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已拒绝", nil)
}

// ListFriends 列出好友（带互动统计）
// GET /api/v1/friends
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	friends, err := h.friendSvc.ListFriends(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, friends)
}

// GetStat 查看与指定好友的互动统计
// GET /api/v1/friends/:id/stat
func (h *FriendshipHandler) GetStat(c *gin.Context) {
	friendID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stat, err := h.friendSvc.GetStat(jwt.GetUserIDUint(c), friendID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, stat)
}

// Block 拉黑好友（单向）
// POST /api/v1/friends/:id/block
func (h *FriendshipHandler) Block(c *gin.Context) {
	friendID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.friendSvc.Block(jwt.GetUserIDUint(c), friendID); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已拉黑", nil)
}
