package handler

import (
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// CircleHandler 圈子接口
type CircleHandler struct {
	circleSvc *service.CircleService
}

// NewCircleHandler 创建CircleHandler实例
func NewCircleHandler(circleSvc *service.CircleService) *CircleHandler {
	return &CircleHandler{circleSvc: circleSvc}
}

// CircleBody 创建/更新圈子参数
type CircleBody struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=64"`
	PrivacyType string `json:"privacy_type" binding:"omitempty,oneof=private public"`
}

// Create 创建圈子
// POST /api/v1/circles
func (h *CircleHandler) Create(c *gin.Context) {
	var body CircleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	circle, err := h.circleSvc.Create(jwt.GetUserIDUint(c), body.Name, body.PrivacyType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, circle)
}

// Get 获取圈子详情
// GET /api/v1/circles/:id
func (h *CircleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	circle, err := h.circleSvc.Get(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, circle)
}

// Update 更新圈子（仅限圈主）
// PUT /api/v1/circles/:id
func (h *CircleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body CircleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	circle, err := h.circleSvc.Update(id, jwt.GetUserIDUint(c), body.Name, body.PrivacyType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, circle)
}

// Delete 解散圈子（仅限圈主）
// DELETE /api/v1/circles/:id
func (h *CircleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.circleSvc.Delete(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "圈子已解散", nil)
}

// InviteBody 邀请成员参数
type InviteBody struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Invite 邀请好友入圈（仅限圈主）
// POST /api/v1/circles/:id/invite
func (h *CircleHandler) Invite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body InviteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.circleSvc.Invite(id, jwt.GetUserIDUint(c), body.UserID); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已邀请", nil)
}

// Join 加入公开圈子
// POST /api/v1/circles/:id/join
func (h *CircleHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.circleSvc.Join(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已加入", nil)
}

// Leave 退出圈子
// POST /api/v1/circles/:id/leave
func (h *CircleHandler) Leave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.circleSvc.Leave(id, jwt.GetUserIDUint(c)); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已退出", nil)
}

// RemoveMember 移除成员（仅限圈主）
// DELETE /api/v1/circles/:id/members/:memberId
func (h *CircleHandler) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return
	}

	if err := h.circleSvc.RemoveMember(id, jwt.GetUserIDUint(c), memberID); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已移除", nil)
}

// ListMembers 列出圈子成员
// GET /api/v1/circles/:id/members
func (h *CircleHandler) ListMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.circleSvc.ListMembers(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, members)
}

// ListMine 列出当前用户的圈子
// GET /api/v1/circles?filter=owned|joined
func (h *CircleHandler) ListMine(c *gin.Context) {
	userID := jwt.GetUserIDUint(c)

	if c.DefaultQuery("filter", "joined") == "owned" {
		circles, err := h.circleSvc.ListOwned(userID)
		if err != nil {
			fail(c, err)
			return
		}
		response.Success(c, circles)
		return
	}

	circles, err := h.circleSvc.ListJoined(userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, circles)
}
