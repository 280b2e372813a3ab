package handler

import (
	"pulse/internal/model"
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// PulseHandler pulse接口
type PulseHandler struct {
	pulseSvc *service.PulseService
}

// NewPulseHandler 创建PulseHandler实例
func NewPulseHandler(pulseSvc *service.PulseService) *PulseHandler {
	return &PulseHandler{pulseSvc: pulseSvc}
}

// SendPulseBody 发送pulse参数
// type=direct时recipient_ids必填；type=circle时circle_id必填
type SendPulseBody struct {
	Type         string `json:"type" binding:"required,oneof=direct circle"`
	Message      string `json:"message" binding:"required,min=1,max=500"`
	RecipientIDs []uint `json:"recipient_ids"`
	CircleID     uint   `json:"circle_id"`
}

// Send 发送pulse
// POST /api/v1/pulses
func (h *PulseHandler) Send(c *gin.Context) {
	var body SendPulseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	userID := jwt.GetUserIDUint(c)
	var (
		pulse *model.Pulse
		err   error
	)
	switch body.Type {
	case model.PulseTypeDirect:
		if len(body.RecipientIDs) == 0 {
			response.BadRequest(c, "direct类型必须指定recipient_ids")
			return
		}
		pulse, err = h.pulseSvc.SendDirect(userID, body.Message, body.RecipientIDs)
	case model.PulseTypeCircle:
		if body.CircleID == 0 {
			response.BadRequest(c, "circle类型必须指定circle_id")
			return
		}
		pulse, err = h.pulseSvc.SendToCircle(userID, body.CircleID, body.Message)
	}
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pulse)
}

// Get 获取pulse详情
// GET /api/v1/pulses/:id
func (h *PulseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pulse, err := h.pulseSvc.Get(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pulse)
}

// MarkSeen 标记pulse为已读（幂等）
// POST /api/v1/pulses/:id/seen
func (h *PulseHandler) MarkSeen(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	wrote, err := h.pulseSvc.MarkSeen(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"marked": wrote})
}

// ListRecipients 查看pulse接收与已读情况（仅限发送者）
// GET /api/v1/pulses/:id/recipients
func (h *PulseHandler) ListRecipients(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	recipients, err := h.pulseSvc.ListRecipients(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, recipients)
}

// ListSent 列出发送的pulse
// GET /api/v1/pulses/sent?page=1&page_size=20
func (h *PulseHandler) ListSent(c *gin.Context) {
	pulses, err := h.pulseSvc.ListSent(
		jwt.GetUserIDUint(c),
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pulses)
}

// ListReceived 列出收到的pulse（含已读状态）
// GET /api/v1/pulses/received?page=1&page_size=20
func (h *PulseHandler) ListReceived(c *gin.Context) {
	received, err := h.pulseSvc.ListReceived(
		jwt.GetUserIDUint(c),
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, received)
}

// ReactionBody 反应参数
type ReactionBody struct {
	ReactionType string `json:"reaction_type" binding:"required"`
}

// ToggleReaction 切换反应（添加/覆盖/移除）
// POST /api/v1/pulses/:id/reactions
func (h *PulseHandler) ToggleReaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body ReactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.pulseSvc.ToggleReaction(id, jwt.GetUserIDUint(c), body.ReactionType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"result": result})
}

// ReactionsSummary 反应计数汇总
// GET /api/v1/pulses/:id/reactions/summary
func (h *PulseHandler) ReactionsSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.pulseSvc.ReactionsSummary(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, summary)
}

// ListReactions 反应明细
// GET /api/v1/pulses/:id/reactions
func (h *PulseHandler) ListReactions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reactions, err := h.pulseSvc.ListReactions(id, jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, reactions)
}
