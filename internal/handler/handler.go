package handler

import (
	"errors"
	"strconv"

	"pulse/internal/service"
	"pulse/pkg/logger"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail 业务错误统一映射
// 校验类→400 权限类→403 不存在类→404 冲突类→409，未识别错误兜底500并记日志
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrEmptyRecipients),
		errors.Is(err, service.ErrInvalidReaction),
		errors.Is(err, service.ErrInvalidPulse),
		errors.Is(err, service.ErrInvalidCircle),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidSub),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrNotVerified):
		response.BadRequest(c, err.Error())

	case errors.Is(err, service.ErrNotCircleOwner),
		errors.Is(err, service.ErrNotCircleMember),
		errors.Is(err, service.ErrNotRecipient),
		errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, err.Error())

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrPulseNotFound),
		errors.Is(err, service.ErrCircleNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrFriendshipNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound):
		response.NotFound(c, err.Error())

	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrAlreadyFriends),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrDuplicateUser):
		response.Conflict(c, err.Error())

	case errors.Is(err, service.ErrInvalidPassword):
		response.Unauthorized(c, err.Error())

	default:
		logger.Error("请求处理失败",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.InternalError(c, "服务器内部错误")
	}
}

// pathID 解析路径参数中的数字ID，非法时返回(0, false)并已写出400响应
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的"+name+"参数")
		return 0, false
	}
	return uint(id), true
}

// queryInt 解析query中的整数参数，缺省或非法时返回默认值
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
