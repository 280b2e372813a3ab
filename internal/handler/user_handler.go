package handler

import (
	"pulse/internal/service"
	"pulse/pkg/jwt"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户相关接口
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler 创建UserHandler实例
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// RegisterRequest 注册请求参数
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

// Register 用户注册
// POST /api/v1/auth/register
// 成功后账户处于待验证状态，需提交OTP完成验证方可登录
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userSvc.Register(req.Name, req.Phone, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "注册成功，请完成验证", response.RegisterResponse{
		User:              response.FilterUserInfo(user),
		NeedsVerification: true,
	})
}

// VerifyOTPRequest OTP验证请求参数
type VerifyOTPRequest struct {
	Identifier string `json:"identifier" binding:"required"` // 手机号或邮箱
	OTP        string `json:"otp" binding:"required,len=6"`
}

// VerifyOTP 提交验证码完成账户验证
// POST /api/v1/auth/verify
// 验证成功直接签发令牌，免去二次登录
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	token, user, err := h.userSvc.VerifyOTP(req.Identifier, req.OTP)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// LoginRequest 登录请求参数
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // 手机号或邮箱
	Password   string `json:"password" binding:"required"`
}

// Login 密码登录
// POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	token, user, err := h.userSvc.Login(req.Identifier, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// Logout 登出
// POST /api/v1/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	userID := jwt.GetUserIDUint(c)
	if err := h.userSvc.Logout(userID); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已登出", nil)
}

// Me 获取当前用户资料
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userSvc.GetByID(jwt.GetUserIDUint(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// UpdateProfileRequest 资料更新请求参数
type UpdateProfileRequest struct {
	Name   string `json:"name" binding:"omitempty,min=1,max=64"`
	Avatar string `json:"avatar" binding:"omitempty,max=255"`
}

// UpdateProfile 更新当前用户资料
// PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userSvc.UpdateProfile(jwt.GetUserIDUint(c), req.Name, req.Avatar)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// GetUser 查看指定用户公开资料
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// Search 搜索用户（手机号精确或名称前缀）
// GET /api/v1/users/search?keyword=xxx
func (h *UserHandler) Search(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		response.BadRequest(c, "keyword不能为空")
		return
	}

	users, err := h.userSvc.Search(keyword)
	if err != nil {
		fail(c, err)
		return
	}

	result := make([]*response.UserInfo, 0, len(users))
	for _, u := range users {
		result = append(result, response.FilterUserInfo(u))
	}
	response.Success(c, result)
}
