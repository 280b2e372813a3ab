package service

import "errors"

// 业务错误分级：
// 校验类(400) / 权限类(403) / 不存在类(404) / 冲突类(409)
// handler层据此映射响应码；通知与推送失败不在此列，它们只记日志不上抛
var (
	// 校验类
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrEmptyRecipients = errors.New("no valid recipients resolved")
	ErrInvalidReaction = errors.New("invalid reaction type")
	ErrInvalidPulse    = errors.New("invalid pulse parameters")
	ErrInvalidCircle   = errors.New("invalid circle parameters")
	ErrInvalidUser     = errors.New("invalid registration parameters")
	ErrInvalidSub      = errors.New("invalid push subscription parameters")
	ErrInvalidOTP      = errors.New("invalid verification code")
	ErrNotVerified     = errors.New("account not verified")

	// 冲突类
	ErrDuplicateRequest = errors.New("a pending friend request already exists")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrAlreadyMember    = errors.New("user is already a circle member")
	ErrDuplicateUser    = errors.New("phone or email already registered")

	// 不存在类
	ErrUserNotFound         = errors.New("user not found")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrPulseNotFound        = errors.New("pulse not found")
	ErrCircleNotFound       = errors.New("circle not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrFriendshipNotFound   = errors.New("friendship not found")
	ErrSubscriptionNotFound = errors.New("push subscription not found")

	// 权限类
	ErrNotCircleOwner   = errors.New("only the circle owner can perform this action")
	ErrNotCircleMember  = errors.New("user is not a circle member")
	ErrNotRecipient     = errors.New("user is not a recipient of this pulse")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPassword  = errors.New("invalid credentials")
)
