package service_test

import (
	"testing"
	"time"

	"pulse/config"
	"pulse/internal/repository"
	"pulse/internal/service"
	"pulse/internal/testutil"
	"pulse/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newUserService(t *testing.T, db *gorm.DB) *service.UserService {
	t.Helper()
	jwtSvc := jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		ExpireTime: time.Hour,
		Issuer:     "pulse-test",
	})
	return service.NewUserService(repository.NewUserRepository(db), jwtSvc, zap.NewNop())
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	user, err := svc.Register("张三", "13800000001", "zs@test.local", "secret1")
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	assert.False(t, user.IsVerified())
	assert.Len(t, *user.OTP, 6)

	// 未验证账户不能登录
	_, _, err = svc.Login("13800000001", "secret1")
	assert.ErrorIs(t, err, service.ErrNotVerified)

	// 错误OTP被拒
	_, _, err = svc.VerifyOTP("13800000001", "000000")
	if *user.OTP != "000000" {
		assert.ErrorIs(t, err, service.ErrInvalidOTP)
	}

	token, verified, err := svc.VerifyOTP("13800000001", *user.OTP)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, verified.IsVerified())

	// 重复提交OTP按无效处理
	_, _, err = svc.VerifyOTP("13800000001", *user.OTP)
	assert.ErrorIs(t, err, service.ErrInvalidOTP)

	// 验证后可登录；邮箱同样可作为身份标识
	token, _, err = svc.Login("zs@test.local", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterWithoutEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	u1, err := svc.Register("张三", "13800000001", "", "secret1")
	require.NoError(t, err)
	assert.Nil(t, u1.Email)

	// 邮箱未填存NULL，第二个未填邮箱的用户不受邮箱唯一索引影响
	u2, err := svc.Register("李四", "13800000002", "", "secret2")
	require.NoError(t, err)
	assert.Nil(t, u2.Email)
}

func TestRegisterDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	_, err := svc.Register("张三", "13800000001", "zs@test.local", "secret1")
	require.NoError(t, err)

	_, err = svc.Register("李四", "13800000001", "ls@test.local", "secret2")
	assert.ErrorIs(t, err, service.ErrDuplicateUser)

	_, err = svc.Register("李四", "13800000002", "zs@test.local", "secret2")
	assert.ErrorIs(t, err, service.ErrDuplicateUser)
}

func TestLoginWrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	user, err := svc.Register("张三", "13800000001", "", "secret1")
	require.NoError(t, err)
	_, _, err = svc.VerifyOTP("13800000001", *user.OTP)
	require.NoError(t, err)

	_, _, err = svc.Login("13800000001", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidPassword)

	// 不存在的身份与密码错误同样表现，不泄露账户存在性
	_, _, err = svc.Login("13899999999", "whatever")
	assert.ErrorIs(t, err, service.ErrInvalidPassword)
}

func TestSearchUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(t, db)

	u, err := svc.Register("张三", "13800000001", "", "secret1")
	require.NoError(t, err)
	_, _, err = svc.VerifyOTP("13800000001", *u.OTP)
	require.NoError(t, err)

	// 手机号精确匹配
	found, err := svc.Search("13800000001")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// 名称前缀匹配
	found, err = svc.Search("张")
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = svc.Search("不存在")
	require.NoError(t, err)
	assert.Empty(t, found)
}
