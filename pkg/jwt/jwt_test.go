package jwt_test

import (
	"testing"
	"time"

	"pulse/config"
	"pulse/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expire time.Duration) *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		ExpireTime: expire,
		Issuer:     "pulse-test",
	})
}

func TestGenerateAndValidateUserToken(t *testing.T) {
	svc := newTestService(time.Hour)

	token, err := svc.GenerateUserToken(42, "张三")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID())
	assert.Equal(t, "张三", claims.UserName())
}

func TestGenerateUserTokenRequiresID(t *testing.T) {
	svc := newTestService(time.Hour)

	_, err := svc.GenerateUserToken(0, "张三")
	assert.Error(t, err)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestService(time.Hour)

	token, err := svc.GenerateUserToken(42, "张三")
	require.NoError(t, err)

	// 篡改后的令牌
	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	// 其他密钥签发的令牌
	other := jwt.NewJWTService(config.JWTConfig{
		Secret:     "other-secret",
		ExpireTime: time.Hour,
		Issuer:     "pulse-test",
	})
	foreign, err := other.GenerateUserToken(42, "张三")
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, err := svc.GenerateUserToken(42, "张三")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
