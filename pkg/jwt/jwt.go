package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"pulse/config"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWTService 访问令牌的签发与校验（HS256对称密钥）
// 令牌约定：Subject存放十进制用户ID，Data仅存放展示名称等非敏感字段
type JWTService struct {
	secretKey   []byte
	issuer      string
	expireAfter time.Duration
}

// CustomClaims 自定义声明载荷
type CustomClaims struct {
	Data map[string]interface{} `json:"data,omitempty"`
	jwtv5.RegisteredClaims
}

// Data中展示名称的键名
const claimNameKey = "name"

// UserID 从Subject解析用户ID，解析失败返回0
func (c *CustomClaims) UserID() uint {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// UserName 取出签发时写入的展示名称
func (c *CustomClaims) UserName() string {
	if c.Data != nil {
		if n, ok := c.Data[claimNameKey].(string); ok {
			return n
		}
	}
	return ""
}

// NewJWTService 创建JWT服务
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey:   []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		expireAfter: cfg.ExpireTime,
	}
}

// GenerateUserToken 为指定用户签发访问令牌
func (s *JWTService) GenerateUserToken(userID uint, name string) (string, error) {
	if userID == 0 {
		return "", errors.New("用户ID不能为空")
	}

	now := time.Now()
	claims := &CustomClaims{
		Data: map[string]interface{}{claimNameKey: name},
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.expireAfter)),
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// ValidateToken 校验并解析令牌
func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}

	claims := &CustomClaims{}
	parsedToken, err := jwtv5.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwtv5.Token) (interface{}, error) {
			if token.Method != jwtv5.SigningMethodHS256 {
				return nil, fmt.Errorf("不支持的签名方法: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		},
		jwtv5.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("解析令牌失败: %w", err)
	}
	if !parsedToken.Valid {
		return nil, errors.New("令牌无效")
	}
	return claims, nil
}
