package security

import (
	"VCoin/internal/api/config"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌过期校验允许的时钟偏差
const clockLeeway = 30 * time.Second

var (
	jwtSecret = []byte("vcoin")
	jwtIssuer = "VCoin"
)

// InitJWT 使用配置中的密钥，用户令牌由账号服务签发
func InitJWT(cfg config.JWTConfig) {
	if cfg.Secret != "" {
		jwtSecret = []byte(cfg.Secret)
	}
	if cfg.Issuer != "" {
		jwtIssuer = cfg.Issuer
	}
}

// UserClaims 账号服务签发的令牌内容，内部调用方的 UserID 为 0
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasAnyRole 持有 roles 中任意一个
func (c *UserClaims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool {
		return slices.Contains(roles, r)
	})
}
