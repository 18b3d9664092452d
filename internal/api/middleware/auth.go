package middleware

import (
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/response"
	"VCoin/internal/pkg/security"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// RevocationChecker 判断令牌签名是否已被账号服务吊销
type RevocationChecker func(ctx context.Context, signature string) (bool, error)

// AuthMiddleware 验证 Bearer 令牌，将 user_id 与 roles 写入 Context
func AuthMiddleware(isRevoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abort(c, response.Unauthorized, "Token 缺失或格式错误")
			return
		}
		signature, err := security.Signature(tokenString)
		if err != nil {
			abort(c, response.Unauthorized, "Token 缺失或格式错误")
			return
		}

		claims, err := security.ParseToken(tokenString)
		if err != nil {
			abort(c, response.Unauthorized, "Token 无效或已过期")
			return
		}

		if isRevoked != nil {
			revoked, err := isRevoked(c.Request.Context(), signature)
			if err != nil {
				log.ErrorContext(c.Request.Context(), "check token revocation error", "err", err)
				abort(c, response.InternalServerError, "未知错误")
				return
			}
			if revoked {
				abort(c, response.Unauthorized, "Token 无效或已过期")
				return
			}
		}

		c.Set(consts.CtxUserID, claims.UserID)
		c.Set(consts.CtxRoles, claims.Roles)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func abort(c *gin.Context, code int, message string) {
	response.Fail(c, code, message)
	c.Abort()
}
