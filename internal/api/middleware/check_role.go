package middleware

import (
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/response"
	log "log/slog"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 持有任意一个指定角色才能访问，需在 AuthMiddleware 之后使用
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(consts.CtxRoles)
		allowed := slices.ContainsFunc(roles, func(r string) bool {
			return slices.Contains(requiredRoles, r)
		})
		if !allowed {
			log.WarnContext(c.Request.Context(), "role check denied",
				"userID", c.GetUint64(consts.CtxUserID),
				"path", c.FullPath(),
				"required", requiredRoles)
			abort(c, response.Forbidden, "权限不足：无权访问该资源")
			return
		}
		c.Next()
	}
}
