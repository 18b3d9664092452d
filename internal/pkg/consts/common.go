package consts

// 令牌中的角色，普通用户不带角色
const (
	RoleAdmin    = "ADMIN"
	RoleInternal = "INTERNAL"
)

// gin.Context 中的身份字段
const (
	CtxUserID = "user_id"
	CtxRoles  = "roles"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
