package consts

const (
	PostDirtyKey      = "vcn:post:dirty"
	VcnPriceKey       = "vcn:price:usd"
	TokenBlacklistKey = "vcn:token:blacklist:"
	ProcessingSuffix  = ":processing"
)
