package redis

import (
	"VCoin/internal/pkg/consts"
	"context"
	"strconv"
	"time"
)

// Cache 基于 Rdb 的查询缓存
type Cache struct{}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return SetWithExpiration(ctx, key, value, ttl)
}

// PriceFeed 从 consts.VcnPriceKey 读取行情服务写入的价格，缺失时使用 fallback
type PriceFeed struct {
	fallback float64
}

func NewPriceFeed(fallback float64) *PriceFeed {
	return &PriceFeed{fallback: fallback}
}

func (p *PriceFeed) VcnPriceUSD(ctx context.Context) (float64, error) {
	raw, err := GetValue(ctx, consts.VcnPriceKey)
	if err != nil {
		return p.fallback, err
	}
	if raw == "" {
		return p.fallback, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return p.fallback, nil
	}
	return price, nil
}

// MarkPostDirty 记录计数变化的帖子，由质量分刷新任务消费
func MarkPostDirty(ctx context.Context, postID uint64) error {
	return AddToSet(ctx, consts.PostDirtyKey, strconv.FormatUint(postID, 10))
}

// IsTokenRevoked 账号服务登出时以令牌签名写入黑名单
func IsTokenRevoked(ctx context.Context, signature string) (bool, error) {
	return Exists(ctx, consts.TokenBlacklistKey+signature)
}
