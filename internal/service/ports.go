package service

import (
	"VCoin/internal/api/dto"
	"context"
	log "log/slog"
	"time"
)

// Cache 查询结果缓存，未命中返回空串
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// PriceProvider VCN 美元价格来源
type PriceProvider interface {
	VcnPriceUSD(ctx context.Context) (float64, error)
}

// EventPublisher 对外事件发布
type EventPublisher interface {
	PublishCredit(ctx context.Context, event *dto.CreditEvent) error
	PublishBotFlag(ctx context.Context, event *dto.BotFlagEvent) error
}

// NopPublisher 未启用 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) PublishCredit(ctx context.Context, event *dto.CreditEvent) error {
	log.DebugContext(ctx, "credit event dropped", "userID", event.UserID, "txID", event.TxID)
	return nil
}

func (NopPublisher) PublishBotFlag(ctx context.Context, event *dto.BotFlagEvent) error {
	log.DebugContext(ctx, "bot flag event dropped", "userID", event.UserID, "flagType", event.FlagType)
	return nil
}

// StaticPrice 固定价格
type StaticPrice float64

func (p StaticPrice) VcnPriceUSD(context.Context) (float64, error) {
	return float64(p), nil
}
