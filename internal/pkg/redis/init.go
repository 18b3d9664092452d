package redis

import (
	"VCoin/internal/api/config"
	"VCoin/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const pingTimeout = 3 * time.Second

// Rdb 缓存、脏帖集合、价格与令牌黑名单共用的客户端
var Rdb *redis.Client

// InitRedis 连接成功后才替换 Rdb
func InitRedis(cfg config.RedisConfig) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	rdb.AddHook(logger.NewRedisLogger(time.Duration(cfg.SlowThreshold) * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	Rdb = rdb
	log.Info("Redis connection established.", "addr", cfg.Addr)
	return nil
}

// CloseRedis 进程退出时调用
func CloseRedis() error {
	if Rdb == nil {
		return nil
	}
	return Rdb.Close()
}
