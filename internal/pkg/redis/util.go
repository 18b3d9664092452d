package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetWithExpiration 写入字符串值
func SetWithExpiration(ctx context.Context, key string, value any, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 键不存在时返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func AddToSet(ctx context.Context, key string, members ...any) error {
	return Rdb.SAdd(ctx, key, members...).Err()
}

func GetSet(ctx context.Context, key string) ([]string, error) {
	return Rdb.SMembers(ctx, key).Result()
}

// MoveKey 将 src 改名为 dst，src 不存在时返回 false
func MoveKey(ctx context.Context, src, dst string) (bool, error) {
	err := Rdb.Rename(ctx, src, dst).Err()
	if err == nil {
		return true, nil
	}
	if strings.Contains(err.Error(), "no such key") {
		return false, nil
	}
	return false, err
}

func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}

func Exists(ctx context.Context, key string) (bool, error) {
	n, err := Rdb.Exists(ctx, key).Result()
	return n > 0, err
}
