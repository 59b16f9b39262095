package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// 去重 Key 前缀
	dedupKeyPrefix = "sleep:relay:dedup"

	// DefaultDedupTTL 默认去重窗口（1小时）
	DefaultDedupTTL = time.Hour
)

// Deduper 记录级去重器（基于 Redis SetNX 实现）。
// 两路并行接收注册会把同一逻辑事件各自上报一次，
// 远端要求恰一次语义时在此按 (kind, 时间戳, 取值元组) 抑制。
type Deduper struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewDeduper 创建去重器
func NewDeduper(redisClient *redis.Client, logger *zap.Logger, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduper{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// Seen 检查去重键是否已出现过。
// 首次出现时原子置位并返回 false；已存在返回 true。
func (d *Deduper) Seen(ctx context.Context, key string) (bool, error) {
	if d == nil || d.redis == nil {
		return false, fmt.Errorf("deduper not initialized")
	}
	if key == "" {
		return false, fmt.Errorf("dedup key is empty")
	}

	// SetNX 成功表示首次出现
	first, err := d.redis.SetNX(ctx, d.buildKey(key), "1", d.ttl).Result()
	if err != nil {
		d.logger.Error("dedup check failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return !first, nil
}

func (d *Deduper) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", dedupKeyPrefix, key)
}
