package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/swipeapp-studio/sleep-server/internal/storage/redis"
)

// RedisChecker Redis 健康检查器。
// Redis 只承担上报去重，失联时去重按未命中放行，
// 功能退化但不中断服务，因此最差降级。
type RedisChecker struct {
	client *redisstorage.Client
}

// NewRedisChecker 创建 Redis 健康检查器
func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 执行健康检查
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed, dedup disabled: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.PoolStats()
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"hits":        stats.Hits,
			"misses":      stats.Misses,
		},
		Latency: time.Since(start),
	}
}
