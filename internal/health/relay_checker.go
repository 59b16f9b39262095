package health

import (
	"context"
	"time"

	"github.com/swipeapp-studio/sleep-server/internal/relay"
)

// RelayChecker 远端上报健康检查器。
// 上报是即发即忘的有损通道，配额占满只意味着新载荷被丢弃，
// 进程仍可正常服务，因此最差降级、不判不健康。
type RelayChecker struct {
	relay *relay.Relay
}

// NewRelayChecker 创建上报检查器
func NewRelayChecker(r *relay.Relay) *RelayChecker {
	return &RelayChecker{relay: r}
}

// Name 返回检查器名称
func (c *RelayChecker) Name() string {
	return "relay"
}

// Check 执行健康检查
func (c *RelayChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	used, capacity := c.relay.Inflight()

	status := StatusHealthy
	message := "ok"
	if capacity > 0 && float64(used)/float64(capacity) > 0.8 {
		status = StatusDegraded
		message = "relay inflight near ceiling"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"inflight": used,
			"ceiling":  capacity,
		},
		Latency: time.Since(start),
	}
}
