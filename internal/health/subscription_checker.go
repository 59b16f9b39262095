package health

import (
	"context"
	"time"

	"github.com/swipeapp-studio/sleep-server/internal/subscription"
)

// SubscriptionChecker 订阅状态检查器。
// 未订阅是合法的常驻状态（服务随时等待 start 命令），
// 因此只上报当前状态，永远健康。
type SubscriptionChecker struct {
	ctrl *subscription.Controller
}

// NewSubscriptionChecker 创建订阅状态检查器
func NewSubscriptionChecker(ctrl *subscription.Controller) *SubscriptionChecker {
	return &SubscriptionChecker{ctrl: ctrl}
}

// Name 返回检查器名称
func (c *SubscriptionChecker) Name() string {
	return "subscription"
}

// Check 执行健康检查
func (c *SubscriptionChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{
			"state": c.ctrl.State().String(),
		},
		Latency: time.Since(start),
	}
}
