package provider

import (
	"context"
	"time"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
)

// LocalClient 默认提供方客户端。生产部署里投递走 HTTP 上报通道，
// 订阅/退订没有真实的远端往返，按配置延迟后异步确认成功——
// 对应识别提供方正常可用的场景。测试通过注入自定义 Client
// 模拟提供方失败与慢确认。
type LocalClient struct {
	ackDelay time.Duration
}

// NewLocalClient 创建本地客户端
func NewLocalClient(cfg cfgpkg.ProviderConfig) *LocalClient {
	return &LocalClient{ackDelay: cfg.AckDelay}
}

// Arm 异步确认订阅成功
func (c *LocalClient) Arm(ctx context.Context) <-chan error {
	return c.ack(ctx)
}

// Disarm 异步确认退订成功
func (c *LocalClient) Disarm(ctx context.Context) <-chan error {
	return c.ack(ctx)
}

func (c *LocalClient) ack(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() {
		if c.ackDelay > 0 {
			select {
			case <-ctx.Done():
				ch <- ctx.Err()
				return
			case <-time.After(c.ackDelay):
			}
		}
		ch <- nil
	}()
	return ch
}
