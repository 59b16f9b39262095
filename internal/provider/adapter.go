package provider

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
)

// Listener 接收提供方投递的回调。投递可能来自任意 goroutine，
// 实现方必须自行保证并发安全。
type Listener interface {
	OnDelivery(d sleepevent.Delivery)
}

// Client 对接真实识别提供方的订阅原语。
// Arm/Disarm 返回的通道恰好解析一次：nil 表示提供方确认成功，
// 非 nil 为失败原因。提供方层面的失败一律走错误值，不允许 panic。
type Client interface {
	Arm(ctx context.Context) <-chan error
	Disarm(ctx context.Context) <-chan error
}

// Adapter 事件源适配器。包装提供方的订阅/退订调用，
// 把原始投递交给当前注册的监听器。同一时刻至多一个监听器，
// 重复 Subscribe 以最后一次注册为准。
type Adapter struct {
	client Client
	logger *zap.Logger

	mu       sync.RWMutex
	listener Listener
	armed    bool
}

// NewAdapter 创建适配器
func NewAdapter(client Client, logger *zap.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// Subscribe 注册监听器并请求提供方开启订阅。
// 返回的通道异步解析恰好一次。已处于订阅态时仅替换监听器
// （最后注册者胜出），不再走提供方确认往返，立即解析成功。
func (a *Adapter) Subscribe(ctx context.Context, l Listener) <-chan error {
	a.mu.Lock()
	a.listener = l
	alreadyArmed := a.armed
	a.mu.Unlock()

	result := make(chan error, 1)
	if alreadyArmed {
		a.logger.Debug("listener re-registered on armed adapter")
		result <- nil
		return result
	}

	ack := a.client.Arm(ctx)
	go func() {
		err := <-ack
		if err == nil {
			a.mu.Lock()
			a.armed = true
			a.mu.Unlock()
		} else {
			// 订阅失败，回收监听器
			a.mu.Lock()
			a.listener = nil
			a.mu.Unlock()
		}
		result <- err
	}()
	return result
}

// Unsubscribe 请求提供方关闭订阅并注销监听器。
// 未订阅时幂等成功。提供方退订失败时保留现场（监听器与订阅态不变）。
func (a *Adapter) Unsubscribe(ctx context.Context) <-chan error {
	a.mu.Lock()
	armed := a.armed
	a.mu.Unlock()

	result := make(chan error, 1)
	if !armed {
		result <- nil
		return result
	}

	ack := a.client.Disarm(ctx)
	go func() {
		err := <-ack
		if err == nil {
			a.mu.Lock()
			a.armed = false
			a.listener = nil
			a.mu.Unlock()
		}
		result <- err
	}()
	return result
}

// Deliver 把一次原始投递交给当前监听器。
// 无监听器时返回 false，由调用方决定丢弃策略。
func (a *Adapter) Deliver(d sleepevent.Delivery) bool {
	a.mu.RLock()
	l := a.listener
	a.mu.RUnlock()

	if l == nil {
		return false
	}
	l.OnDelivery(d)
	return true
}

// Armed 当前是否处于订阅态
func (a *Adapter) Armed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.armed
}
