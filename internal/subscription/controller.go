package subscription

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/provider"
	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
)

// Permissions 系统权限授予查询（二值结果的黑盒）
type Permissions interface {
	Granted(ctx context.Context) bool
}

// StaticPermissions 按固定结果应答的权限实现，配置驱动
type StaticPermissions bool

// Granted 返回固定授予结果
func (p StaticPermissions) Granted(context.Context) bool { return bool(p) }

// Receiver 管线的事件接收方。同一投递的记录会独立地交给每个
// 接收方，任何一个失败都不影响其余接收方，也不中断回调链路。
type Receiver interface {
	Name() string
	OnRecords(records []sleepevent.Record)
	OnLifecycle(lc Lifecycle)
}

// Controller 订阅控制器。独占持有订阅状态机，串起
// 权限检查 → 适配器订阅 → 投递规范化 → 多路接收方分发。
type Controller struct {
	adapter   *provider.Adapter
	perms     Permissions
	receivers []Receiver
	metrics   *metrics.AppMetrics
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// NewController 创建控制器，初始状态 Unsubscribed
func NewController(
	adapter *provider.Adapter,
	perms Permissions,
	receivers []Receiver,
	m *metrics.AppMetrics,
	logger *zap.Logger,
) *Controller {
	c := &Controller{
		adapter:   adapter,
		perms:     perms,
		receivers: receivers,
		metrics:   m,
		logger:    logger,
		state:     Unsubscribed,
	}
	c.observeState(Unsubscribed)
	return c
}

// State 当前订阅状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start 开启订阅。每次调用解析为恰好一个终态：
// nil，ErrPermissionDenied，ErrTransitionInFlight，或包装后的提供方失败。
// 已订阅时重新注册监听器（最后注册者胜出）并直接成功，
// 不会因此发出重复的 SubscribeSucceeded 通知。
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Pending:
		c.mu.Unlock()
		return ErrTransitionInFlight
	case Subscribed:
		c.mu.Unlock()
		// 适配器已武装，重注册不经过提供方确认往返
		if err := <-c.adapter.Subscribe(ctx, c); err != nil {
			return fmt.Errorf("re-register listener: %w", err)
		}
		return nil
	}

	// Unsubscribed：先过权限门。权限被拒不触达提供方，
	// 状态保持 Unsubscribed，也不发生命周期通知。
	if !c.perms.Granted(ctx) {
		c.mu.Unlock()
		c.logger.Warn("start rejected: permission denied")
		return ErrPermissionDenied
	}

	c.setStateLocked(Pending)
	c.mu.Unlock()

	err := <-c.adapter.Subscribe(ctx, c)

	c.mu.Lock()
	if err != nil {
		c.setStateLocked(Unsubscribed)
		c.mu.Unlock()
		lc := Lifecycle{Op: OpSubscribe, OK: false, Reason: err.Error()}
		c.logger.Warn("provider subscribe failed", zap.Error(err))
		c.fanoutLifecycle(lc)
		return fmt.Errorf("provider subscribe: %w", err)
	}
	c.setStateLocked(Subscribed)
	c.mu.Unlock()

	c.logger.Info("subscribed to sleep updates")
	c.fanoutLifecycle(Lifecycle{Op: OpSubscribe, OK: true})
	return nil
}

// Stop 关闭订阅。从未订阅时幂等成功，不触达提供方、不发通知。
// 退订失败时订阅依旧存活，状态回到 Subscribed。
// Stop 只拦截后续投递：已经进入管线的投递不会被取消。
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Pending:
		c.mu.Unlock()
		return ErrTransitionInFlight
	case Unsubscribed:
		c.mu.Unlock()
		return nil
	}

	c.setStateLocked(Pending)
	c.mu.Unlock()

	err := <-c.adapter.Unsubscribe(ctx)

	c.mu.Lock()
	if err != nil {
		c.setStateLocked(Subscribed)
		c.mu.Unlock()
		lc := Lifecycle{Op: OpUnsubscribe, OK: false, Reason: err.Error()}
		c.logger.Warn("provider unsubscribe failed", zap.Error(err))
		c.fanoutLifecycle(lc)
		return fmt.Errorf("provider unsubscribe: %w", err)
	}
	c.setStateLocked(Unsubscribed)
	c.mu.Unlock()

	c.logger.Info("unsubscribed from sleep updates")
	c.fanoutLifecycle(Lifecycle{Op: OpUnsubscribe, OK: true})
	return nil
}

// OnDelivery 实现 provider.Listener。规范化一次投递并把记录
// 按原始顺序分发给每个接收方。畸形投递丢弃并计数，回调链路继续存活。
func (c *Controller) OnDelivery(d sleepevent.Delivery) {
	if c.metrics != nil {
		if len(d.Segments) > 0 {
			c.metrics.DeliveriesReceived.WithLabelValues("segment").Inc()
		} else {
			c.metrics.DeliveriesReceived.WithLabelValues("classify").Inc()
		}
	}

	records, err := sleepevent.Normalize(d)
	if err != nil {
		c.logger.Warn("delivery dropped", zap.Error(err))
		if c.metrics != nil {
			c.metrics.NormalizeErrors.Inc()
		}
		return
	}

	for _, r := range c.receivers {
		c.dispatch(r, records)
	}
}

// dispatch 单接收方分发，panic 隔离：任何接收方出错都不得
// 杀死投递回调，否则后续提供方投递会静默停摆。
func (c *Controller) dispatch(r Receiver, records []sleepevent.Record) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("receiver panicked on records",
				zap.String("receiver", r.Name()), zap.Any("panic", rec))
		}
	}()
	r.OnRecords(records)
	if c.metrics != nil {
		c.metrics.RecordsFanout.WithLabelValues(r.Name()).Add(float64(len(records)))
	}
}

// fanoutLifecycle 生命周期通知分发，同样 panic 隔离
func (c *Controller) fanoutLifecycle(lc Lifecycle) {
	for _, r := range c.receivers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.Error("receiver panicked on lifecycle",
						zap.String("receiver", r.Name()), zap.Any("panic", rec))
				}
			}()
			r.OnLifecycle(lc)
		}()
	}
}

// setStateLocked 调用方必须已持有 c.mu
func (c *Controller) setStateLocked(s State) {
	c.state = s
	c.observeState(s)
}

func (c *Controller) observeState(s State) {
	if c.metrics != nil {
		c.metrics.SubscriptionState.Set(float64(s))
	}
}
