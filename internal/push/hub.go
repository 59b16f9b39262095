package push

import (
	"sync"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/metrics"
)

// 每个订阅方的通道缓冲。写满说明消费过慢，直接丢弃该条通知。
const subscriberBuffer = 64

// Hub 实时事件推送集线器。规范化记录与生命周期消息按到达顺序
// 推给当前在线的订阅方；不缓冲不回放，晚到的订阅方看不到此前的事件。
// Publish 永不阻塞：慢订阅方丢消息，不拖垮事件回调链路。
type Hub struct {
	logger  *zap.Logger
	metrics *metrics.AppMetrics

	mu     sync.Mutex
	subs   map[uint64]chan string
	nextID uint64
	closed bool
}

// NewHub 创建推送集线器
func NewHub(m *metrics.AppMetrics, logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		metrics: m,
		subs:    make(map[uint64]chan string),
	}
}

// Subscribe 注册一个订阅方，返回其 ID 与只读消息通道。
// Hub 已关闭时返回的通道是已关闭的空通道。
func (h *Hub) Subscribe() (uint64, <-chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan string, subscriberBuffer)
	if h.closed {
		close(ch)
		return 0, ch
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe 注销订阅方并关闭其通道
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish 把一条消息推给所有在线订阅方，永不阻塞
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- line:
		default:
			h.logger.Debug("slow push subscriber, notification dropped", zap.Uint64("subscriber", id))
			if h.metrics != nil {
				h.metrics.PushDropped.Inc()
			}
		}
	}
}

// SubscriberCount 当前在线订阅方数量
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close 关闭集线器与所有订阅通道
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
