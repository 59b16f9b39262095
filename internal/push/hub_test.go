package push

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/metrics"
)

func newTestHub() *Hub {
	return NewHub(metrics.NewAppMetrics(metrics.NewRegistry()), zap.NewNop())
}

func TestPublish_ReachesAllSubscribers(t *testing.T) {
	h := newTestHub()
	_, a := h.Subscribe()
	_, b := h.Subscribe()

	h.Publish("sleepClassify;2000;80;3;1;")

	for name, ch := range map[string]<-chan string{"a": a, "b": b} {
		select {
		case line := <-ch:
			if line != "sleepClassify;2000;80;3;1;" {
				t.Fatalf("subscriber %s got %q", name, line)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s got nothing", name)
		}
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	h := newTestHub()
	h.Publish("early;")

	_, ch := h.Subscribe()
	select {
	case line := <-ch:
		t.Fatalf("late subscriber must not see replayed events, got %q", line)
	default:
	}
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	h := newTestHub()
	_, ch := h.Subscribe()

	done := make(chan struct{})
	go func() {
		// 订阅方不消费：超出缓冲后 Publish 仍不得阻塞
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Publish("x;")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered=%d, want full buffer %d", len(ch), subscriberBuffer)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := newTestHub()
	id, ch := h.Subscribe()
	h.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	// 注销后不再计入
	if h.SubscriberCount() != 0 {
		t.Fatalf("subscriber count=%d", h.SubscriberCount())
	}
}

func TestCloseTerminatesAllSubscribers(t *testing.T) {
	h := newTestHub()
	_, a := h.Subscribe()
	h.Close()

	if _, ok := <-a; ok {
		t.Fatalf("subscriber channel should be closed")
	}
	// 关闭后新订阅拿到已关闭通道
	_, b := h.Subscribe()
	if _, ok := <-b; ok {
		t.Fatalf("post-close subscribe should yield a closed channel")
	}
}
