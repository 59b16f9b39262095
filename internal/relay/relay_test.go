package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
)

func newTestRelay(endpoint string, maxInflight int) (*Relay, *metrics.AppMetrics) {
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	cfg := cfgpkg.RelayConfig{Endpoint: endpoint, Timeout: 2 * time.Second, MaxInflight: maxInflight}
	return New(cfg, nil, nil, m, zap.NewNop()), m
}

func TestPostRecord_SegmentBody(t *testing.T) {
	bodyCh := make(chan map[string]any, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		bodyCh <- m
		w.WriteHeader(200)
	}))
	defer ts.Close()

	r, _ := newTestRelay(ts.URL, 4)
	r.PostRecord(sleepevent.NewSegmentRecord(sleepevent.SegmentEvent{
		StartTimeMillis: 1000, EndTimeMillis: 5000, Status: 1,
	}))
	r.Drain()

	body := <-bodyCh
	// JSON 数值解码为 float64
	want := map[string]float64{"startTime": 1000, "endTime": 5000, "duration": 4000, "status": 1}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("body[%s]=%v, want %v (full=%v)", k, body[k], v, body)
		}
	}
	if len(body) != len(want) {
		t.Fatalf("unexpected extra fields: %v", body)
	}
}

func TestPostStatus_DataBody(t *testing.T) {
	bodyCh := make(chan map[string]any, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		bodyCh <- m
		w.WriteHeader(200)
	}))
	defer ts.Close()

	r, _ := newTestRelay(ts.URL, 4)
	r.PostStatus("Exception when subscribing to sleep data: network unreachable")
	r.Drain()

	body := <-bodyCh
	if body["data"] != "Exception when subscribing to sleep data: network unreachable" {
		t.Fatalf("data payload=%v", body)
	}
}

func TestInflightCeiling_DropsBeyondLimit(t *testing.T) {
	gate := make(chan struct{})
	var served atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		<-gate
		w.WriteHeader(200)
	}))
	defer ts.Close()

	r, m := newTestRelay(ts.URL, 2)
	for i := 0; i < 5; i++ {
		r.PostStatus("x")
	}
	// 配额在 Post 内同步占用：只有前 2 个拿到槽位，其余立即丢弃
	if got := testutil.ToFloat64(m.RelayDropped); got != 3 {
		close(gate)
		t.Fatalf("dropped=%v, want 3", got)
	}
	close(gate)
	r.Drain()

	if served.Load() != 2 {
		t.Fatalf("served=%d, want 2", served.Load())
	}
	if got := testutil.ToFloat64(m.RelayPosts.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok posts=%v, want 2", got)
	}
}

func TestNon2xxObservedInternally(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	r, m := newTestRelay(ts.URL, 2)
	// 调用方不等待也观察不到失败
	r.PostStatus("x")
	r.Drain()

	if got := testutil.ToFloat64(m.RelayPosts.WithLabelValues("error")); got != 1 {
		t.Fatalf("error posts=%v, want 1", got)
	}
}

func TestUnreachableEndpointNeverBlocksCaller(t *testing.T) {
	cfg := cfgpkg.RelayConfig{Endpoint: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond, MaxInflight: 1}
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	r := New(cfg, nil, nil, m, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.PostStatus("x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Post blocked the caller")
	}
	r.Drain()
}
