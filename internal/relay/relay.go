package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
)

// Relay 远端采集上报器。Post 即发即忘：调用方不等待、
// 也观察不到 HTTP 结果，成功与失败只在内部记录（日志+指标）。
// 在途请求数由 slots 限制，占满时直接丢弃新载荷，不排队不重试，
// 保证终端长期不可达时既不阻塞调用方也不泄漏积压请求。
type Relay struct {
	client   *http.Client
	endpoint string
	deduper  *Deduper
	metrics  *metrics.AppMetrics
	logger   *zap.Logger

	slots chan struct{}
	wg    sync.WaitGroup
}

// New 创建上报器。client 为 nil 时使用带配置超时的默认客户端。
func New(cfg cfgpkg.RelayConfig, client *http.Client, deduper *Deduper, m *metrics.AppMetrics, logger *zap.Logger) *Relay {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = 32
	}
	return &Relay{
		client:   client,
		endpoint: cfg.Endpoint,
		deduper:  deduper,
		metrics:  m,
		logger:   logger,
		slots:    make(chan struct{}, maxInflight),
	}
}

// Post 即发即忘地上报任意 JSON 载荷。
// 在途配额占满时丢弃并计数，调用方永远不被阻塞。
func (r *Relay) Post(payload map[string]any) {
	select {
	case r.slots <- struct{}{}:
	default:
		r.logger.Warn("relay inflight ceiling reached, payload dropped",
			zap.Int("ceiling", cap(r.slots)))
		if r.metrics != nil {
			r.metrics.RelayDropped.Inc()
		}
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.slots }()
		r.send(payload)
	}()
}

// PostRecord 上报一条规范化记录（逐字段 JSON）。
// 启用去重时以 (kind, 时间戳, 取值元组) 为键跳过重复记录；
// 去重查询失败按未命中处理，宁可重复不可漏报。
func (r *Relay) PostRecord(rec sleepevent.Record) {
	if r.deduper != nil {
		dup, err := r.deduper.Seen(context.Background(), rec.DedupKey())
		if err == nil && dup {
			r.logger.Debug("duplicate record skipped", zap.String("key", rec.DedupKey()))
			if r.metrics != nil {
				r.metrics.RelayDedupSkipped.Inc()
			}
			return
		}
	}
	r.Post(rec.RelayPayload())
}

// PostStatus 上报一条生命周期文本消息，载荷固定为 {"data": message}。
// 生命周期消息不参与去重。
func (r *Relay) PostStatus(message string) {
	r.Post(map[string]any{"data": message})
}

// send 执行真正的 HTTP POST，结果仅在内部观察
func (r *Relay) send(payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("relay marshal failed", zap.Error(err))
		r.observe(false)
		return
	}

	req, err := http.NewRequest(http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		r.logger.Error("relay build request failed", zap.Error(err))
		r.observe(false)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("relay post failed", zap.String("endpoint", r.endpoint), zap.Error(err))
		r.observe(false)
		return
	}
	// 响应体内容没有契约约束，读干净以复用连接即可
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("relay post non-2xx", zap.Int("status", resp.StatusCode))
		r.observe(false)
		return
	}
	r.observe(true)
}

func (r *Relay) observe(ok bool) {
	if r.metrics == nil {
		return
	}
	if ok {
		r.metrics.RelayPosts.WithLabelValues("ok").Inc()
	} else {
		r.metrics.RelayPosts.WithLabelValues("error").Inc()
	}
}

// Inflight 当前在途请求数与配额上限
func (r *Relay) Inflight() (used, capacity int) {
	return len(r.slots), cap(r.slots)
}

// Drain 等待全部在途请求结束，进程关闭与测试使用
func (r *Relay) Drain() {
	r.wg.Wait()
}
