package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 事件管线业务指标
type AppMetrics struct {
	DeliveriesReceived *prometheus.CounterVec // labels: kind=segment|classify
	NormalizeErrors    prometheus.Counter
	RecordsFanout      *prometheus.CounterVec // labels: receiver
	SinkWrites         *prometheus.CounterVec // labels: result=ok|error
	RelayPosts         *prometheus.CounterVec // labels: result=ok|error
	RelayDropped       prometheus.Counter     // 在途配额占满被丢弃
	RelayDedupSkipped  prometheus.Counter     // 去重命中跳过
	PushDropped        prometheus.Counter     // 订阅方消费过慢被丢弃
	IngestRejected     *prometheus.CounterVec // labels: reason=rate_limited|malformed|unsubscribed
	SubscriptionState  prometheus.Gauge       // 0=unsubscribed 1=pending 2=subscribed
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		DeliveriesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_deliveries_received_total",
			Help: "Provider deliveries received, by raw event kind.",
		}, []string{"kind"}),
		NormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_normalize_errors_total",
			Help: "Deliveries dropped due to normalization errors.",
		}),
		RecordsFanout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_records_fanout_total",
			Help: "Canonical records dispatched, by receiver.",
		}, []string{"receiver"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_sink_write_total",
			Help: "Local sink write attempts.",
		}, []string{"result"}),
		RelayPosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_relay_post_total",
			Help: "Remote relay POST attempts.",
		}, []string{"result"}),
		RelayDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_relay_dropped_total",
			Help: "Relay payloads dropped because the inflight ceiling was reached.",
		}),
		RelayDedupSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_relay_dedup_skipped_total",
			Help: "Relay payloads skipped by the duplicate suppressor.",
		}),
		PushDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_push_dropped_total",
			Help: "Live push notifications dropped on slow subscribers.",
		}),
		IngestRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_ingest_rejected_total",
			Help: "Provider ingest requests rejected, by reason.",
		}, []string{"reason"}),
		SubscriptionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sleep_subscription_state",
			Help: "Current subscription state (0=unsubscribed, 1=pending, 2=subscribed).",
		}),
	}
	reg.MustRegister(
		m.DeliveriesReceived, m.NormalizeErrors, m.RecordsFanout,
		m.SinkWrites, m.RelayPosts, m.RelayDropped, m.RelayDedupSkipped,
		m.PushDropped, m.IngestRejected, m.SubscriptionState,
	)
	return m
}
