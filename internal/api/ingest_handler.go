package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/provider"
	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
)

// IngestHandler 提供方投递入口。识别提供方（或其网关）把一次
// 投递以 JSON POST 进来，经限流与形态校验后交给事件源适配器。
// 无监听器在册（未订阅）时投递被拒绝并计数。
type IngestHandler struct {
	adapter *provider.Adapter
	limiter *rate.Limiter
	metrics *metrics.AppMetrics
	logger  *zap.Logger
}

// NewIngestHandler 创建投递入口处理器
func NewIngestHandler(cfg cfgpkg.IngestConfig, adapter *provider.Adapter, m *metrics.AppMetrics, logger *zap.Logger) *IngestHandler {
	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 100
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = ratePerSec * 2
	}
	return &IngestHandler{
		adapter: adapter,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		metrics: m,
		logger:  logger,
	}
}

// Deliver 接收一次提供方投递
func (h *IngestHandler) Deliver(c *gin.Context) {
	if !h.limiter.Allow() {
		h.reject(rejectRateLimited)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "ingest rate limit exceeded"})
		return
	}

	var d sleepevent.Delivery
	if err := c.ShouldBindJSON(&d); err != nil {
		h.reject(rejectMalformed)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery body: " + err.Error()})
		return
	}

	// 形态粗校验：空投递与混合投递直接拒收。
	// 字段级校验（负时长、越界置信度）留给规范化阶段按投递丢弃。
	hasSeg, hasCls := len(d.Segments) > 0, len(d.Classifies) > 0
	if hasSeg == hasCls {
		h.reject(rejectMalformed)
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery must carry exactly one event kind"})
		return
	}

	if !h.adapter.Deliver(d) {
		h.reject(rejectUnsubscribed)
		c.JSON(http.StatusConflict, gin.H{"error": "no active sleep subscription"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (h *IngestHandler) reject(reason string) {
	if h.metrics != nil {
		h.metrics.IngestRejected.WithLabelValues(reason).Inc()
	}
}
