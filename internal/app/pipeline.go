package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/health"
	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/provider"
	"github.com/swipeapp-studio/sleep-server/internal/push"
	"github.com/swipeapp-studio/sleep-server/internal/relay"
	"github.com/swipeapp-studio/sleep-server/internal/sink"
	"github.com/swipeapp-studio/sleep-server/internal/storage/gormrepo"
	redisstorage "github.com/swipeapp-studio/sleep-server/internal/storage/redis"
	"github.com/swipeapp-studio/sleep-server/internal/subscription"
)

// Pipeline 组装完成的事件管线
type Pipeline struct {
	Adapter    *provider.Adapter
	Controller *subscription.Controller
	Hub        *push.Hub
	Relay      *relay.Relay
	Sink       *sink.FileSink
	Archive    *gormrepo.Repository
	Redis      *redisstorage.Client
	Health     *health.Aggregator
}

// BuildPipeline 按配置组装事件管线：
// 事件源适配器 → 订阅控制器 →（持久接收方 + 会话接收方）。
// Redis 与数据库都是可选旁路，缺席时管线降级继续工作。
func BuildPipeline(cfg *cfgpkg.Config, m *metrics.AppMetrics, logger *zap.Logger) (*Pipeline, error) {
	fileSink := sink.New(cfg.Sink, logger.With(zap.String("component", "sink")))

	// 去重需要 Redis；两者任一未启用则上报不做去重
	var redisClient *redisstorage.Client
	var deduper *relay.Deduper
	if cfg.Relay.EnableDedup && cfg.Redis.Enabled {
		rc, err := redisstorage.NewClient(cfg.Redis)
		if err != nil {
			logger.Warn("relay dedup disabled: redis unavailable", zap.Error(err))
		} else {
			redisClient = rc
			deduper = relay.NewDeduper(rc.Client, logger.With(zap.String("component", "deduper")), cfg.Relay.DedupTTL)
			logger.Info("relay dedup enabled", zap.Duration("ttl", cfg.Relay.DedupTTL))
		}
	}

	rl := relay.New(cfg.Relay, nil, deduper, m, logger.With(zap.String("component", "relay")))

	archive, err := OpenArchive(cfg.Database, logger)
	if err != nil {
		// 归档连不上不致命：降级为无归档运行
		logger.Warn("event archive unavailable", zap.Error(err))
		archive = nil
	}

	hub := push.NewHub(m, logger.With(zap.String("component", "push")))

	adapter := provider.NewAdapter(
		provider.NewLocalClient(cfg.Provider),
		logger.With(zap.String("component", "provider")),
	)

	receivers := []subscription.Receiver{
		NewDurableReceiver(fileSink, rl, archive, m, logger.With(zap.String("receiver", "durable"))),
		NewSessionReceiver(hub),
	}

	controller := subscription.NewController(
		adapter,
		subscription.StaticPermissions(cfg.Provider.PermissionGranted),
		receivers,
		m,
		logger.With(zap.String("component", "subscription")),
	)

	p := &Pipeline{
		Adapter:    adapter,
		Controller: controller,
		Hub:        hub,
		Relay:      rl,
		Sink:       fileSink,
		Archive:    archive,
		Redis:      redisClient,
	}
	p.Health = buildHealth(cfg, p)
	return p, nil
}

// buildHealth 按实际装配出的组件挂健康检查器，
// 可选旁路（Redis、归档库）缺席时不产生对应检查项
func buildHealth(cfg *cfgpkg.Config, p *Pipeline) *health.Aggregator {
	agg := health.NewAggregator(
		health.NewSinkChecker(cfg.Sink),
		health.NewRelayChecker(p.Relay),
		health.NewSubscriptionChecker(p.Controller),
	)
	if p.Redis != nil {
		agg.AddChecker(health.NewRedisChecker(p.Redis))
	}
	if p.Archive != nil {
		agg.AddChecker(health.NewDatabaseChecker(p.Archive.DB()))
	}
	return agg
}

// Close 关闭推送集线器、等待在途上报结束并释放外部连接
func (p *Pipeline) Close() {
	p.Hub.Close()
	p.Relay.Drain()
	if p.Redis != nil {
		_ = p.Redis.Close()
	}
}
