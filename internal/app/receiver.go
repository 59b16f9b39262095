package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/metrics"
	"github.com/swipeapp-studio/sleep-server/internal/push"
	"github.com/swipeapp-studio/sleep-server/internal/relay"
	"github.com/swipeapp-studio/sleep-server/internal/sink"
	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
	"github.com/swipeapp-studio/sleep-server/internal/storage/gormrepo"
	"github.com/swipeapp-studio/sleep-server/internal/subscription"
)

// 归档写入超时。归档是旁路，不允许拖住投递回调太久。
const archiveTimeout = 3 * time.Second

// DurableReceiver 持久接收方：每条记录落盘一行、逐字段上报远端、
// 可选旁路归档到数据库；生命周期消息落盘原文并以 {"data": …} 上报。
// 三路消费相互独立，任何一路失败都在此吞掉。
type DurableReceiver struct {
	sink    *sink.FileSink
	relay   *relay.Relay
	archive *gormrepo.Repository // 可为 nil（归档未启用）
	metrics *metrics.AppMetrics
	logger  *zap.Logger
}

// NewDurableReceiver 创建持久接收方，archive 可为 nil
func NewDurableReceiver(
	fileSink *sink.FileSink,
	rl *relay.Relay,
	archive *gormrepo.Repository,
	m *metrics.AppMetrics,
	logger *zap.Logger,
) *DurableReceiver {
	return &DurableReceiver{
		sink:    fileSink,
		relay:   rl,
		archive: archive,
		metrics: m,
		logger:  logger,
	}
}

// Name 实现 subscription.Receiver
func (r *DurableReceiver) Name() string { return "durable" }

// OnRecords 按投递内顺序消费每条记录
func (r *DurableReceiver) OnRecords(records []sleepevent.Record) {
	for _, rec := range records {
		r.writeLine(rec.Line())
		r.relay.PostRecord(rec)
		r.archiveRecord(rec)
	}
}

// OnLifecycle 生命周期：落盘消息原文，远端收 {"data": 消息}
func (r *DurableReceiver) OnLifecycle(lc subscription.Lifecycle) {
	r.writeLine(lc.Message())
	r.relay.PostStatus(lc.Message())
}

func (r *DurableReceiver) writeLine(line string) {
	if err := r.sink.Append(line); err != nil {
		// 落盘失败即丢弃该条，不重试，管线继续
		r.logger.Warn("sink append failed", zap.Error(err))
		if r.metrics != nil {
			r.metrics.SinkWrites.WithLabelValues("error").Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.SinkWrites.WithLabelValues("ok").Inc()
	}
}

func (r *DurableReceiver) archiveRecord(rec sleepevent.Record) {
	if r.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := r.archive.SaveRecord(ctx, rec); err != nil {
		r.logger.Warn("record archive failed",
			zap.String("kind", string(rec.Kind)), zap.Error(err))
	}
}

// SessionReceiver 会话接收方：把记录与生命周期结果实时推给
// 命令面的在线订阅方。记录推分号行，生命周期推结果代码。
type SessionReceiver struct {
	hub *push.Hub
}

// NewSessionReceiver 创建会话接收方
func NewSessionReceiver(hub *push.Hub) *SessionReceiver {
	return &SessionReceiver{hub: hub}
}

// Name 实现 subscription.Receiver
func (r *SessionReceiver) Name() string { return "session" }

// OnRecords 逐条推送分号行
func (r *SessionReceiver) OnRecords(records []sleepevent.Record) {
	for _, rec := range records {
		r.hub.Publish(rec.Line())
	}
}

// OnLifecycle 推送结果代码（sleepInitSuccess 等）
func (r *SessionReceiver) OnLifecycle(lc subscription.Lifecycle) {
	r.hub.Publish(lc.Code())
}
