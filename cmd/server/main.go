package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/swipeapp-studio/sleep-server/internal/api"
	"github.com/swipeapp-studio/sleep-server/internal/app"
	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/health"
	"github.com/swipeapp-studio/sleep-server/internal/httpserver"
	"github.com/swipeapp-studio/sleep-server/internal/logging"
	"github.com/swipeapp-studio/sleep-server/internal/metrics"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	serverID := app.GenerateServerID()
	log.Info("starting", zap.String("server_id", serverID), zap.String("env", cfg.App.Env))

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	appMetrics := metrics.NewAppMetrics(reg)
	metricsHandler := metrics.Handler(reg)

	// 4) 组装事件管线
	pipeline, err := app.BuildPipeline(cfg, appMetrics, log)
	if err != nil {
		log.Fatal("pipeline build error", zap.Error(err))
	}
	defer pipeline.Close()

	// 5) 命令面与投递入口
	sleepHandler := api.NewSleepHandler(pipeline.Controller, pipeline.Hub, log.With(zap.String("component", "api")))
	ingestHandler := api.NewIngestHandler(cfg.Ingest, pipeline.Adapter, appMetrics, log.With(zap.String("component", "ingest")))

	// 6) HTTP 服务
	readyFn := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return pipeline.Health.Ready(ctx)
	}
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn, func(r *gin.Engine) {
		api.RegisterRoutes(r, sleepHandler, ingestHandler)
		health.RegisterHTTPRoutes(r, pipeline.Health)
	})

	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// 信号处理，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
}
