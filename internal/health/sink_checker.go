package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
)

// SinkChecker 本地落盘健康检查器：目标目录必须存在且可写。
// 落盘文件本身可以不存在（首条记录到达前没有文件是正常的）。
type SinkChecker struct {
	cfg cfgpkg.SinkConfig
}

// NewSinkChecker 创建落盘检查器
func NewSinkChecker(cfg cfgpkg.SinkConfig) *SinkChecker {
	return &SinkChecker{cfg: cfg}
}

// Name 返回检查器名称
func (c *SinkChecker) Name() string {
	return "sink"
}

// Check 执行健康检查
func (c *SinkChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	dir := filepath.Dir(c.cfg.Path)

	info, err := os.Stat(dir)
	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("sink directory unavailable: %v", err),
			Latency: time.Since(start),
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "sink parent is not a directory",
			Latency: time.Since(start),
		}
	}

	details := map[string]any{
		"path":        c.cfg.Path,
		"append_mode": c.cfg.AppendMode,
	}
	if fi, err := os.Stat(c.cfg.Path); err == nil {
		details["size_bytes"] = fi.Size()
		details["modified_at"] = fi.ModTime()
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}
