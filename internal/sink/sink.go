package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
)

// FileSink 本地落盘。默认（截断模式）下每次 Append 都以
// O_TRUNC 重建目标文件，文件里只保留最近一次写入的行——
// 这是对原始系统行为的保留，调用方不能假设历史行存活。
// AppendMode 开启后改为 O_APPEND 追加写，并持有进程内互斥锁
// 串行化并发写入。
type FileSink struct {
	path       string
	appendMode bool
	logger     *zap.Logger

	mu sync.Mutex // 仅追加模式下串行化写入
}

// New 创建文件落盘器，并确保目标目录存在
func New(cfg cfgpkg.SinkConfig, logger *zap.Logger) *FileSink {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		// 目录创建失败不致命：Append 时会再次报错并被上层吞掉
		_ = os.MkdirAll(dir, 0o755)
	}
	return &FileSink{
		path:       cfg.Path,
		appendMode: cfg.AppendMode,
		logger:     logger,
	}
}

// Append 写入一行（自动补换行）。每次调用自成一体
// （打开/写入/关闭），跨调用不持锁；失败返回错误，
// 由调用方记录后继续，绝不向上致命传播。
func (s *FileSink) Append(line string) error {
	if s.appendMode {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.write(os.O_CREATE|os.O_WRONLY|os.O_APPEND, line)
	}
	return s.write(os.O_CREATE|os.O_WRONLY|os.O_TRUNC, line)
}

func (s *FileSink) write(flag int, line string) error {
	f, err := os.OpenFile(s.path, flag, 0o644)
	if err != nil {
		s.logger.Warn("sink open failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("open sink file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line + "\n"); err != nil {
		s.logger.Warn("sink write failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("write sink file: %w", err)
	}
	return nil
}

// Path 返回目标文件路径
func (s *FileSink) Path() string { return s.path }
