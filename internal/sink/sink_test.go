package sink

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
)

func TestTruncateMode_OnlyLastLineSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sleep2.csv")
	s := New(cfgpkg.SinkConfig{Path: path}, zap.NewNop())

	if err := s.Append("sleepSegment;1000;5000;4000;1;"); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append("sleepClassify;2000;80;3;1;"); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "sleepClassify;2000;80;3;1;\n" {
		t.Fatalf("truncate mode must keep only the last line, got %q", string(data))
	}
}

func TestAppendMode_AccumulatesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sleep2.csv")
	s := New(cfgpkg.SinkConfig{Path: path, AppendMode: true}, zap.NewNop())

	if err := s.Append("line-1;"); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append("line-2;"); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "line-1;\nline-2;\n" {
		t.Fatalf("append mode must keep both lines, got %q", string(data))
	}
}

func TestAppend_ErrorIsReturnedNotFatal(t *testing.T) {
	// 用占位文件挡住目录创建：Append 必须报错而非 panic
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "not-a-dir"), nil, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	path := filepath.Join(base, "not-a-dir", "sleep2.csv")
	s := New(cfgpkg.SinkConfig{Path: path}, zap.NewNop())
	if err := s.Append("x;"); err == nil {
		t.Fatalf("expected an io error for unwritable path")
	}
}

func TestMkdirTarget(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	path := filepath.Join(dir, "sleep2.csv")
	s := New(cfgpkg.SinkConfig{Path: path}, zap.NewNop())
	if err := s.Append("x;"); err != nil {
		t.Fatalf("append into nested dir: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file missing: %v", err)
	}
}
