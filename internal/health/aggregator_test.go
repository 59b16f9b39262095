package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
)

type stubChecker struct {
	name   string
	result CheckResult
}

func (s *stubChecker) Name() string                        { return s.name }
func (s *stubChecker) Check(_ context.Context) CheckResult { return s.result }

func TestOverallStatus_WorstWins(t *testing.T) {
	ctx := context.Background()

	agg := NewAggregator(
		&stubChecker{name: "a", result: CheckResult{Status: StatusHealthy}},
		&stubChecker{name: "b", result: CheckResult{Status: StatusHealthy}},
	)
	if got := agg.OverallStatus(ctx); got != StatusHealthy {
		t.Fatalf("OverallStatus() = %v, want healthy", got)
	}

	agg.AddChecker(&stubChecker{name: "c", result: CheckResult{Status: StatusDegraded}})
	if got := agg.OverallStatus(ctx); got != StatusDegraded {
		t.Fatalf("OverallStatus() = %v, want degraded", got)
	}

	agg.AddChecker(&stubChecker{name: "d", result: CheckResult{Status: StatusUnhealthy}})
	if got := agg.OverallStatus(ctx); got != StatusUnhealthy {
		t.Fatalf("OverallStatus() = %v, want unhealthy", got)
	}
}

func TestReady_DegradedStillReady(t *testing.T) {
	ctx := context.Background()

	agg := NewAggregator(&stubChecker{name: "a", result: CheckResult{Status: StatusDegraded}})
	if !agg.Ready(ctx) {
		t.Fatalf("degraded aggregator should be ready")
	}

	agg.AddChecker(&stubChecker{name: "b", result: CheckResult{Status: StatusUnhealthy}})
	if agg.Ready(ctx) {
		t.Fatalf("unhealthy aggregator should not be ready")
	}
}

func TestSinkChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sleep2.csv")

	c := NewSinkChecker(cfgpkg.SinkConfig{Path: path})
	if got := c.Check(context.Background()); got.Status != StatusHealthy {
		t.Fatalf("Check() = %v (%s), want healthy", got.Status, got.Message)
	}

	// 文件已存在时附带明细
	if err := os.WriteFile(path, []byte("sleepSegment;1;2;1;0;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := c.Check(context.Background())
	if got.Status != StatusHealthy {
		t.Fatalf("Check() = %v, want healthy", got.Status)
	}
	if got.Details["size_bytes"] == nil {
		t.Fatalf("expected size_bytes detail for existing file")
	}

	// 目录缺失时不健康
	missing := NewSinkChecker(cfgpkg.SinkConfig{Path: filepath.Join(dir, "nope", "sleep2.csv")})
	if got := missing.Check(context.Background()); got.Status != StatusUnhealthy {
		t.Fatalf("Check() = %v, want unhealthy for missing directory", got.Status)
	}
}

func TestHealthRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	agg := NewAggregator(&stubChecker{name: "sink", result: CheckResult{Status: StatusHealthy, Message: "ok"}})
	RegisterHTTPRoutes(r, agg)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rr.Code)
	}
	var report HealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != StatusHealthy {
		t.Fatalf("report status = %v, want healthy", report.Status)
	}
	if _, ok := report.Checks["sink"]; !ok {
		t.Fatalf("report missing sink check")
	}
}

func TestHealthRoute_Unhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	agg := NewAggregator(&stubChecker{name: "sink", result: CheckResult{Status: StatusUnhealthy}})
	RegisterHTTPRoutes(r, agg)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /health = %d, want 503", rr.Code)
	}
}
