package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/lineage/pkg/observability"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.LayoutsTotal == nil || r.FramesTotal == nil || r.CacheRequests == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("metrics not initialized")
	}
	if r.Prometheus() == nil {
		t.Fatal("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestLayoutHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnLayoutComplete(ctx, 42, 10*time.Millisecond, nil)
	r.OnLayoutComplete(ctx, 0, time.Millisecond, errors.New("boom"))
	r.OnWarning(ctx, "CYCLE_DETECTED")
	r.OnWarning(ctx, "CYCLE_DETECTED")

	if got := testutil.ToFloat64(r.LayoutsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok layouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LayoutsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed layouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LayoutNodes); got != 42 {
		t.Errorf("layout nodes = %v, want 42", got)
	}
	if got := testutil.ToFloat64(r.LayoutWarnings.WithLabelValues("CYCLE_DETECTED")); got != 2 {
		t.Errorf("warnings = %v, want 2", got)
	}
}

func TestFrameHooks(t *testing.T) {
	r := NewRegistry()
	r.OnFrame("T1", 120, 0, time.Millisecond, false)
	r.OnFrame("T3", 0, 1500, time.Millisecond, true)
	r.OnRebuild(300, 50*time.Millisecond)

	if got := testutil.ToFloat64(r.FramesTotal.WithLabelValues("T1")); got != 1 {
		t.Errorf("T1 frames = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.FramesTruncated); got != 1 {
		t.Errorf("truncated frames = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LayoutRebuilds); got != 1 {
		t.Errorf("rebuilds = %v, want 1", got)
	}
}

func TestGestureAndCacheHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	r.OnTransition("idle", "pan")
	r.OnInvalidEvent("idle", "pan_move")
	r.OnCacheHit(ctx, "layout")
	r.OnCacheMiss(ctx, "layout")
	r.OnCacheMiss(ctx, "layout")
	r.OnCacheSet(ctx, "layout", 4096)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"transition", testutil.ToFloat64(r.GestureTransitions.WithLabelValues("idle", "pan")), 1},
		{"invalid", testutil.ToFloat64(r.GestureInvalid.WithLabelValues("idle", "pan_move")), 1},
		{"hit", testutil.ToFloat64(r.CacheRequests.WithLabelValues("layout", "hit")), 1},
		{"miss", testutil.ToFloat64(r.CacheRequests.WithLabelValues("layout", "miss")), 2},
		{"write", testutil.ToFloat64(r.CacheWrites.WithLabelValues("layout")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestInstall(t *testing.T) {
	t.Cleanup(observability.Reset)
	r := NewRegistry()
	r.Install()

	observability.Frame().OnFrame("T2", 10, 0, time.Millisecond, false)
	observability.Cache().OnCacheHit(context.Background(), "view")

	if got := testutil.ToFloat64(r.FramesTotal.WithLabelValues("T2")); got != 1 {
		t.Errorf("T2 frames = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.CacheRequests.WithLabelValues("view", "hit")); got != 1 {
		t.Errorf("view hits = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/views/{id}/frame", "200", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`lineage_http_requests_total{method="GET",route="/views/{id}/frame",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
