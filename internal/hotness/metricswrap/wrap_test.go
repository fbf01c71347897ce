package metricswrap

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/hotness/expdecay"
	"github.com/x5geo/x5-index/internal/metrics"
)

func TestHotTokensGauge_Updates(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	if err := observability.Init(p.Registerer()); err != nil {
		t.Fatalf("observability: %v", err)
	}

	w := New(expdecay.New(30*time.Second), Options{})
	w.Inc("e4ko2y")
	w.Inc("e4ko2z")
	w.Reset("e4ko2y")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if body := rr.Body.String(); !strings.Contains(body, "x5_hot_tokens 1") {
		t.Fatalf("expected x5_hot_tokens == 1, got:\n%s", body)
	}
}

func TestThresholdLogging(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	w := New(expdecay.New(time.Minute), Options{Threshold: 2, LogSample: 1, Logger: &lg})

	w.Inc("e4ko2y")
	if buf.Len() != 0 {
		t.Fatalf("logged below threshold: %s", buf.String())
	}
	w.Inc("e4ko2y")
	if !strings.Contains(buf.String(), `"event":"hotness_threshold"`) {
		t.Fatalf("expected threshold log, got %q", buf.String())
	}
	if w.Score("e4ko2y") < 2 {
		t.Fatalf("score passthrough broken")
	}
}

func TestShouldLog_Sampling(t *testing.T) {
	if shouldLog(0, "k") || !shouldLog(1, "k") {
		t.Fatalf("edge samples wrong")
	}
	if shouldLog(0.00001, "k") {
		t.Fatalf("sample rounding to zero must not log")
	}
}

func TestTop_Delegates(t *testing.T) {
	w := New(expdecay.New(time.Minute), Options{})
	w.Inc("a")
	w.Inc("b")
	w.Inc("b")
	top := w.Top(1)
	if len(top) != 1 || top[0].Token != "b" {
		t.Fatalf("top=%+v", top)
	}
}
