package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/x5geo/x5-index/internal/metrics"
)

func TestInit_RegistersAndExposes(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	if err := Init(p.Registerer()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(p.Registerer()); err != nil {
		t.Fatalf("second Init must be harmless: %v", err)
	}

	ObserveHTTP("GET", "/v1/encode", 200, 0.001)
	ObserveEngineOp("encode", nil)
	ObserveEngineOp("encode", errors.New("domain"))
	IncCellCache("lru")
	ObserveCacheOp("get", nil, 0.0001)
	IncIngest("stored")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	body := rr.Body.String()

	for _, want := range []string{
		`http_requests_total{method="GET",route="/v1/encode",status="200"}`,
		`x5_engine_ops_total{op="encode",outcome="error"}`,
		`x5_cell_cache_results_total{tier="lru"}`,
		`cache_op_total{op="get",outcome="ok"}`,
		`redis_operation_duration_seconds_bucket{op="get"`,
		`x5_ingest_events_total{outcome="stored"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in:\n%s", want, body)
		}
	}
}

func TestIncNameMiss(t *testing.T) {
	before := testutil.ToFloat64(nameMissesTotal)
	IncNameMiss()
	if got := testutil.ToFloat64(nameMissesTotal); got != before+1 {
		t.Fatalf("misses=%v want %v", got, before+1)
	}
}
