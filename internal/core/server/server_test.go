package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/x5geo/x5-index/internal/core/health"
	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/core/router"
	"github.com/x5geo/x5-index/internal/metrics"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/x5"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	idx, err := x5.New(grid.Default(), nil)
	if err != nil {
		t.Fatalf("x5.New: %v", err)
	}
	p := metrics.Init(metrics.Config{})
	if err := observability.Init(p.Registerer()); err != nil {
		t.Fatalf("observability: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, router.New(router.Deps{Index: idx}), Options{
		Metrics: p.Handler(),
		Ready:   health.Dependencies(time.Second, nil),
	})
}

func TestHandler_HealthMetricsAndAPI(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	t.Cleanup(srv.Close)

	for _, path := range []string{"/healthz", "/readyz", "/v1/encode?lat=1&lon=1", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status=%d body=%s", path, resp.StatusCode, body)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("GET %s: missing X-Request-ID", path)
		}
		if path == "/metrics" && !strings.Contains(string(body), `route="/v1/encode"`) {
			t.Fatalf("metrics missing the encode route:\n%s", body)
		}
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, addr, slog.New(slog.NewTextHandler(io.Discard, nil)), newHandler(t)) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
