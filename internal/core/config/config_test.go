package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/x5geo/x5-index/pkg/grid"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	cfg := FromEnv()

	if cfg.Grid != grid.Default() {
		t.Fatalf("grid=%+v want defaults", cfg.Grid)
	}
	if cfg.Addr != ":8090" || cfg.H3Res != 9 || cfg.CellCache.Size != 4096 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("X5_MAX_LAT", "80")
	t.Setenv("X5_STEP", "0.05")
	t.Setenv("X5_OFFSET", "5000")
	t.Setenv("CELL_CACHE_TTL", "90s")
	t.Setenv("CELL_CACHE_ENABLED", "no")
	t.Setenv("H3_RES", "42")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg := FromEnv()
	if cfg.Grid.MaxLat != 80 || cfg.Grid.Step != 0.05 || cfg.Grid.Offset != 5000 {
		t.Fatalf("grid=%+v", cfg.Grid)
	}
	if cfg.CellCache.TTL != 90*time.Second || cfg.CellCache.Enabled {
		t.Fatalf("cell cache=%+v", cfg.CellCache)
	}
	if cfg.H3Res != 9 {
		t.Fatalf("out-of-range H3_RES must fall back, got %d", cfg.H3Res)
	}
	if b := cfg.KafkaBrokers(); len(b) != 2 || b[0] != "a:9092" || b[1] != "b:9092" {
		t.Fatalf("brokers=%v", b)
	}
}

func TestFromEnv_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x5.env")
	if err := os.WriteFile(path, []byte("VOCAB_FILE=/tmp/words.yaml\nX5_STEP=0.02\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DOTENV", path)
	t.Setenv("X5_STEP", "0.03")
	t.Cleanup(func() { _ = os.Unsetenv("VOCAB_FILE") })

	cfg := FromEnv()
	if cfg.VocabFile != "/tmp/words.yaml" {
		t.Fatalf("vocab file=%q", cfg.VocabFile)
	}
	if cfg.Grid.Step != 0.03 {
		t.Fatalf("environment must win over .env, step=%v", cfg.Grid.Step)
	}
}

func TestValidate_BadGrid(t *testing.T) {
	cfg := Config{Grid: grid.Default()}
	cfg.Grid.Offset = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative offset")
	}
	cfg.Grid = grid.Default()
	cfg.Grid.Step = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero step")
	}
}

func TestValidate_IngestNeedsRedis(t *testing.T) {
	cfg := Config{Grid: grid.Default()}
	cfg.Kafka.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for ingest without redis")
	}
	cfg.RedisAddr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	if opts := FromEnv().RedisOptions(); len(opts) != 0 {
		t.Fatalf("defaults should add no options, got %d", len(opts))
	}

	t.Setenv("REDIS_POOL_SIZE", "64")
	t.Setenv("REDIS_DIAL_TIMEOUT", "1s")
	t.Setenv("REDIS_READ_TIMEOUT", "150ms")
	t.Setenv("REDIS_WRITE_TIMEOUT", "250ms")
	opts := FromEnv().RedisOptions()
	if len(opts) != 4 {
		t.Fatalf("options=%d want 4", len(opts))
	}
	var ro redis.Options
	for _, f := range opts {
		f(&ro)
	}
	if ro.PoolSize != 64 || ro.DialTimeout != time.Second ||
		ro.ReadTimeout != 150*time.Millisecond || ro.WriteTimeout != 250*time.Millisecond {
		t.Fatalf("redis options=%+v", ro)
	}
}

func TestFromEnv_H3ResAboveCoveringCapFallsBack(t *testing.T) {
	t.Setenv("DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("H3_RES", "14")
	if res := FromEnv().H3Res; res != 9 {
		t.Fatalf("H3Res=%d want 9", res)
	}
	t.Setenv("H3_RES", "12")
	if res := FromEnv().H3Res; res != 12 {
		t.Fatalf("H3Res=%d want 12", res)
	}
}
