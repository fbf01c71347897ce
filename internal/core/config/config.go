// Package config reads service configuration from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/x5geo/x5-index/internal/cache/redisstore"
	"github.com/x5geo/x5-index/internal/h3xref"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/skew"
)

type CellCacheCfg struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

type KafkaCfg struct {
	// Enabled runs the point consumer inside x5d as well.
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

// RedisCfg tunes the client; zero values keep the redisstore defaults.
type RedisCfg struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	MetricsEnabled bool
	Grid           grid.Grid
	VocabFile      string
	RedisAddr      string
	Redis          RedisCfg
	CacheOpTimeout time.Duration
	CellCache      CellCacheCfg
	H3Res          int
	HotHalfLife    time.Duration
	HotThreshold   float64
	HotLogSample   float64
	PointTTL       time.Duration
	Kafka          KafkaCfg
}

// FromEnv loads .env (or the files named in DOTENV) if present, then reads
// the environment. Unparseable values fall back to defaults.
func FromEnv() Config {
	loadDotenv()

	res := getint("H3_RES", 9)
	if res < 0 || res > h3xref.MaxCoveringRes {
		res = 9
	}

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		LogSampleN:     getint("LOG_SAMPLE_N", 0),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
		Grid: grid.Grid{
			Params: skew.Params{
				MaxLat: getfloat("X5_MAX_LAT", skew.DefaultMaxLat),
				Step:   getfloat("X5_STEP", skew.DefaultStep),
			},
			Offset: getint("X5_OFFSET", grid.DefaultOffset),
		},
		VocabFile: getenv("VOCAB_FILE", ""),
		RedisAddr: getenv("REDIS_ADDR", ""),
		Redis: RedisCfg{
			PoolSize:     getint("REDIS_POOL_SIZE", 0),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 0),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 0),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 0),
		},
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CellCache: CellCacheCfg{
			Enabled: getbool("CELL_CACHE_ENABLED", true),
			Size:    getint("CELL_CACHE_SIZE", 4096),
			TTL:     getduration("CELL_CACHE_TTL", 24*time.Hour),
		},
		H3Res:        res,
		HotHalfLife:  getduration("HOT_HALF_LIFE", time.Minute),
		HotThreshold: getfloat("HOT_THRESHOLD", 0),
		HotLogSample: getfloat("LOG_HOTNESS_SAMPLE", 0.01),
		PointTTL:     getduration("POINT_TTL", 7*24*time.Hour),
		Kafka: KafkaCfg{
			Enabled: getbool("INGEST_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "x5-points"),
			GroupID: getenv("KAFKA_GROUP_ID", "x5-ingest"),
		},
	}
}

// RedisOptions turns the configured overrides into client options.
func (c Config) RedisOptions() []redisstore.Option {
	var opts []redisstore.Option
	if c.Redis.PoolSize > 0 {
		opts = append(opts, redisstore.WithPoolSize(c.Redis.PoolSize))
	}
	if c.Redis.DialTimeout > 0 {
		opts = append(opts, redisstore.WithDialTimeout(c.Redis.DialTimeout))
	}
	if c.Redis.ReadTimeout > 0 {
		opts = append(opts, redisstore.WithReadTimeout(c.Redis.ReadTimeout))
	}
	if c.Redis.WriteTimeout > 0 {
		opts = append(opts, redisstore.WithWriteTimeout(c.Redis.WriteTimeout))
	}
	return opts
}

func loadDotenv() {
	files := splitCSV(os.Getenv("DOTENV"))
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		files = []string{".env"}
	}
	// existing environment wins over file values
	_ = godotenv.Load(files...)
}

func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if c.Grid.Offset < 0 {
		return errors.New("X5_OFFSET must be non-negative")
	}
	if c.Kafka.Enabled && c.RedisAddr == "" {
		return errors.New("INGEST_ENABLED requires REDIS_ADDR")
	}
	return nil
}

func (c Config) KafkaBrokers() []string { return splitCSV(c.Kafka.Brokers) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
