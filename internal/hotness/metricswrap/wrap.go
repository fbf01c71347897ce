// Package metricswrap exports hotness size as a gauge and logs tokens that
// cross a score threshold.
package metricswrap

import (
	"fmt"

	xx "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/hotness"
)

type Sizer interface{ Size() int }

type Options struct {
	// Threshold at or above which a token is logged; 0 disables logging.
	Threshold float64
	// LogSample is the fraction of tokens, chosen by hash, eligible to log.
	LogSample float64
	Logger    *zerolog.Logger
}

type WithMetrics struct {
	inner hotness.Interface
	opts  Options
}

var _ hotness.Interface = (*WithMetrics)(nil)

func New(inner hotness.Interface, opts Options) *WithMetrics {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &WithMetrics{inner: inner, opts: opts}
}

func (w *WithMetrics) Inc(token string) {
	w.inner.Inc(token)
	if w.opts.Threshold > 0 {
		score := w.inner.Score(token)
		if score >= w.opts.Threshold && shouldLog(w.opts.LogSample, token) {
			w.opts.Logger.Info().
				Str("event", "hotness_threshold").
				Float64("score", score).
				Str("token", token).
				Str("token_hash", fmt.Sprintf("%08x", xx.Sum64String(token))).
				Msg("hot token above threshold")
		}
	}
	w.publishSize()
}

func (w *WithMetrics) Score(token string) float64 {
	return w.inner.Score(token)
}

func (w *WithMetrics) Reset(tokens ...string) {
	w.inner.Reset(tokens...)
	w.publishSize()
}

// Top delegates to the wrapped scorer when it can rank; nil otherwise.
func (w *WithMetrics) Top(n int) []hotness.Entry {
	if r, ok := w.inner.(hotness.Ranker); ok {
		return r.Top(n)
	}
	return nil
}

func (w *WithMetrics) publishSize() {
	if s, ok := w.inner.(Sizer); ok {
		observability.SetHotTokens(s.Size())
	}
}

func shouldLog(sample float64, key string) bool {
	if sample <= 0 {
		return false
	}
	if sample >= 1 {
		return true
	}
	const denom = 10000 // 0.01 => 100/10000
	threshold := uint64(sample*denom + 0.5)
	if threshold == 0 {
		return false
	}
	return xx.Sum64String(key)%denom < threshold
}
