// Package expdecay implements hotness as an exponentially decaying counter per
// token, sharded by hash.
package expdecay

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/x5geo/x5-index/internal/hotness"
)

const numShards = 64

type Tracker struct {
	HalfLife time.Duration

	now func() time.Time

	shards [numShards]shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*counter
}

type counter struct {
	score float64
	last  time.Time
}

var _ hotness.Interface = (*Tracker)(nil)

func New(halfLife time.Duration) *Tracker {
	if halfLife <= 0 {
		halfLife = time.Minute
	}
	t := &Tracker{HalfLife: halfLife, now: time.Now}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	return t
}

func (t *Tracker) Inc(token string) { t.Add(token, 1) }

// Add decays the token's score to now and adds w.
func (t *Tracker) Add(token string, w float64) {
	if token == "" || w <= 0 {
		return
	}
	s := t.pick(token)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[token]
	if c == nil {
		s.m[token] = &counter{score: w, last: n}
		return
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.HalfLife.Seconds()) + w
	c.last = n
}

func (t *Tracker) Score(token string) float64 {
	if token == "" {
		return 0
	}
	s := t.pick(token)

	s.mu.RLock()
	c := s.m[token]
	if c == nil {
		s.mu.RUnlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.RUnlock()

	return decay(score, t.now().Sub(last).Seconds(), t.HalfLife.Seconds())
}

func (t *Tracker) Reset(tokens ...string) {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		s := t.pick(tok)
		s.mu.Lock()
		delete(s.m, tok)
		s.mu.Unlock()
	}
}

// Top returns the n highest scores, highest first; ties order by token.
func (t *Tracker) Top(n int) []hotness.Entry {
	if n <= 0 {
		return nil
	}
	now := t.now()
	hl := t.HalfLife.Seconds()
	var all []hotness.Entry
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for tok, c := range s.m {
			all = append(all, hotness.Entry{Token: tok, Score: decay(c.score, now.Sub(c.last).Seconds(), hl)})
		}
		s.mu.RUnlock()
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Token < all[j].Token
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Prune drops tokens whose decayed score fell below floor and reports how
// many were removed.
func (t *Tracker) Prune(floor float64) int {
	now := t.now()
	hl := t.HalfLife.Seconds()
	removed := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for tok, c := range s.m {
			if decay(c.score, now.Sub(c.last).Seconds(), hl) < floor {
				delete(s.m, tok)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	// e^(-λt) with λ = ln2 / half-life
	return score * math.Exp(-math.Ln2/halfLife*dt)
}

func (t *Tracker) pick(token string) *shard {
	h := xxhash.Sum64String(token)
	return &t.shards[h&(numShards-1)]
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return total
}

// PruneEvery runs Prune(floor) on every tick until ctx is done.
func (t *Tracker) PruneEvery(ctx context.Context, every time.Duration, floor float64) {
	if every <= 0 {
		every = t.HalfLife
	}
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Prune(floor)
		}
	}
}
