package ingest

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// tsDedupe remembers the newest accepted timestamp per id, bounded by an LRU.
type tsDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, int64]
}

func newTSDedupe(size int) *tsDedupe {
	if size <= 0 {
		size = 8192
	}
	c, _ := lru.New[string, int64](size)
	return &tsDedupe{lru: c}
}

// stale reports whether ts is not newer than the last accepted one for id.
func (d *tsDedupe) stale(id string, ts int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lru.Peek(id)
	return ok && ts <= last
}

func (d *tsDedupe) accept(id string, ts int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Peek(id); ok && ts <= last {
		return
	}
	d.lru.Add(id, ts)
}
