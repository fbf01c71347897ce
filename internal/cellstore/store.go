// Package cellstore serves rendered cell geometry from an in-process LRU,
// then an optional Redis tier, computing on a full miss.
package cellstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/x5geo/x5-index/internal/cache/keys"
	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/export"
	"github.com/x5geo/x5-index/internal/logger"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/x5"
)

// Backend is the shared tier; redisstore.Client satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// BatchBackend reads and writes many keys per round trip; redisstore.Client
// satisfies it.
type BatchBackend interface {
	Backend
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSetWithTTL(ctx context.Context, kv map[string][]byte, ttl time.Duration) error
}

type Options struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
	Logger    *zerolog.Logger
}

type Store struct {
	idx     *x5.Index
	backend Backend
	local   *expirable.LRU[string, []byte]
	ttl     time.Duration
	timeout time.Duration
	gridFP  uint64
	vocabFP uint64
	sf      singleflight.Group
	log     *zerolog.Logger
}

// New builds a store over idx. backend may be nil.
func New(idx *x5.Index, backend Backend, opts Options) *Store {
	if opts.Size <= 0 {
		opts.Size = 4096
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 250 * time.Millisecond
	}
	lg := opts.Logger
	if lg == nil {
		nop := zerolog.Nop()
		lg = &nop
	}
	return &Store{
		idx:     idx,
		backend: backend,
		local:   expirable.NewLRU[string, []byte](opts.Size, nil, opts.TTL),
		ttl:     opts.TTL,
		timeout: opts.OpTimeout,
		gridFP:  keys.GridFingerprint(idx.Grid()),
		vocabFP: keys.VocabFingerprint(idx.Vocabulary()),
		log:     lg,
	}
}

// Hex returns the GeoJSON Feature of the cell addressed by token.
func (s *Store) Hex(ctx context.Context, token string) ([]byte, error) {
	return s.get(ctx, "hex", token, func(c grid.Cell) (any, error) {
		return export.HexFeature(s.idx, c)
	})
}

// Regions returns a FeatureCollection of the cell's 127 regions.
func (s *Store) Regions(ctx context.Context, token string) ([]byte, error) {
	return s.get(ctx, "regions", token, func(c grid.Cell) (any, error) {
		return export.RegionsFeatureCollection(s.idx, c)
	})
}

// HexMany returns the Hex feature of every token, in order. Shared-tier
// reads and writes take one round trip each when the backend batches.
func (s *Store) HexMany(ctx context.Context, tokens []string) ([][]byte, error) {
	out := make([][]byte, len(tokens))
	bb, ok := s.backend.(BatchBackend)
	if !ok {
		for i, tok := range tokens {
			v, err := s.Hex(ctx, tok)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	type pending struct {
		at    []int
		cell  grid.Cell
		canon string
	}
	var missing []string
	byKey := make(map[string]*pending)
	for i, tok := range tokens {
		_, c, err := gpspack.ParseToken(tok)
		if err != nil {
			return nil, err
		}
		canon, err := gpspack.CellToken(c)
		if err != nil {
			return nil, err
		}
		key := keys.CellKey(s.gridFP, s.vocabFP, "hex", canon)
		if v, ok := s.local.Get(key); ok {
			observability.IncCellCache("lru")
			out[i] = v
			continue
		}
		if p, ok := byKey[key]; ok {
			p.at = append(p.at, i)
			continue
		}
		byKey[key] = &pending{at: []int{i}, cell: c, canon: canon}
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return out, nil
	}

	found := s.fromBatch(ctx, bb, missing)
	computed := make(map[string][]byte)
	for _, key := range missing {
		p := byKey[key]
		v, ok := found[key]
		if ok {
			observability.IncCellCache("redis")
		} else {
			feat, err := export.HexFeature(s.idx, p.cell)
			if err != nil {
				return nil, err
			}
			if v, err = json.Marshal(feat); err != nil {
				return nil, fmt.Errorf("marshal hex %s: %w", p.canon, err)
			}
			observability.IncCellCache("compute")
			computed[key] = v
		}
		s.local.Add(key, v)
		for _, i := range p.at {
			out[i] = v
		}
	}
	s.toBatch(ctx, bb, computed)
	return out, nil
}

func (s *Store) get(ctx context.Context, kind, token string, build func(grid.Cell) (any, error)) ([]byte, error) {
	_, c, err := gpspack.ParseToken(token)
	if err != nil {
		return nil, err
	}
	// keys use the canonical spelling so "E4KO2Y" and "e4ko2y" share an entry
	canon, err := gpspack.CellToken(c)
	if err != nil {
		return nil, err
	}
	key := keys.CellKey(s.gridFP, s.vocabFP, kind, canon)

	if v, ok := s.local.Get(key); ok {
		observability.IncCellCache("lru")
		return v, nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		if v, ok := s.fromBackend(ctx, key); ok {
			observability.IncCellCache("redis")
			s.local.Add(key, v)
			return v, nil
		}

		obj, err := build(c)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", kind, canon, err)
		}
		observability.IncCellCache("compute")
		s.local.Add(key, raw)
		s.toBackend(ctx, key, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Redis failures degrade to a miss; the value can always be recomputed.
func (s *Store) fromBackend(ctx context.Context, key string) ([]byte, bool) {
	if s.backend == nil {
		return nil, false
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, found, err := s.backend.Get(cctx, key)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx, s.log).Warn().Err(err).Str("key", key).Msg("cell cache read failed")
		}
		return nil, false
	}
	return v, found
}

func (s *Store) toBackend(ctx context.Context, key string, val []byte) {
	if s.backend == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.backend.Set(cctx, key, val, s.ttl); err != nil {
		logger.FromContext(ctx, s.log).Warn().Err(err).Str("key", key).Msg("cell cache write failed")
	}
}

func (s *Store) fromBatch(ctx context.Context, bb BatchBackend, ks []string) map[string][]byte {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	found, err := bb.MGet(cctx, ks)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx, s.log).Warn().Err(err).Int("keys", len(ks)).Msg("cell cache batch read failed")
		}
		return nil
	}
	return found
}

func (s *Store) toBatch(ctx context.Context, bb BatchBackend, kv map[string][]byte) {
	if len(kv) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := bb.MSetWithTTL(cctx, kv, s.ttl); err != nil {
		logger.FromContext(ctx, s.log).Warn().Err(err).Int("keys", len(kv)).Msg("cell cache batch write failed")
	}
}

// Len reports the number of entries held in process.
func (s *Store) Len() int { return s.local.Len() }
