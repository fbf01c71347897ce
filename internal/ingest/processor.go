package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/x5geo/x5-index/internal/cache/keys"
	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/hotness"
	"github.com/x5geo/x5-index/internal/logger"
	"github.com/x5geo/x5-index/pkg/x5"
)

// Outcome labels what happened to one event.
type Outcome string

const (
	Stored     Outcome = "stored"
	Duplicate  Outcome = "duplicate"
	Invalid    Outcome = "invalid"
	Decode     Outcome = "decode"
	Domain     Outcome = "domain"
	StoreError Outcome = "store_error"
)

// PointStore persists records; redisstore.Client satisfies it.
type PointStore interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Options struct {
	TTL        time.Duration
	DedupeSize int
	Hotness    hotness.Interface
	Logger     *zerolog.Logger
}

type Processor struct {
	idx   *x5.Index
	store PointStore
	hot   hotness.Interface
	ttl   time.Duration
	seen  *tsDedupe
	log   *zerolog.Logger
}

func NewProcessor(idx *x5.Index, store PointStore, opts Options) *Processor {
	lg := opts.Logger
	if lg == nil {
		nop := zerolog.Nop()
		lg = &nop
	}
	return &Processor{
		idx:   idx,
		store: store,
		hot:   opts.Hotness,
		ttl:   opts.TTL,
		seen:  newTSDedupe(opts.DedupeSize),
		log:   lg,
	}
}

// Handle processes one raw message. Only store failures return an error;
// anything wrong with the message itself is logged, counted and skipped so a
// poison message never blocks its partition. fallbackTS stands in for a
// missing event timestamp.
func (p *Processor) Handle(ctx context.Context, raw []byte, fallbackTS time.Time) (Outcome, error) {
	out, err := p.handle(ctx, raw, fallbackTS)
	observability.IncIngest(string(out))
	return out, err
}

func (p *Processor) handle(ctx context.Context, raw []byte, fallbackTS time.Time) (Outcome, error) {
	lg := logger.FromContext(ctx, p.log)

	var ev PointEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		lg.Warn().Err(err).Str("kind", "decode").Msg("skipping undecodable point event")
		return Decode, nil
	}
	if ev.TS.IsZero() {
		ev.TS = fallbackTS
	}
	if err := ev.Validate(); err != nil {
		lg.Warn().Err(err).Str("id", ev.ID).Msg("skipping invalid point event")
		return Invalid, nil
	}

	ts := ev.TS.UnixNano()
	if p.seen.stale(ev.ID, ts) {
		return Duplicate, nil
	}

	rec, err := p.Address(ev)
	if err != nil {
		lg.Warn().Err(err).Str("id", ev.ID).Float64("lat", ev.Lat).Float64("lon", ev.Lon).
			Msg("skipping point outside the index domain")
		return Domain, nil
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return StoreError, fmt.Errorf("marshal record %q: %w", ev.ID, err)
	}
	if err := p.store.Set(ctx, keys.PointKey(ev.ID), val, p.ttl); err != nil {
		lg.Error().Err(err).Str("id", ev.ID).Msg("point store failed")
		return StoreError, fmt.Errorf("store %q: %w", ev.ID, err)
	}
	p.seen.accept(ev.ID, ts)
	if p.hot != nil {
		p.hot.Inc(rec.Token)
	}
	lg.Debug().Str("id", ev.ID).Str("token", rec.Token).Int("region", rec.Region).Msg("point stored")
	return Stored, nil
}

// Address computes the record for a valid event.
func (p *Processor) Address(ev PointEvent) (Record, error) {
	addr, err := p.idx.Locate(ev.Lat, ev.Lon)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:     ev.ID,
		Lat:    ev.Lat,
		Lon:    ev.Lon,
		TS:     ev.TS.UTC(),
		Token:  addr.Token,
		Cell:   addr.Cell,
		Region: addr.Region.Flat(),
		Path:   addr.Region.Path(),
	}
	if p.idx.HasVocabulary() {
		name, err := p.idx.Name(addr.Cell)
		if err != nil && !errors.Is(err, x5.ErrNoVocabulary) {
			// names are optional on records; the token is authoritative
			p.log.Debug().Err(err).Str("token", addr.Token).Msg("no name for cell")
		}
		rec.Name = name
	}
	return rec, nil
}
