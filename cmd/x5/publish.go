package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/x5geo/x5-index/internal/core/config"
	"github.com/x5geo/x5-index/internal/ingest"
	"github.com/x5geo/x5-index/internal/ingest/publish"
	"github.com/x5geo/x5-index/pkg/x5"
)

// scatter produces n events for ids object ids jittered around a center.
// Spread is in degrees and latitudes are clamped to the index domain.
func scatter(rng *rand.Rand, n, ids int, lat, lon, spread, maxLat float64, start time.Time) []ingest.PointEvent {
	if ids <= 0 {
		ids = 1
	}
	out := make([]ingest.PointEvent, n)
	for k := range out {
		la := lat + (rng.Float64()*2-1)*spread
		lo := lon + (rng.Float64()*2-1)*spread
		out[k] = ingest.PointEvent{
			Version: 1,
			ID:      fmt.Sprintf("obj-%d", k%ids),
			Lat:     math.Max(-maxLat, math.Min(maxLat, la)),
			Lon:     math.Mod(lo+540, 360) - 180,
			TS:      start.Add(time.Duration(k) * time.Millisecond),
		}
	}
	return out
}

func cmdPublish(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	cfg := config.FromEnv()
	fs, _ := newFlags("publish")
	brokers := fs.String("brokers", cfg.Kafka.Brokers, "comma separated Kafka brokers")
	topic := fs.String("topic", cfg.Kafka.Topic, "point event topic")
	n := fs.Int("n", 100, "number of events")
	ids := fs.Int("ids", 10, "distinct object ids")
	lat := fs.Float64("lat", 0, "center latitude")
	lon := fs.Float64("lon", 0, "center longitude")
	spread := fs.Float64("spread", 0.05, "jitter in degrees")
	rate := fs.Int("rate", 0, "events per second, 0 for unthrottled")
	seed := fs.Uint64("seed", 1, "random seed")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("%w: -n must be positive", errUsage)
	}
	idx, err := build("")
	if err != nil {
		return err
	}
	if err := idx.Encoder().Validate(*lat, *lon); err != nil {
		return err
	}

	evs := scatter(rand.New(rand.NewPCG(*seed, *seed)), *n, *ids, *lat, *lon, *spread, idx.Grid().MaxLat, time.Now().UTC())

	var brokerList []string
	for _, b := range strings.Split(*brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	pub, err := publish.New(brokerList, *topic, *n, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	var tick <-chan time.Time
	if *rate > 0 {
		t := time.NewTicker(time.Second / time.Duration(*rate))
		defer t.Stop()
		tick = t.C
	}
	sent := 0
	for _, ev := range evs {
		if tick != nil {
			<-tick
		}
		if pub.Publish(ev) {
			sent++
		}
	}
	if err := pub.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "queued=%d dropped=%d failed=%d topic=%s\n", sent, pub.Dropped(), pub.Failed(), *topic)
	return nil
}
