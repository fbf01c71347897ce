// Package publish writes point events to the ingest topic without blocking
// the caller.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/IBM/sarama"

	"github.com/x5geo/x5-index/internal/ingest"
)

type Publisher struct {
	topic   string
	events  chan ingest.PointEvent
	prod    sarama.AsyncProducer
	log     *slog.Logger
	dropped atomic.Int64
	failed  atomic.Int64
	stopped chan struct{}
	errDone chan struct{}
}

// New dials brokers and starts publishing to topic. queueSize bounds the
// events buffered ahead of the producer.
func New(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	// the consumer de-duplicates per id, so keying by id keeps one point's
	// history on one partition
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("publish: create async producer: %w", err)
	}
	return WithProducer(prod, topic, queueSize, logger), nil
}

// WithProducer wraps an existing producer; Close closes it.
func WithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan ingest.PointEvent, queueSize),
		prod:    prod,
		log:     logger,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Warn("publish: marshal", "id", ev.ID, "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.ID),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.failed.Add(1)
				p.log.Warn("publish: producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish queues ev and reports false when the queue is full and ev was
// dropped.
func (p *Publisher) Publish(ev ingest.PointEvent) bool {
	select {
	case p.events <- ev:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Failed counts messages the producer reported as undeliverable.
func (p *Publisher) Failed() int64 { return p.failed.Load() }

// Close flushes queued events and closes the producer. Publish must not be
// called after Close.
func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("publish: close producer: %w", err)
	}
	<-p.errDone
	return nil
}
