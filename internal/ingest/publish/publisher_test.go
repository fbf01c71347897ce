package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/x5geo/x5-index/internal/ingest"
)

// fakeProducer records what reaches Input; unimplemented methods panic via
// the nil embedded interface.
type fakeProducer struct {
	sarama.AsyncProducer
	input  chan *sarama.ProducerMessage
	errs   chan *sarama.ProducerError
	got    chan *sarama.ProducerMessage
	closed bool
}

func newFakeProducer(buf int) *fakeProducer {
	f := &fakeProducer{
		input: make(chan *sarama.ProducerMessage),
		errs:  make(chan *sarama.ProducerError, 1),
		got:   make(chan *sarama.ProducerMessage, buf),
	}
	go func() {
		for m := range f.input {
			f.got <- m
		}
		close(f.got)
	}()
	return f
}

func (f *fakeProducer) Input() chan<- *sarama.ProducerMessage { return f.input }
func (f *fakeProducer) Errors() <-chan *sarama.ProducerError  { return f.errs }

func (f *fakeProducer) Close() error {
	f.closed = true
	close(f.input)
	close(f.errs)
	return nil
}

func TestPublish_KeysByIDAndFlushesOnClose(t *testing.T) {
	fp := newFakeProducer(8)
	p := WithProducer(fp, "points", 8, nil)

	ts := time.Date(2025, 10, 26, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"truck-1", "truck-2"} {
		if !p.Publish(ingest.PointEvent{Version: 1, ID: id, Lat: 1, Lon: 2, TS: ts}) {
			t.Fatalf("publish %s dropped", id)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fp.closed {
		t.Fatalf("producer not closed")
	}

	var ids []string
	for m := range fp.got {
		if m.Topic != "points" {
			t.Fatalf("topic=%q", m.Topic)
		}
		key, _ := m.Key.Encode()
		raw, _ := m.Value.Encode()
		var ev ingest.PointEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("value: %v", err)
		}
		if string(key) != ev.ID || ev.Version != 1 || !ev.TS.Equal(ts) {
			t.Fatalf("key=%q event=%+v", key, ev)
		}
		ids = append(ids, ev.ID)
	}
	if len(ids) != 2 || ids[0] != "truck-1" || ids[1] != "truck-2" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	fp := newFakeProducer(0)
	// nothing drains got, so the pipeline stalls after a few events
	p := WithProducer(fp, "points", 1, nil)

	ev := ingest.PointEvent{Version: 1, ID: "x", TS: time.Now()}
	deadline := time.Now().Add(2 * time.Second)
	for p.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("queue never filled")
		}
		p.Publish(ev)
	}
	if p.Dropped() < 1 {
		t.Fatalf("dropped=%d", p.Dropped())
	}
}

func TestPublish_CountsProducerErrors(t *testing.T) {
	fp := newFakeProducer(1)
	p := WithProducer(fp, "points", 1, nil)

	fp.errs <- &sarama.ProducerError{Msg: &sarama.ProducerMessage{Topic: "points"}, Err: errors.New("broker down")}
	deadline := time.Now().Add(2 * time.Second)
	for p.Failed() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("producer error not observed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
