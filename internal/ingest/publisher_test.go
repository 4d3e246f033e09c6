package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu    sync.Mutex
	msgs  []published
	err   error
	block chan struct{} // when set, Publish waits until it is closed
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{topic, payload, qos, retained})
	return f.err
}

// waitFor polls until n messages were published.
func (f *fakePublisher) waitFor(t *testing.T, n int) []published {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		got := append([]published(nil), f.msgs...)
		f.mu.Unlock()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("published %d messages, want %d", len(got), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, w := range l.warns {
		if w == msg {
			n++
		}
	}
	return n
}

func startPublisher(t *testing.T, pub Publisher, qos byte) *StatusPublisher {
	t.Helper()
	p := NewStatusPublisher(pub, qos)
	p.Start(t.Context())
	t.Cleanup(p.Stop)
	return p
}

func TestStatusPublisher_PublishesStatus(t *testing.T) {
	pub := &fakePublisher{}
	p := startPublisher(t, pub, 1)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p.ReadingRecorded(context.Background(), telemetry.Reading{
		DeviceID: "Bin-7", FillPercentage: 45, Status: telemetry.StatusHalf, CreatedAt: at,
	})

	msgs := pub.waitFor(t, 1)
	msg := msgs[0]
	if msg.topic != "smartwaste/core/bin/Bin-7/status" || !msg.retained || msg.qos != 1 {
		t.Errorf("message = %+v", msg)
	}

	var got StatusMessage
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.DeviceID != "Bin-7" || got.Status != telemetry.StatusHalf || !got.RecordedAt.Equal(at) {
		t.Errorf("status = %+v", got)
	}
}

func TestStatusPublisher_AlertsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	p := startPublisher(t, pub, 1)

	p.ReadingRecorded(context.Background(), telemetry.Reading{
		DeviceID: "Bin-7", FillPercentage: 92, Status: telemetry.StatusFull,
	})

	msgs := pub.waitFor(t, 2)
	alert := msgs[1]
	if alert.topic != "smartwaste/core/alert/Bin-7" || alert.retained {
		t.Errorf("alert = %+v", alert)
	}

	var got AlertMessage
	if err := json.Unmarshal(alert.payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Message != "Bin Bin-7 is full (92%)" {
		t.Errorf("alert message = %q", got.Message)
	}
}

func TestStatusPublisher_FailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("mqtt: client not connected")}
	log := &recordingLogger{}
	p := NewStatusPublisher(pub, 0)
	p.SetLogger(log)
	p.Start(t.Context())
	defer p.Stop()

	p.ReadingRecorded(context.Background(), telemetry.Reading{DeviceID: "Bin-7", Status: telemetry.StatusFull})

	pub.waitFor(t, 2)
	deadline := time.Now().Add(2 * time.Second)
	for log.count("mqtt publish failed") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("publish failures logged %d times, want 2", log.count("mqtt publish failed"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatusPublisher_StalledBrokerDoesNotBlockIngest(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	log := &recordingLogger{}
	p := NewStatusPublisher(pub, 1)
	p.SetLogger(log)
	p.Start(t.Context())
	defer func() {
		close(pub.block)
		p.Stop()
	}()

	extra := 10
	done := make(chan struct{})
	go func() {
		for i := range publishQueueSize + extra {
			p.ReadingRecorded(context.Background(), telemetry.Reading{
				DeviceID: fmt.Sprintf("Bin-%d", i), Status: telemetry.StatusHalf,
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadingRecorded blocked on a stalled publisher")
	}

	// One reading may be held by the worker, the rest fill the queue.
	if dropped := log.count("mqtt status queue full, reading dropped"); dropped < extra-1 {
		t.Errorf("dropped %d readings, want at least %d", dropped, extra-1)
	}
}

func TestStatusPublisher_SkipsInvalidTopicLevels(t *testing.T) {
	pub := &fakePublisher{}
	p := startPublisher(t, pub, 1)

	for _, id := range []string{"site/bin-1", "bin+1", "#", "bin\x00"} {
		p.ReadingRecorded(context.Background(), telemetry.Reading{DeviceID: id, Status: telemetry.StatusFull})
	}
	p.ReadingRecorded(context.Background(), telemetry.Reading{DeviceID: "Bin-7", Status: telemetry.StatusHalf})

	msgs := pub.waitFor(t, 1)
	p.Stop()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.msgs) != 1 || msgs[0].topic != "smartwaste/core/bin/Bin-7/status" {
		t.Errorf("published %+v, want only Bin-7 status", pub.msgs)
	}
}

func TestStatusPublisher_StopIsIdempotent(t *testing.T) {
	p := NewStatusPublisher(&fakePublisher{}, 1)
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

func TestStatusPublisher_IsObserver(t *testing.T) {
	var _ telemetry.Observer = (*StatusPublisher)(nil)
}
