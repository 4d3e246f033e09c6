package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/mqtt"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// Publisher is the part of the MQTT client the status publisher needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatusMessage is published retained to smartwaste/core/bin/{deviceId}/status.
type StatusMessage struct {
	DeviceID       string           `json:"deviceId"`
	FillPercentage float64          `json:"fillPercentage"`
	Status         telemetry.Status `json:"status"`
	RecordedAt     time.Time        `json:"recordedAt"`
}

// AlertMessage is published to smartwaste/core/alert/{deviceId} for FULL readings.
type AlertMessage struct {
	DeviceID       string    `json:"deviceId"`
	FillPercentage float64   `json:"fillPercentage"`
	Message        string    `json:"message"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// publishQueueSize bounds readings waiting to be published.
const publishQueueSize = 256

// StatusPublisher publishes readings to MQTT. It implements
// telemetry.Observer: ReadingRecorded only queues the reading, and a
// worker started with Start does the publishing, so a stalled broker
// never holds up ingestion. Readings arriving while the queue is full
// are dropped and logged.
type StatusPublisher struct {
	pub    Publisher
	qos    byte
	logger Logger
	queue  chan telemetry.Reading

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStatusPublisher creates a publisher sending at the given QoS.
func NewStatusPublisher(pub Publisher, qos byte) *StatusPublisher {
	return &StatusPublisher{
		pub:    pub,
		qos:    qos,
		logger: noopLogger{},
		queue:  make(chan telemetry.Reading, publishQueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for publish failures.
func (p *StatusPublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Start runs the publishing worker until ctx is cancelled or Stop is called.
func (p *StatusPublisher) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop ends the worker and waits for it. Queued readings not yet
// published are dropped. Stop must only be called after Start.
func (p *StatusPublisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *StatusPublisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case r := <-p.queue:
			p.send(r)
		case <-ctx.Done():
			p.discard()
			return
		case <-p.stop:
			p.discard()
			return
		}
	}
}

func (p *StatusPublisher) discard() {
	if n := len(p.queue); n > 0 {
		p.logger.Warn("status publisher stopped with pending readings", "dropped", n)
	}
}

// ReadingRecorded queues the reading for publishing. Device ids that
// cannot form a single topic level are skipped.
func (p *StatusPublisher) ReadingRecorded(_ context.Context, r telemetry.Reading) {
	if !mqtt.ValidTopicLevel(r.DeviceID) {
		p.logger.Debug("mqtt status skipped: device id is not a valid topic level", "device_id", r.DeviceID)
		return
	}
	select {
	case p.queue <- r:
	default:
		p.logger.Warn("mqtt status queue full, reading dropped", "device_id", r.DeviceID)
	}
}

// send publishes the status and, for FULL bins, an alert.
// Publish failures are logged; the reading is already stored.
func (p *StatusPublisher) send(r telemetry.Reading) {
	topics := mqtt.Topics{}

	p.publish(topics.CoreBinStatus(r.DeviceID), true, StatusMessage{
		DeviceID:       r.DeviceID,
		FillPercentage: r.FillPercentage,
		Status:         r.Status,
		RecordedAt:     r.CreatedAt,
	})

	if r.Status != telemetry.StatusFull {
		return
	}
	p.publish(topics.CoreAlert(r.DeviceID), false, AlertMessage{
		DeviceID:       r.DeviceID,
		FillPercentage: r.FillPercentage,
		Message:        fmt.Sprintf("Bin %s is full (%.0f%%)", r.DeviceID, r.FillPercentage),
		RecordedAt:     r.CreatedAt,
	})
}

func (p *StatusPublisher) publish(topic string, retained bool, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("encoding mqtt message", "topic", topic, "error", err)
		return
	}
	if err := p.pub.Publish(topic, data, p.qos, retained); err != nil {
		p.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}
