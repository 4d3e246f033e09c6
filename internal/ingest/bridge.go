package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/mqtt"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscriber is the part of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Ingester stores a classified reading.
type Ingester interface {
	Ingest(ctx context.Context, deviceID string, fill float64) (telemetry.Reading, error)
}

// Bridge turns MQTT fill reports into stored readings.
type Bridge struct {
	sub      Subscriber
	ingester Ingester
	qos      byte
	topic    string
	logger   Logger

	mu  sync.RWMutex
	ctx context.Context
}

// NewBridge creates a bridge that subscribes through sub at the given QoS.
func NewBridge(sub Subscriber, ingester Ingester, qos byte) *Bridge {
	return &Bridge{
		sub:      sub,
		ingester: ingester,
		qos:      qos,
		topic:    mqtt.Topics{}.AllBinFill(),
		logger:   noopLogger{},
		ctx:      context.Background(),
	}
}

// SetLogger sets the logger for dropped messages.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the fill topics. ctx is passed to every Ingest call
// made for incoming messages.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.sub.Subscribe(b.topic, b.qos, b.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.topic, err)
	}
	b.logger.Info("mqtt ingestion started", "topic", b.topic)
	return nil
}

// Stop removes the subscription.
func (b *Bridge) Stop() error {
	if err := b.sub.Unsubscribe(b.topic); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", b.topic, err)
	}
	return nil
}

// handle logs and drops bad messages instead of surfacing them to the client.
func (b *Bridge) handle(topic string, payload []byte) error {
	if _, err := b.HandleMessage(topic, payload); err != nil {
		b.logger.Warn("mqtt reading dropped", "topic", topic, "error", err)
	}
	return nil
}

// HandleMessage parses and stores one fill report.
//
// Parameters:
//   - topic: smartwaste/bin/{deviceId}/fill
//   - payload: {"fillPercentage": <number>}, optionally with a matching "deviceId"
//
// Returns:
//   - telemetry.Reading: The stored reading
//   - error: ErrInvalidTopic, ErrInvalidPayload, ErrDeviceMismatch, or the
//     ingester's error
func (b *Bridge) HandleMessage(topic string, payload []byte) (telemetry.Reading, error) {
	deviceID, fill, err := parseFill(topic, payload)
	if err != nil {
		return telemetry.Reading{}, err
	}

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	reading, err := b.ingester.Ingest(ctx, deviceID, fill)
	if err != nil {
		return telemetry.Reading{}, err
	}
	b.logger.Debug("mqtt reading stored", "device_id", deviceID, "status", reading.Status)
	return reading, nil
}

func parseFill(topic string, payload []byte) (deviceID string, fill float64, err error) {
	deviceID, ok := mqtt.Topics{}.DeviceFromFillTopic(topic)
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	fill, ok = body["fillPercentage"].(float64)
	if !ok {
		return "", 0, fmt.Errorf("%w: fillPercentage must be a number", ErrInvalidPayload)
	}

	if raw, present := body["deviceId"]; present {
		named, isString := raw.(string)
		if !isString || named != deviceID {
			return "", 0, fmt.Errorf("%w: %v vs %s", ErrDeviceMismatch, raw, deviceID)
		}
	}

	return deviceID, fill, nil
}
