package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Service.
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

// Observer is notified after a reading has been stored.
// Implementations must not block; slow work belongs in a goroutine.
type Observer interface {
	ReadingRecorded(ctx context.Context, r Reading)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, r Reading)

// ReadingRecorded calls f.
func (f ObserverFunc) ReadingRecorded(ctx context.Context, r Reading) { f(ctx, r) }

// Service classifies, stores and queries readings.
// All methods are safe for concurrent use.
type Service struct {
	repo   Repository
	logger Logger
	now    func() time.Time

	mu        sync.RWMutex
	observers []Observer
}

// NewService creates a telemetry service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// AddObserver registers o to receive every stored reading.
func (s *Service) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Ingest validates and classifies a report, stores it, and notifies observers.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Reporting sensor; must be non-empty
//   - fill: Fill percentage as reported; must be finite, never clamped
//
// Returns:
//   - Reading: The stored reading with its server timestamp
//   - error: ErrInvalidDeviceID, ErrInvalidFill, or a wrapped storage error
func (s *Service) Ingest(ctx context.Context, deviceID string, fill float64) (Reading, error) {
	if deviceID == "" {
		return Reading{}, ErrInvalidDeviceID
	}
	if math.IsNaN(fill) || math.IsInf(fill, 0) {
		return Reading{}, ErrInvalidFill
	}

	reading := Reading{
		DeviceID:       deviceID,
		FillPercentage: fill,
		Status:         Classify(fill),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.Append(ctx, &reading); err != nil {
		return Reading{}, fmt.Errorf("storing reading for %s: %w", deviceID, err)
	}

	s.logger.Debug("reading recorded",
		"device_id", reading.DeviceID,
		"fill_percentage", reading.FillPercentage,
		"status", reading.Status,
	)

	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.ReadingRecorded(ctx, reading)
	}

	return reading, nil
}

// Latest returns the newest reading for deviceID, or across all devices
// when deviceID is empty. found is false when there are no readings,
// which is not an error.
func (s *Service) Latest(ctx context.Context, deviceID string) (reading Reading, found bool, err error) {
	reading, err = s.repo.Latest(ctx, deviceID)
	if errors.Is(err, ErrNoReadings) {
		return FallbackReading(deviceID), false, nil
	}
	if err != nil {
		return Reading{}, false, fmt.Errorf("loading latest reading: %w", err)
	}
	return reading, true, nil
}

// History returns at most HistoryLimit readings, newest first.
// The result is never nil.
func (s *Service) History(ctx context.Context, deviceID string) ([]Reading, error) {
	readings, err := s.repo.Recent(ctx, deviceID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if readings == nil {
		readings = []Reading{}
	}
	return readings, nil
}

// DeviceIDs returns every device id seen in telemetry, ascending.
func (s *Service) DeviceIDs(ctx context.Context) ([]string, error) {
	return s.repo.DeviceIDs(ctx)
}

// DeleteByDevice purges all readings for deviceID (case-insensitive).
func (s *Service) DeleteByDevice(ctx context.Context, deviceID string) (int64, error) {
	n, err := s.repo.DeleteByDevice(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("readings purged", "device_id", deviceID, "count", n)
	return n, nil
}
