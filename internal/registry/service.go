package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/audit"
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

// TelemetryStore is the part of the telemetry store the registry needs:
// discovery of reporting devices and purging their history.
type TelemetryStore interface {
	DeviceIDs(ctx context.Context) ([]string, error)
	DeleteByDevice(ctx context.Context, deviceID string) (int64, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *audit.AuditLog) error
}

// Service provides registry operations over a Repository and the
// telemetry store. All methods are safe for concurrent use.
type Service struct {
	repo      Repository
	telemetry TelemetryStore
	audit     AuditRecorder
	logger    Logger
	now       func() time.Time
	newID     func() string

	mu        sync.RWMutex
	listeners []func(context.Context, Change)
}

// NewService creates a registry service.
func NewService(repo Repository, telemetry TelemetryStore) *Service {
	return &Service{
		repo:      repo,
		telemetry: telemetry,
		logger:    noopLogger{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetAuditRecorder enables the audit trail. Audit failures are logged
// and never fail the mutation.
func (s *Service) SetAuditRecorder(rec AuditRecorder) {
	s.audit = rec
}

// OnChange registers fn to be called after every successful mutation.
func (s *Service) OnChange(fn func(context.Context, Change)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// List returns registered bins newest first, followed by one synthetic
// entry for every device seen in telemetry but not registered.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	regs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	discovered, err := s.telemetry.DeviceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing discovered devices: %w", err)
	}
	return Merge(regs, discovered), nil
}

// Add registers a bin.
//
// Returns:
//   - Registration: The stored registration with its generated id
//   - error: ErrMissingField, ErrEntryExists, or a wrapped storage error
func (s *Service) Add(ctx context.Context, in NewRegistration) (Registration, error) {
	if in.DeviceID == "" {
		return Registration{}, fmt.Errorf("%w: deviceId", ErrMissingField)
	}
	if in.Name == "" {
		return Registration{}, fmt.Errorf("%w: name", ErrMissingField)
	}

	now := s.now().UTC()
	reg := Registration{
		ID:        s.newID(),
		DeviceID:  in.DeviceID,
		Name:      in.Name,
		Details:   in.Details,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, ErrEntryExists) {
			return Registration{}, err
		}
		return Registration{}, fmt.Errorf("registering %s: %w", in.DeviceID, err)
	}

	s.logger.Info("bin registered", "id", reg.ID, "device_id", reg.DeviceID)
	s.record(ctx, ActionRegistered, reg.ID, reg.DeviceID, map[string]any{
		"name":    reg.Name,
		"details": reg.Details,
	})
	return reg, nil
}

// Update edits the name and/or details of a stored registration.
// Synthetic ids are rejected with ErrSyntheticID; unknown ids return
// ErrEntryNotFound.
func (s *Service) Update(ctx context.Context, id string, u Update) (Registration, error) {
	if id == "" {
		return Registration{}, fmt.Errorf("%w: id", ErrMissingField)
	}
	if IsSynthetic(id) {
		return Registration{}, ErrSyntheticID
	}
	if u.Name != nil && *u.Name == "" {
		return Registration{}, fmt.Errorf("%w: name", ErrMissingField)
	}

	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}

	changes := map[string]any{}
	if u.Name != nil {
		reg.Name = *u.Name
		changes["name"] = reg.Name
	}
	if u.Details != nil {
		reg.Details = *u.Details
		changes["details"] = reg.Details
	}
	reg.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, reg); err != nil {
		return Registration{}, err
	}

	s.logger.Info("bin updated", "id", reg.ID, "device_id", reg.DeviceID)
	s.record(ctx, ActionUpdated, reg.ID, reg.DeviceID, changes)
	return reg, nil
}

// Delete removes a registry entry.
//
// For a real id only the registration is removed and readings are kept,
// so the device re-appears as discovered. For a synthetic id every
// reading of the device is purged, ignoring case, together with any
// registration whose device id matches exactly; repeating the purge is
// harmless.
func (s *Service) Delete(ctx context.Context, id string) (DeleteResult, error) {
	if id == "" {
		return DeleteResult{}, fmt.Errorf("%w: id", ErrMissingField)
	}

	if deviceID, ok := DeviceIDFromSynthetic(id); ok {
		return s.purge(ctx, id, deviceID)
	}

	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return DeleteResult{}, err
	}

	s.logger.Info("bin unregistered", "id", id, "device_id", reg.DeviceID)
	s.record(ctx, ActionUnregistered, id, reg.DeviceID, nil)
	return DeleteResult{DeviceID: reg.DeviceID, Action: ActionUnregistered}, nil
}

func (s *Service) purge(ctx context.Context, id, deviceID string) (DeleteResult, error) {
	if deviceID == "" {
		return DeleteResult{}, fmt.Errorf("%w: deviceId", ErrMissingField)
	}

	regs, err := s.repo.DeleteByDeviceID(ctx, deviceID)
	if err != nil {
		return DeleteResult{}, err
	}
	readings, err := s.telemetry.DeleteByDevice(ctx, deviceID)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("purging readings for %s: %w", deviceID, err)
	}

	s.logger.Info("device history purged",
		"device_id", deviceID,
		"registrations_deleted", regs,
		"readings_deleted", readings,
	)
	s.record(ctx, ActionDeletedHistory, id, deviceID, map[string]any{
		"registrationsDeleted": regs,
		"readingsDeleted":      readings,
	})
	return DeleteResult{DeviceID: deviceID, Action: ActionDeletedHistory, ReadingsDeleted: readings}, nil
}

// record writes the audit entry and notifies change listeners.
func (s *Service) record(ctx context.Context, action, id, deviceID string, details map[string]any) {
	if s.audit != nil {
		entry := &audit.AuditLog{
			Action:     action,
			EntityType: audit.EntityBin,
			EntityID:   id,
			DeviceID:   deviceID,
			Source:     audit.SourceAPI,
			Details:    details,
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.logger.Warn("audit write failed", "action", action, "device_id", deviceID, "error", err)
		}
	}

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	change := Change{Action: action, ID: id, DeviceID: deviceID}
	for _, fn := range listeners {
		fn(ctx, change)
	}
}
