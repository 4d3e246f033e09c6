package registry

import (
	"strings"
	"time"
)

// SyntheticPrefix marks ids of discovered, unregistered devices.
const SyntheticPrefix = "temp-"

// DiscoveredDetails is the details text of every synthetic entry.
const DiscoveredDetails = "Discovered Device"

// Registry actions. The last two are the outcomes of Delete.
const (
	ActionRegistered     = "registered"
	ActionUpdated        = "updated"
	ActionUnregistered   = "unregistered"
	ActionDeletedHistory = "deleted_history"
)

// Registration is a stored, explicitly registered bin.
type Registration struct {
	ID        string
	DeviceID  string
	Name      string
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is one row of the reconciled registry view.
type Entry struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"deviceId"`
	Name           string     `json:"name"`
	Details        string     `json:"details"`
	IsUnregistered bool       `json:"isUnregistered,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// NewRegistration holds the fields accepted when registering a bin.
type NewRegistration struct {
	DeviceID string
	Name     string
	Details  string
}

// Update holds optional field changes. Nil fields are left unchanged.
type Update struct {
	Name    *string
	Details *string
}

// DeleteResult describes what a Delete removed.
type DeleteResult struct {
	DeviceID        string
	Action          string
	ReadingsDeleted int64
}

// Change describes a completed registry mutation.
type Change struct {
	Action   string `json:"action"`
	ID       string `json:"id"`
	DeviceID string `json:"deviceId"`
}

// SyntheticID returns the placeholder id for an unregistered device.
func SyntheticID(deviceID string) string {
	return SyntheticPrefix + deviceID
}

// IsSynthetic reports whether id belongs to a discovered device.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, SyntheticPrefix)
}

// DeviceIDFromSynthetic strips SyntheticPrefix. ok is false when id is
// not synthetic.
func DeviceIDFromSynthetic(id string) (deviceID string, ok bool) {
	if !IsSynthetic(id) {
		return "", false
	}
	return strings.TrimPrefix(id, SyntheticPrefix), true
}

// Entry converts a registration to its list representation.
func (r Registration) Entry() Entry {
	created := r.CreatedAt
	return Entry{
		ID:        r.ID,
		DeviceID:  r.DeviceID,
		Name:      r.Name,
		Details:   r.Details,
		CreatedAt: &created,
	}
}
