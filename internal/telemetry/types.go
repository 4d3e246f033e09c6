package telemetry

import "time"

// Status is the coarse fill classification of a reading.
type Status string

const (
	StatusEmpty Status = "EMPTY"
	StatusHalf  Status = "HALF"
	StatusFull  Status = "FULL"
)

// Classification thresholds (strictly greater than).
const (
	FullThreshold = 80.0
	HalfThreshold = 30.0
)

// HistoryLimit is the maximum number of readings returned by History.
const HistoryLimit = 20

// UnknownDeviceID is reported by the status fallback when no device was requested.
const UnknownDeviceID = "UNKNOWN"

// Classify maps a fill percentage to a Status. Values are not clamped.
func Classify(fill float64) Status {
	switch {
	case fill > FullThreshold:
		return StatusFull
	case fill > HalfThreshold:
		return StatusHalf
	default:
		return StatusEmpty
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusEmpty, StatusHalf, StatusFull:
		return true
	}
	return false
}

// Reading is one stored fill-level report.
type Reading struct {
	ID             int64     `json:"id"`
	DeviceID       string    `json:"deviceId"`
	FillPercentage float64   `json:"fillPercentage"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FallbackReading is the placeholder returned when no reading exists.
// An empty deviceID becomes UnknownDeviceID.
func FallbackReading(deviceID string) Reading {
	if deviceID == "" {
		deviceID = UnknownDeviceID
	}
	return Reading{
		DeviceID:       deviceID,
		FillPercentage: 0,
		Status:         StatusEmpty,
	}
}
