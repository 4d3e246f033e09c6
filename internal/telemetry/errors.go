package telemetry

import "errors"

// Domain errors for the telemetry package.
//
//	if errors.Is(err, telemetry.ErrInvalidFill) {
//	    // reject the report
//	}
var (
	// ErrInvalidDeviceID is returned when a reading has no device id.
	ErrInvalidDeviceID = errors.New("telemetry: device id is required")

	// ErrInvalidFill is returned for fill percentages that are NaN or infinite.
	ErrInvalidFill = errors.New("telemetry: fill percentage must be a finite number")

	// ErrInvalidStatus is returned when a reading carries a status outside
	// EMPTY, HALF and FULL.
	ErrInvalidStatus = errors.New("telemetry: unknown status")

	// ErrNoReadings is returned by Repository.Latest when nothing matches.
	ErrNoReadings = errors.New("telemetry: no readings")
)
