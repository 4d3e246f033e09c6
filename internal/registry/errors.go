package registry

import "errors"

// Domain errors for the registry package.
//
//	if errors.Is(err, registry.ErrEntryExists) {
//	    // respond 409
//	}
var (
	// ErrEntryNotFound is returned when a registration id does not exist.
	ErrEntryNotFound = errors.New("registry: entry not found")

	// ErrEntryExists is returned when a device id is already registered.
	ErrEntryExists = errors.New("registry: device already registered")

	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("registry: missing required field")

	// ErrSyntheticID is returned when a discovered-device id is used where
	// a stored registration is required.
	ErrSyntheticID = errors.New("registry: discovered devices cannot be updated")
)
