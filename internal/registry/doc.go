// Package registry manages bin registrations and reconciles them with
// devices discovered from telemetry.
//
// A bin can appear in the registry in two ways. A real Registration is
// created explicitly and has a UUID id. A device that has sent readings
// but was never registered is surfaced as a synthetic entry with id
// "temp-<deviceId>", name equal to the device id, details "Discovered
// Device" and IsUnregistered set. Synthetic entries exist only in List
// results and are never stored.
//
// Deleting distinguishes the two:
//
//   - a real id removes only the registration; readings stay, so the
//     device re-appears as a synthetic entry on the next List
//   - a synthetic id purges the device: any registration with that device
//     id and every reading for it, matched case-insensitively
//
// Merge is the pure reconciliation function; Service wires it to storage.
package registry
