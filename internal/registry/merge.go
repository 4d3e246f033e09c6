package registry

// Merge builds the reconciled registry view. Registrations keep their
// order (newest first, as listed by the repository) and are followed by
// one synthetic entry per discovered device id that no registration
// claims, in discovery order. Matching is exact. Duplicate discovered
// ids yield a single entry.
func Merge(registrations []Registration, discovered []string) []Entry {
	entries := make([]Entry, 0, len(registrations)+len(discovered))
	known := make(map[string]struct{}, len(registrations)+len(discovered))

	for _, r := range registrations {
		entries = append(entries, r.Entry())
		known[r.DeviceID] = struct{}{}
	}

	for _, deviceID := range discovered {
		if deviceID == "" {
			continue
		}
		if _, ok := known[deviceID]; ok {
			continue
		}
		known[deviceID] = struct{}{}
		entries = append(entries, Entry{
			ID:             SyntheticID(deviceID),
			DeviceID:       deviceID,
			Name:           deviceID,
			Details:        DiscoveredDetails,
			IsUnregistered: true,
		})
	}

	return entries
}
