// Package telemetry classifies and stores bin fill-level readings.
//
// A Reading is appended once per sensor report and never modified. Its
// Status is derived from the fill percentage at write time:
//
//	fill > 80  -> FULL
//	fill > 30  -> HALF
//	otherwise  -> EMPTY
//
// Fill percentages are stored exactly as reported, so 150 is FULL and
// -5 is EMPTY. Readings are removed only when a discovered device's
// history is purged through the registry.
//
// Service is the entry point for both HTTP and MQTT ingestion. Observers
// registered with AddObserver are told about every stored reading; the
// WebSocket hub, the MQTT status publisher and the InfluxDB mirror hang
// off this hook.
//
// Usage:
//
//	repo := telemetry.NewSQLiteRepository(db.DB)
//	svc := telemetry.NewService(repo)
//	svc.SetLogger(log)
//
//	reading, err := svc.Ingest(ctx, "Bin-42", 85)
//	// reading.Status == telemetry.StatusFull
package telemetry
