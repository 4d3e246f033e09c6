// Package logging provides structured logging for SmartWaste Core.
//
// It wraps log/slog so every entry carries the service name and build
// version, and so format and level come from configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("reading ingested", "device_id", id, "status", status)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
