// Package api implements the HTTP REST API and WebSocket server for SmartWaste Core.
//
// This package provides:
//   - Ingestion of fill-level reports from bin sensors (POST /bin/update)
//   - Status and history queries for the dashboard
//   - Registry management: list, add, update, unregister, purge
//   - WebSocket hub broadcasting new readings and registry changes
//   - Prometheus metrics at /metrics
//
// # Routing
//
// Every bin and registry route is mounted twice, at the root and under
// /api, so /bin/status and /api/bin/status reach the same handler.
//
// # CORS
//
// Sensors post from arbitrary origins, so the ingest route always answers
// with an open policy. The remaining routes follow api.cors in config.
// Pre-flight requests get 200 with an empty body.
//
// # Errors
//
// Failures are JSON bodies of the form {"error": "...", "code": "..."}.
// Ingest storage failures never expose the underlying cause.
package api
