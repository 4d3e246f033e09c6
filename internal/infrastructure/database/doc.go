// Package database provides SQLite connectivity for SmartWaste Core.
//
// It owns the connection lifecycle (WAL mode, busy timeout, a single
// writer connection) and applies the embedded schema migrations that
// create the bin_readings, bin_registry and audit_logs tables.
//
// All queries use parameterised statements. The database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and are registered by the migrations package.
package database
