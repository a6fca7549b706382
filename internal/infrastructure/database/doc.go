// Package database provides SQLite connectivity for the transition history.
//
// This package manages:
//   - Database connection with WAL mode and a busy timeout
//   - Schema migrations embedded in the binary (see package migrations)
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Migrations are additive: new columns must be
// nullable or carry a default.
package database
