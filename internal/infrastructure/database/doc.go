// Package database provides SQLite connectivity for the dispatch audit log.
//
// This package manages:
//   - Connection lifecycle with WAL mode and busy timeout pragmas
//   - Schema migrations from embedded SQL files
//   - Health checks for the readiness probe
//
// The engine is the only writer; the single-connection pool matches
// SQLite's single-writer model.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "./data/rhasspy-automation.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
