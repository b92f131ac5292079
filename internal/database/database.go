// Package database opens the libSQL connection backing the tracker's
// document store.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Session pragmas. WAL keeps reads from blocking the tracker's writes,
// and synchronous=NORMAL is safe under WAL. The busy timeout covers the
// poll loop and HTTP handlers hitting the file at once.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open returns a configured connection pool for the SQLite file at path.
// Pass ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, p := range pragmas {
		// libSQL rejects Exec for PRAGMAs that return rows, so query and
		// drain instead.
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
