// Package sqlstore is a hatch.CollectionStore backed by SQLite.
//
// Pragmas applied on open:
//
//	journal_mode = WAL
//	busy_timeout = 10000
//	synchronous  = NORMAL
//
// IVs and movesets are stored as JSON text columns.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS dex_entries (
	species_id    INTEGER PRIMARY KEY,
	seen_attr     INTEGER NOT NULL DEFAULT 0,
	caught_attr   INTEGER NOT NULL DEFAULT 0,
	nature_attr   INTEGER NOT NULL DEFAULT 0,
	seen_count    INTEGER NOT NULL DEFAULT 0,
	caught_count  INTEGER NOT NULL DEFAULT 0,
	hatched_count INTEGER NOT NULL DEFAULT 0,
	ivs           TEXT    NOT NULL DEFAULT '[0,0,0,0,0,0]'
);

CREATE TABLE IF NOT EXISTS progression_entries (
	species_id        INTEGER PRIMARY KEY,
	moveset           TEXT    NOT NULL DEFAULT '[]',
	egg_moves         INTEGER NOT NULL DEFAULT 0,
	candy_count       INTEGER NOT NULL DEFAULT 0,
	friendship        INTEGER NOT NULL DEFAULT 0,
	ability_attr      INTEGER NOT NULL DEFAULT 0,
	passive_attr      INTEGER NOT NULL DEFAULT 0,
	value_reduction   INTEGER NOT NULL DEFAULT 0,
	classic_win_count INTEGER NOT NULL DEFAULT 0
);
`

// openDB opens path with the pragmas above and applies the schema. The
// special path ":memory:" is limited to one connection so every query sees
// the same database.
func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlstore: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	return db, nil
}

const maxRetries = 3

// isBusy reports whether err indicates an SQLite BUSY condition.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// runTx executes fn inside a transaction, retrying up to 3 times with
// 100/200/300 ms backoff while the database is busy.
func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	for i := range maxRetries {
		err := runOnce(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) || i == maxRetries-1 {
			return err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return fmt.Errorf("sqlstore: context cancelled during retry: %w", err)
		}
	}
	return fmt.Errorf("sqlstore: max retries exceeded")
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
