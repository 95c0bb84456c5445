// Package db opens the SQLite ingestion history store and applies its migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// Pool modes.
const (
	ModeRead  = "read"
	ModeWrite = "write"
)

// SQLite DSN parameters.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
	defaultReadMaxOpen = 4
)

// Pools is a write/read pool pair over one SQLite file.
type Pools struct {
	Write *sql.DB
	Read  *sql.DB
}

// Close closes both pools.
func (p *Pools) Close() error {
	return errors.Join(p.Read.Close(), p.Write.Close())
}

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
//
// mode controls write-safety and pool sizing:
//   - "write": MaxOpenConns=1, includes _txlock=immediate
//   - "read":  MaxOpenConns=maxOpen (0 defaults to 4)
func OpenSQLite(path string, mode string, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == ModeWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = defaultReadMaxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return db, nil
}

// OpenPools opens the write pool, runs pending migrations on it, then opens
// the read pool. readMaxOpen of 0 defaults to 4.
func OpenPools(path string, readMaxOpen int) (*Pools, error) {
	writeDB, err := OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := RunMigrations(ctx, writeDB); err != nil {
		_ = writeDB.Close()
		return nil, err
	}

	readDB, err := OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, err
	}

	return &Pools{Write: writeDB, Read: readDB}, nil
}

func buildDSN(path string, mode string) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")

	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}

	return path + "?" + params.Encode()
}
