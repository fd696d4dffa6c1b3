// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package storage is the tabular sink at the end of a pipeline run. It
// loads every finished result table into an embedded DuckDB database
// under the analytics schema (fact_* tables), derives the dimension
// tables, and recreates the reporting views.
//
// Each table load is drop-and-recreate inside one transaction: a rerun
// fully replaces the previous run's table, and a failing load leaves the
// previous table intact rather than a partial one.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/medallion-analytics/medallion/internal/config"
)

// DB wraps the DuckDB connection used by the sink.
type DB struct {
	conn *sql.DB
}

// Open creates (or opens) the DuckDB database and the analytics schema.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d", cfg.Path, numThreads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is an embedded single-writer database; keep one connection
	// so transactional DDL and inserts share a session.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("CREATE SCHEMA IF NOT EXISTS analytics"); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("create analytics schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// recreate drops and recreates one table inside the transaction batch,
// then bulk-inserts its rows via insert, which receives a prepared
// statement for insertSQL.
func (db *DB) recreate(ctx context.Context, table, createSQL, insertSQL string, insert func(*sql.Stmt) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load of %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	if insert != nil {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("prepare insert for %s: %w", table, err)
		}
		defer stmt.Close()

		if err := insert(stmt); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

// rowCount returns the row count of a table, for load logging.
func (db *DB) rowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func closeQuietly(c *sql.DB) {
	_ = c.Close()
}
