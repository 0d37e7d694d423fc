// Package sqlite keeps a local SQLite cache of table field schemas.
//
// Fields change rarely compared to records, so the CLI reads them from
// the cache while an entry is younger than the configured TTL and goes to
// the base service otherwise.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/glog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// DBFileName is the cache file created inside the data directory.
const DBFileName = "fields.db"

// ErrCacheClosed is returned by operations on a closed FieldCache.
var ErrCacheClosed = errors.New("field cache closed")

// FieldCache stores the field list of each table with its fetch time.
type FieldCache struct {
	mu  sync.RWMutex
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open creates dataDir if needed and opens the cache inside it. Entries
// older than ttl are reported as misses.
func Open(dataDir string, ttl time.Duration) (*FieldCache, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, err
	}
	// One connection keeps the foreign_keys pragma in effect for every
	// statement.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(schemaDDL, indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &FieldCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached fields of tableID in their original order. ok is
// false when the table has no entry or the entry has expired.
func (c *FieldCache) Get(ctx context.Context, tableID string) (fields []types.Field, ok bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, false, ErrCacheClosed
	}

	var fetchedAt string
	err = c.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM cached_tables WHERE table_id = ?`, tableID).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	if c.now().Sub(at) >= c.ttl {
		glog.V(2).Infof("field cache: %s expired (fetched %s)", tableID, fetchedAt)
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx, `SELECT field_id, name, key_name, field_type, required, created_at, updated_at
FROM cached_fields WHERE table_id = ? ORDER BY position`, tableID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	fields = []types.Field{}
	for rows.Next() {
		f := types.Field{TableID: tableID}
		var fieldType string
		var required int
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.KeyName, &fieldType, &required, &createdAt, &updatedAt); err != nil {
			return nil, false, err
		}
		f.Type = types.FieldType(fieldType)
		f.Required = required != 0
		f.CreatedAt = parseTime(createdAt)
		f.UpdatedAt = parseTime(updatedAt)
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

// Put replaces the cached fields of tableID and stamps the entry with the
// current time.
func (c *FieldCache) Put(ctx context.Context, tableID string, fields []types.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrCacheClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cached_fields WHERE table_id = ?`, tableID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO cached_tables (table_id, fetched_at) VALUES (?, ?)
ON CONFLICT(table_id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		tableID, c.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cached_fields
(table_id, position, field_id, name, key_name, field_type, required, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range fields {
		required := 0
		if f.Required {
			required = 1
		}
		if _, err := stmt.ExecContext(ctx, tableID, i, f.ID, f.Name, f.KeyName, string(f.Type), required,
			formatTime(f.CreatedAt), formatTime(f.UpdatedAt)); err != nil {
			return fmt.Errorf("cache field %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// Invalidate drops the entry of tableID. Missing entries are not an error.
func (c *FieldCache) Invalidate(ctx context.Context, tableID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrCacheClosed
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM cached_tables WHERE table_id = ?`, tableID)
	return err
}

// Close releases the database. Close is idempotent.
func (c *FieldCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
