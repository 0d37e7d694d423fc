package sqlite

// Schema DDL for the field cache.
const (
	createCachedTables = `CREATE TABLE IF NOT EXISTS cached_tables (
    table_id TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL
);`

	createCachedFields = `CREATE TABLE IF NOT EXISTS cached_fields (
    table_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    field_id TEXT NOT NULL,
    name TEXT NOT NULL,
    key_name TEXT NOT NULL,
    field_type TEXT NOT NULL,
    required INTEGER NOT NULL,
    created_at TEXT,
    updated_at TEXT,
    PRIMARY KEY (table_id, field_id),
    FOREIGN KEY (table_id) REFERENCES cached_tables(table_id) ON DELETE CASCADE
);`
)

// Index DDL.
const (
	indexCachedFieldsPosition = `CREATE INDEX IF NOT EXISTS idx_cached_fields_position ON cached_fields(table_id, position);`
)

var schemaDDL = []string{
	`PRAGMA foreign_keys = ON;`,
	createCachedTables,
	createCachedFields,
}

var indexDDL = []string{
	indexCachedFieldsPosition,
}
