package rawstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore persists raw table sets to a single SQLite file as JSON blobs,
// one row per (year, entity).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed raw store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "surveycore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS raw_tables (
		year INTEGER NOT NULL,
		entity TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (year, entity)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create raw_tables: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Driver() Driver { return DriverSQLite }

func (s *SQLiteStore) Has(ctx context.Context, year int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_tables WHERE year = ?`, year).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count raw tables: %w", err)
	}
	return n == len(Entities), nil
}

func (s *SQLiteStore) Load(ctx context.Context, year int) (*TableSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity, payload FROM raw_tables WHERE year = ?`, year)
	if err != nil {
		return nil, fmt.Errorf("select raw tables: %w", err)
	}
	defer func() { _ = rows.Close() }()
	set := &TableSet{Year: year}
	found := 0
	for rows.Next() {
		var entity string
		var payload []byte
		if err := rows.Scan(&entity, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		table := NewTable(Entity(entity))
		if err := json.Unmarshal(payload, table); err != nil {
			return nil, fmt.Errorf("decode %s table: %w", entity, err)
		}
		if err := assign(set, table); err != nil {
			return nil, err
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw tables: %w", err)
	}
	if found == 0 {
		return nil, ErrYearNotFound{Year: year}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SQLiteStore) Save(ctx context.Context, set *TableSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, name := range Entities {
		table, _ := set.Table(name)
		payload, err := json.Marshal(table)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode %s table: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO raw_tables(year, entity, payload) VALUES (?, ?, ?)`,
			set.Year, string(name), payload); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s table: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func assign(set *TableSet, table *Table) error {
	switch table.Name {
	case EntityPerson:
		set.Person = table
	case EntityFamily:
		set.Family = table
	case EntityTaxUnit:
		set.TaxUnit = table
	case EntitySPMUnit:
		set.SPMUnit = table
	case EntityHousehold:
		set.Household = table
	default:
		return fmt.Errorf("unknown entity %s in stored tables", table.Name)
	}
	return nil
}
