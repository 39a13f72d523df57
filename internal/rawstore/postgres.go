package rawstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/surveycore?sslmode=disable"

// PostgresStore persists raw table sets to PostgreSQL with the same
// one-JSON-blob-per-(year, entity) layout as the SQLite backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a Postgres-backed raw store using the provided DSN
// (falls back to a local default) and ensures the raw_tables relation exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS raw_tables (
		year INTEGER NOT NULL,
		entity TEXT NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (year, entity)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create raw_tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Driver() Driver { return DriverPostgres }

func (s *PostgresStore) Has(ctx context.Context, year int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_tables WHERE year = $1`, year).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count raw tables: %w", err)
	}
	return n == len(Entities), nil
}

func (s *PostgresStore) Load(ctx context.Context, year int) (*TableSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity, payload FROM raw_tables WHERE year = $1`, year)
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

func (s *PostgresStore) Save(ctx context.Context, set *TableSet) error {
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
			`INSERT INTO raw_tables(year, entity, payload) VALUES ($1, $2, $3)
			 ON CONFLICT (year, entity) DO UPDATE SET payload = EXCLUDED.payload`,
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

func (s *PostgresStore) Close() error { return s.db.Close() }
