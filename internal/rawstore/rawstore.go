// Package rawstore provides read-only access to the reshaped raw survey
// tables for one year, plus the persistent backends that materialize them.
package rawstore

import (
	"context"
	"fmt"
)

// Entity names the five raw tables of a survey year.
type Entity string

const (
	EntityPerson    Entity = "person"
	EntityFamily    Entity = "family"
	EntityTaxUnit   Entity = "tax_unit"
	EntitySPMUnit   Entity = "spm_unit"
	EntityHousehold Entity = "household"
)

// Entities lists the raw tables in canonical order.
var Entities = []Entity{EntityPerson, EntityFamily, EntityTaxUnit, EntitySPMUnit, EntityHousehold}

// Table is one raw entity table: equal-length numeric columns keyed by the
// raw survey field name. Row order is positional and significant.
type Table struct {
	Name    Entity               `json:"name"`
	Length  int                  `json:"length"`
	Columns map[string][]float64 `json:"columns"`
}

// NewTable constructs an empty table for the given entity.
func NewTable(name Entity) *Table {
	return &Table{Name: name, Columns: make(map[string][]float64)}
}

// SetColumn adds a column, fixing the table length on first insert and
// rejecting any later column of a different length.
func (t *Table) SetColumn(field string, values []float64) error {
	if len(t.Columns) == 0 {
		t.Length = len(values)
	} else if len(values) != t.Length {
		return FieldError{Table: t.Name, Field: field, Reason: fmt.Sprintf("length %d, table has %d rows", len(values), t.Length)}
	}
	t.Columns[field] = values
	return nil
}

// Float returns the named column. Absence is a fatal input-format error.
func (t *Table) Float(field string) ([]float64, error) {
	col, ok := t.Columns[field]
	if !ok {
		return nil, FieldError{Table: t.Name, Field: field, Reason: "missing"}
	}
	if len(col) != t.Length {
		return nil, FieldError{Table: t.Name, Field: field, Reason: fmt.Sprintf("length %d, table has %d rows", len(col), t.Length)}
	}
	return col, nil
}

// Int returns the named column truncated to integers, for the sequence and
// identifier fields that are integral by contract.
func (t *Table) Int(field string) ([]int64, error) {
	col, err := t.Float(field)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(col))
	for i, v := range col {
		out[i] = int64(v)
	}
	return out, nil
}

// TableSet bundles the five raw tables for one survey year.
type TableSet struct {
	Year      int    `json:"year"`
	Person    *Table `json:"person"`
	Family    *Table `json:"family"`
	TaxUnit   *Table `json:"tax_unit"`
	SPMUnit   *Table `json:"spm_unit"`
	Household *Table `json:"household"`
}

// Table returns the table for the named entity.
func (s *TableSet) Table(name Entity) (*Table, error) {
	var t *Table
	switch name {
	case EntityPerson:
		t = s.Person
	case EntityFamily:
		t = s.Family
	case EntityTaxUnit:
		t = s.TaxUnit
	case EntitySPMUnit:
		t = s.SPMUnit
	case EntityHousehold:
		t = s.Household
	default:
		return nil, fmt.Errorf("unknown entity %s", name)
	}
	if t == nil {
		return nil, fmt.Errorf("table %s absent from year %d", name, s.Year)
	}
	return t, nil
}

// Validate checks that all five tables are present.
func (s *TableSet) Validate() error {
	for _, name := range Entities {
		if _, err := s.Table(name); err != nil {
			return err
		}
	}
	return nil
}

// Store persists raw table sets keyed by year.
type Store interface {
	// Has reports whether the year's tables are materialized.
	Has(ctx context.Context, year int) (bool, error)
	// Load returns the year's tables or ErrYearNotFound.
	Load(ctx context.Context, year int) (*TableSet, error)
	// Save materializes the table set, replacing any previous copy of the year.
	Save(ctx context.Context, set *TableSet) error
	// Close releases the backing resource. Safe to call once.
	Close() error
	// Driver returns the configured backend driver string.
	Driver() Driver
}

// Driver identifies a concrete raw table storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// ErrYearNotFound reports that a year's raw tables are not materialized.
// Callers treat it as recoverable: it triggers the raw sub-pipeline.
type ErrYearNotFound struct {
	Year int
}

func (e ErrYearNotFound) Error() string {
	return fmt.Sprintf("raw tables for year %d not found", e.Year)
}

// FieldError reports a raw field absent or inconsistent with its table.
// It is fatal: no partial output is produced once one surfaces.
type FieldError struct {
	Table  Entity
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("raw field %s.%s: %s", e.Table, e.Field, e.Reason)
}

// Open selects a Store implementation by driver.
//
//	memory:   ephemeral, for tests
//	sqlite:   path is the database file (default ./surveycore.db)
//	postgres: path is the DSN
func Open(driver Driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverPostgres:
		return NewPostgresStore(path)
	default:
		return nil, fmt.Errorf("unknown raw store driver %s", driver)
	}
}
