package rawstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testTableSet(t *testing.T, year int) *TableSet {
	t.Helper()
	set := &TableSet{Year: year}
	for _, name := range Entities {
		table := NewTable(name)
		if err := table.SetColumn("SEQ", []float64{1, 2}); err != nil {
			t.Fatalf("SetColumn: %v", err)
		}
		if err := table.SetColumn("WGT", []float64{100, 250}); err != nil {
			t.Fatalf("SetColumn: %v", err)
		}
		if err := assign(set, table); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	return set
}

func TestTableLengthFixedByFirstColumn(t *testing.T) {
	table := NewTable(EntityPerson)
	if err := table.SetColumn("A", []float64{1, 2, 3}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	if table.Length != 3 {
		t.Fatalf("length %d, want 3", table.Length)
	}
	err := table.SetColumn("B", []float64{1})
	var fe FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
}

func TestTableMissingField(t *testing.T) {
	table := NewTable(EntityFamily)
	if err := table.SetColumn("A", []float64{1}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	_, err := table.Float("B")
	var fe FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fe.Table != EntityFamily || fe.Field != "B" {
		t.Fatalf("unexpected field error %+v", fe)
	}
}

func TestTableIntTruncates(t *testing.T) {
	table := NewTable(EntityPerson)
	if err := table.SetColumn("SEQ", []float64{1.0, 2.9}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	got, err := table.Int("SEQ")
	if err != nil {
		t.Fatalf("Int: %v", err)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestTableSetValidateMissingTable(t *testing.T) {
	set := testTableSet(t, 2020)
	set.SPMUnit = nil
	if err := set.Validate(); err == nil {
		t.Fatalf("expected validation failure with absent table")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	sqlitePath := filepath.Join(t.TempDir(), "raw.db")
	stores := map[string]func() (Store, error){
		"memory": func() (Store, error) { return NewMemoryStore(), nil },
		"sqlite": func() (Store, error) { return NewSQLiteStore(sqlitePath) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store, err := open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer func() { _ = store.Close() }()
			ctx := context.Background()

			ok, err := store.Has(ctx, 2020)
			if err != nil || ok {
				t.Fatalf("Has before save: ok=%v err=%v", ok, err)
			}
			var missing ErrYearNotFound
			if _, err := store.Load(ctx, 2020); !errors.As(err, &missing) || missing.Year != 2020 {
				t.Fatalf("Load before save: %v", err)
			}

			if err := store.Save(ctx, testTableSet(t, 2020)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			ok, err = store.Has(ctx, 2020)
			if err != nil || !ok {
				t.Fatalf("Has after save: ok=%v err=%v", ok, err)
			}
			set, err := store.Load(ctx, 2020)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if set.Year != 2020 {
				t.Fatalf("year %d, want 2020", set.Year)
			}
			seq, err := set.Person.Int("SEQ")
			if err != nil {
				t.Fatalf("Int: %v", err)
			}
			if len(seq) != 2 || seq[1] != 2 {
				t.Fatalf("unexpected person SEQ %v", seq)
			}
		})
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "raw.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	if err := store.Save(ctx, testTableSet(t, 2020)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	replacement := testTableSet(t, 2020)
	if err := replacement.Person.SetColumn("SEQ", []float64{7, 8}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	if err := store.Save(ctx, replacement); err != nil {
		t.Fatalf("Save replacement: %v", err)
	}
	set, err := store.Load(ctx, 2020)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	seq, err := set.Person.Int("SEQ")
	if err != nil {
		t.Fatalf("Int: %v", err)
	}
	if seq[0] != 7 {
		t.Fatalf("replacement not persisted: %v", seq)
	}
}

func TestStoreSaveRejectsIncompleteSet(t *testing.T) {
	store := NewMemoryStore()
	set := testTableSet(t, 2020)
	set.Household = nil
	if err := store.Save(context.Background(), set); err == nil {
		t.Fatalf("expected rejection of incomplete table set")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("tape", ""); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
