package dataset

import (
	"fmt"
)

// Builder accumulates canonical columns during the recoding passes. It is
// append-only: each declared column is assigned exactly once, undeclared
// names are rejected, and schema completeness plus positional alignment are
// validated when the builder is finalized.
type Builder struct {
	ints   map[string][]int64
	floats map[string][]float64
}

// NewBuilder returns an empty canonical output container.
func NewBuilder() *Builder {
	return &Builder{
		ints:   make(map[string][]int64),
		floats: make(map[string][]float64),
	}
}

// SetInts assigns an integer column.
func (b *Builder) SetInts(name string, values []int64) error {
	col, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("column %s not in canonical schema", name)
	}
	if col.Kind != KindInt {
		return fmt.Errorf("column %s is not an integer column", name)
	}
	if b.assigned(name) {
		return fmt.Errorf("column %s already assigned", name)
	}
	b.ints[name] = values
	return nil
}

// SetFloats assigns a float column.
func (b *Builder) SetFloats(name string, values []float64) error {
	col, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("column %s not in canonical schema", name)
	}
	if col.Kind != KindFloat {
		return fmt.Errorf("column %s is not a float column", name)
	}
	if b.assigned(name) {
		return fmt.Errorf("column %s already assigned", name)
	}
	b.floats[name] = values
	return nil
}

func (b *Builder) assigned(name string) bool {
	if _, ok := b.ints[name]; ok {
		return true
	}
	_, ok := b.floats[name]
	return ok
}

// Finalize validates the accumulated columns against the canonical schema and
// freezes them into a Dataset. Every declared column must be present, and all
// columns of one entity must share the length of that entity's id column.
func (b *Builder) Finalize() (*Dataset, error) {
	lengths := make(map[Entity]int)
	for entity, idCol := range idColumns {
		ids, ok := b.ints[idCol]
		if !ok {
			return nil, fmt.Errorf("id column %s missing", idCol)
		}
		lengths[entity] = len(ids)
	}

	d := &Dataset{index: make(map[string]int, len(schema))}
	for _, col := range schema {
		var length int
		data := columnData{Column: col}
		switch col.Kind {
		case KindInt:
			values, ok := b.ints[col.Name]
			if !ok {
				return nil, fmt.Errorf("column %s missing", col.Name)
			}
			data.ints = values
			length = len(values)
		case KindFloat:
			values, ok := b.floats[col.Name]
			if !ok {
				return nil, fmt.Errorf("column %s missing", col.Name)
			}
			data.floats = values
			length = len(values)
		}
		if want := lengths[col.Entity]; length != want {
			return nil, fmt.Errorf("column %s has %d rows, %s entity has %d", col.Name, length, col.Entity, want)
		}
		d.index[col.Name] = len(d.columns)
		d.columns = append(d.columns, data)
	}
	if err := d.checkIdentifiers(); err != nil {
		return nil, err
	}
	return d, nil
}

// foreignKeys maps each person foreign-key column to the entity whose id
// column it must resolve into.
var foreignKeys = map[string]Entity{
	ColPersonHousehold: Household,
	ColPersonFamily:    Family,
	ColPersonTaxUnit:   TaxUnit,
	ColPersonSPMUnit:   SPMUnit,
}

// checkIdentifiers enforces the containment invariants: synthetic ids are
// unique within their entity, and every person foreign key resolves to
// exactly one entity row.
func (d *Dataset) checkIdentifiers() error {
	idSets := make(map[Entity]map[int64]struct{}, len(idColumns))
	for entity, idCol := range idColumns {
		ids, _ := d.Ints(idCol)
		seen := make(map[int64]struct{}, len(ids))
		for i, id := range ids {
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%s row %d: duplicate id %d", idCol, i, id)
			}
			seen[id] = struct{}{}
		}
		idSets[entity] = seen
	}
	for fkCol, entity := range foreignKeys {
		fks, _ := d.Ints(fkCol)
		for i, fk := range fks {
			if _, ok := idSets[entity][fk]; !ok {
				return fmt.Errorf("%s row %d: id %d not present in %s", fkCol, i, fk, idColumns[entity])
			}
		}
	}
	return nil
}

type columnData struct {
	Column
	ints   []int64
	floats []float64
}

// Dataset is a finalized, schema-complete canonical column set for one year.
type Dataset struct {
	columns []columnData
	index   map[string]int
}

// Ints returns an integer column by canonical name.
func (d *Dataset) Ints(name string) ([]int64, bool) {
	i, ok := d.index[name]
	if !ok || d.columns[i].Kind != KindInt {
		return nil, false
	}
	return d.columns[i].ints, true
}

// Floats returns a float column by canonical name.
func (d *Dataset) Floats(name string) ([]float64, bool) {
	i, ok := d.index[name]
	if !ok || d.columns[i].Kind != KindFloat {
		return nil, false
	}
	return d.columns[i].floats, true
}

// Length returns the row count of an entity level.
func (d *Dataset) Length(entity Entity) int {
	ids, _ := d.Ints(idColumns[entity])
	return len(ids)
}
