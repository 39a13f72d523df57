package pipeline

import (
	"testing"

	"surveycore/internal/dataset"
)

// finalizeFixture runs every pass over the fixture year and finalizes the
// builder so assertions can read canonical columns.
func finalizeFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	raw := fixtureSet(t)
	b := dataset.NewBuilder()
	if err := DeriveKeys(raw, b); err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	if err := PropagateWeights(raw, b); err != nil {
		t.Fatalf("PropagateWeights: %v", err)
	}
	if err := MapDemographics(raw, b, testRand(1)); err != nil {
		t.Fatalf("MapDemographics: %v", err)
	}
	if err := MapIncome(raw, b); err != nil {
		t.Fatalf("MapIncome: %v", err)
	}
	if err := MapSPMUnit(raw, b); err != nil {
		t.Fatalf("MapSPMUnit: %v", err)
	}
	if err := MapHousehold(raw, b); err != nil {
		t.Fatalf("MapHousehold: %v", err)
	}
	d, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return d
}

func TestDeriveKeysSyntheticIDs(t *testing.T) {
	d := finalizeFixture(t)

	assertInts(t, d, dataset.ColPersonID, []int64{101, 102, 201, 202})
	assertInts(t, d, dataset.ColPersonHousehold, []int64{1, 1, 2, 2})
	assertInts(t, d, dataset.ColPersonFamily, []int64{11, 12, 21, 21})
	assertInts(t, d, dataset.ColPersonTaxUnit, []int64{100, 100, 200, 200})
	assertInts(t, d, dataset.ColPersonSPMUnit, []int64{500, 500, 600, 600})
	assertInts(t, d, dataset.ColFamilyID, []int64{11, 12, 21})
	assertInts(t, d, dataset.ColTaxUnitID, []int64{100, 200})
	assertInts(t, d, dataset.ColSPMUnitID, []int64{500, 600})
	assertInts(t, d, dataset.ColHouseholdID, []int64{1, 2})
}

// Every person foreign key must resolve to exactly one row of the respective
// entity id column.
func TestDeriveKeysContainment(t *testing.T) {
	d := finalizeFixture(t)

	checks := []struct {
		fk, ids string
	}{
		{dataset.ColPersonHousehold, dataset.ColHouseholdID},
		{dataset.ColPersonFamily, dataset.ColFamilyID},
		{dataset.ColPersonTaxUnit, dataset.ColTaxUnitID},
		{dataset.ColPersonSPMUnit, dataset.ColSPMUnitID},
	}
	for _, check := range checks {
		fks, _ := d.Ints(check.fk)
		ids, _ := d.Ints(check.ids)
		counts := make(map[int64]int, len(ids))
		for _, id := range ids {
			counts[id]++
		}
		for id, n := range counts {
			if n != 1 {
				t.Fatalf("%s: id %d appears %d times", check.ids, id, n)
			}
		}
		for i, fk := range fks {
			if counts[fk] != 1 {
				t.Fatalf("%s row %d: foreign key %d has no unique target in %s", check.fk, i, fk, check.ids)
			}
		}
	}
}

func TestDeriveKeysMissingField(t *testing.T) {
	raw := fixtureSet(t)
	delete(raw.Person.Columns, "P_SEQ")
	if err := DeriveKeys(raw, dataset.NewBuilder()); err == nil {
		t.Fatalf("expected missing field error")
	}
}

func assertInts(t *testing.T, d *dataset.Dataset, name string, want []int64) {
	t.Helper()
	got, ok := d.Ints(name)
	if !ok {
		t.Fatalf("column %s missing", name)
	}
	if len(got) != len(want) {
		t.Fatalf("column %s: got %d rows, want %d", name, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s row %d: got %d, want %d", name, i, got[i], want[i])
		}
	}
}

func assertFloats(t *testing.T, d *dataset.Dataset, name string, want []float64) {
	t.Helper()
	got, ok := d.Floats(name)
	if !ok {
		t.Fatalf("column %s missing", name)
	}
	if len(got) != len(want) {
		t.Fatalf("column %s: got %d rows, want %d", name, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s row %d: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
