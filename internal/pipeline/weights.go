package pipeline

import (
	"fmt"

	"surveycore/internal/dataset"
	"surveycore/internal/rawstore"
)

// Raw weights carry two implied decimal places.
const weightScale = 100

// PropagateWeights derives one survey weight column per entity. Person,
// family, SPM-unit, and household weights come straight from the raw fields;
// the tax-unit weight does not exist in the raw data and is inferred from the
// weight of the family containing each tax unit's first-encountered member.
func PropagateWeights(set *rawstore.TableSet, b *dataset.Builder) error {
	personWeight, err := scaledWeights(set.Person, fieldPersonWeight)
	if err != nil {
		return err
	}
	familyWeight, err := scaledWeights(set.Family, fieldFamilyWeight)
	if err != nil {
		return err
	}
	spmWeight, err := scaledWeights(set.SPMUnit, fieldSPMUnitWeight)
	if err != nil {
		return err
	}
	householdWeight, err := scaledWeights(set.Household, fieldHouseholdWeight)
	if err != nil {
		return err
	}

	taxUnitWeight, err := deriveTaxUnitWeights(set, familyWeight)
	if err != nil {
		return err
	}

	for _, col := range []struct {
		name   string
		values []float64
	}{
		{dataset.ColPersonWeight, personWeight},
		{dataset.ColFamilyWeight, familyWeight},
		{dataset.ColTaxUnitWeight, taxUnitWeight},
		{dataset.ColSPMUnitWeight, spmWeight},
		{dataset.ColHouseholdWeight, householdWeight},
	} {
		if err := b.SetFloats(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}

func scaledWeights(t *rawstore.Table, field string) ([]float64, error) {
	raw, err := t.Float(field)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / weightScale
	}
	return out, nil
}

// deriveTaxUnitWeights resolves each person's family weight through their
// family foreign key, then takes per tax unit the FIRST value encountered in
// person-table row order. When members of one tax unit belong to families
// with different weights only the first member's family weight is used; the
// approximation is deliberate and row-order sensitive.
func deriveTaxUnitWeights(set *rawstore.TableSet, familyWeight []float64) ([]float64, error) {
	famHHSeq, err := set.Family.Int(fieldFamilyHHSeq)
	if err != nil {
		return nil, err
	}
	famPos, err := set.Family.Int(fieldFamilyPos)
	if err != nil {
		return nil, err
	}
	weightByFamily := make(map[int64]float64, len(famHHSeq))
	for i := range famHHSeq {
		id := famHHSeq[i]*10 + famPos[i]
		if _, ok := weightByFamily[id]; !ok {
			weightByFamily[id] = familyWeight[i]
		}
	}

	personHHSeq, err := set.Person.Int(fieldPersonHHSeq)
	if err != nil {
		return nil, err
	}
	personFamSeq, err := set.Person.Int(fieldPersonFamSeq)
	if err != nil {
		return nil, err
	}
	personTaxID, err := set.Person.Int(fieldPersonTaxID)
	if err != nil {
		return nil, err
	}

	firstWeight := make(map[int64]float64)
	for i := range personTaxID {
		familyID := personHHSeq[i]*10 + personFamSeq[i]
		weight, ok := weightByFamily[familyID]
		if !ok {
			return nil, fmt.Errorf("person row %d references unknown family %d", i, familyID)
		}
		if _, seen := firstWeight[personTaxID[i]]; !seen {
			firstWeight[personTaxID[i]] = weight
		}
	}

	taxUnitID, err := set.TaxUnit.Int(fieldTaxUnitID)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(taxUnitID))
	for i, id := range taxUnitID {
		weight, ok := firstWeight[id]
		if !ok {
			return nil, fmt.Errorf("tax unit %d has no members in the person table", id)
		}
		out[i] = weight
	}
	return out, nil
}
