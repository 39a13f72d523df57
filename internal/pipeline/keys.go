package pipeline

import (
	"surveycore/internal/dataset"
	"surveycore/internal/rawstore"
)

// DeriveKeys computes the synthetic entity identifiers and the four foreign
// keys linking each person to its containing entities. Pure arithmetic over
// the raw sequence fields; row order of every input table is preserved.
func DeriveKeys(set *rawstore.TableSet, b *dataset.Builder) error {
	personHHSeq, err := set.Person.Int(fieldPersonHHSeq)
	if err != nil {
		return err
	}
	personSeq, err := set.Person.Int(fieldPersonSeq)
	if err != nil {
		return err
	}
	personFamSeq, err := set.Person.Int(fieldPersonFamSeq)
	if err != nil {
		return err
	}
	personTaxID, err := set.Person.Int(fieldPersonTaxID)
	if err != nil {
		return err
	}
	personSPMID, err := set.Person.Int(fieldPersonSPMID)
	if err != nil {
		return err
	}

	n := len(personHHSeq)
	personID := make([]int64, n)
	personFamilyID := make([]int64, n)
	for i := range personHHSeq {
		personID[i] = personHHSeq[i]*100 + personSeq[i]
		personFamilyID[i] = personHHSeq[i]*10 + personFamSeq[i]
	}

	famHHSeq, err := set.Family.Int(fieldFamilyHHSeq)
	if err != nil {
		return err
	}
	famPos, err := set.Family.Int(fieldFamilyPos)
	if err != nil {
		return err
	}
	familyID := make([]int64, len(famHHSeq))
	for i := range famHHSeq {
		familyID[i] = famHHSeq[i]*10 + famPos[i]
	}

	taxUnitID, err := set.TaxUnit.Int(fieldTaxUnitID)
	if err != nil {
		return err
	}
	spmUnitID, err := set.SPMUnit.Int(fieldSPMUnitID)
	if err != nil {
		return err
	}
	householdID, err := set.Household.Int(fieldHouseholdSeq)
	if err != nil {
		return err
	}

	for _, col := range []struct {
		name   string
		values []int64
	}{
		{dataset.ColPersonID, personID},
		{dataset.ColPersonHousehold, personHHSeq},
		{dataset.ColPersonFamily, personFamilyID},
		{dataset.ColPersonTaxUnit, personTaxID},
		{dataset.ColPersonSPMUnit, personSPMID},
		{dataset.ColFamilyID, familyID},
		{dataset.ColTaxUnitID, taxUnitID},
		{dataset.ColSPMUnitID, spmUnitID},
		{dataset.ColHouseholdID, householdID},
	} {
		if err := b.SetInts(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}
