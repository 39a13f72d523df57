package pipeline

import (
	"math/rand"

	"surveycore/internal/dataset"
	"surveycore/internal/rawstore"
)

// The raw survey collapses ages 80-84 to 80 and 85+ to 85. Both top-codes are
// spread uniformly over [80, 85) to undo the bunching at exact integers.
const (
	ageTopCodeLow  = 80
	ageTopCodeHigh = 85
)

// MapDemographics recodes the demographic variables. The age jitter is the
// pipeline's only non-deterministic transform; rng carries the caller's seed.
func MapDemographics(set *rawstore.TableSet, b *dataset.Builder, rng *rand.Rand) error {
	rawAge, err := set.Person.Float(fieldAge)
	if err != nil {
		return err
	}
	age := make([]float64, len(rawAge))
	for i, v := range rawAge {
		if v >= ageTopCodeLow && v <= ageTopCodeHigh {
			age[i] = ageTopCodeLow + 5*rng.Float64()
		} else {
			age[i] = v
		}
	}
	return b.SetFloats(dataset.ColAge, age)
}

// Other-income type codes carried by the OI_OFF field.
var (
	pensionTypeCodes = map[int64]bool{2: true, 13: true}
	alimonyTypeCode  = int64(20)
)

// MapIncome recodes the personal income variables. Most are direct copies;
// pension and alimony income are disaggregated from the generic other-income
// amount by its type code, with unmatched codes dropped from the canonical
// schema (accepted lossy mapping).
func MapIncome(set *rawstore.TableSet, b *dataset.Builder) error {
	for _, direct := range []struct {
		canonical string
		raw       string
	}{
		{dataset.ColEmploymentIncome, fieldWageSalary},
		{dataset.ColSelfEmploymentIncome, fieldSelfEmployment},
		{dataset.ColFarmIncome, fieldFarmSelfEmp},
		{dataset.ColSocialSecurity, fieldSocialSecurity},
		{dataset.ColUnemploymentComp, fieldUnemploymentC},
	} {
		values, err := set.Person.Float(direct.raw)
		if err != nil {
			return err
		}
		if err := b.SetFloats(direct.canonical, values); err != nil {
			return err
		}
	}

	typeCodes, err := set.Person.Int(fieldOtherIncType)
	if err != nil {
		return err
	}
	amounts, err := set.Person.Float(fieldOtherIncAmount)
	if err != nil {
		return err
	}
	pension := make([]float64, len(amounts))
	alimony := make([]float64, len(amounts))
	for i, code := range typeCodes {
		if pensionTypeCodes[code] {
			pension[i] = amounts[i]
		}
		if code == alimonyTypeCode {
			alimony[i] = amounts[i]
		}
	}
	if err := b.SetFloats(dataset.ColPensionIncome, pension); err != nil {
		return err
	}
	return b.SetFloats(dataset.ColAlimonyIncome, alimony)
}

// spmRenames maps canonical SPM-unit variables one-to-one onto raw fields,
// values copied verbatim.
var spmRenames = []struct {
	canonical string
	raw       string
}{
	{dataset.ColSPMTotalIncome, "SPM_TOTVAL"},
	{dataset.ColSNAP, "SPM_SNAPSUB"},
	{dataset.ColSPMHousingSubsidy, "SPM_CAPHOUSESUB"},
	{dataset.ColFreeSchoolMeals, "SPM_SCHLUNCH"},
	{dataset.ColSPMEnergySubsidy, "SPM_ENGVAL"},
	{dataset.ColSPMWIC, "SPM_WICVAL"},
	{dataset.ColSPMFICA, "SPM_FICA"},
	{dataset.ColSPMFederalTax, "SPM_FEDTAX"},
	{dataset.ColSPMStateTax, "SPM_STTAX"},
	{dataset.ColSPMChildcareExpenses, "SPM_CAPWKCCXPNS"},
	{dataset.ColSPMMedicalExpenses, "SPM_MEDXPNS"},
	{dataset.ColSPMThreshold, "SPM_POVTHRESHOLD"},
	{dataset.ColSPMNetIncome, "SPM_RESOURCES"},
}

// MapSPMUnit applies the fixed SPM-unit rename table. Reduced-price school
// meals has no raw source; the column is still emitted, all-zero, at SPM-unit
// length to keep the schema complete for downstream consumers.
func MapSPMUnit(set *rawstore.TableSet, b *dataset.Builder) error {
	for _, rename := range spmRenames {
		values, err := set.SPMUnit.Float(rename.raw)
		if err != nil {
			return err
		}
		if err := b.SetFloats(rename.canonical, values); err != nil {
			return err
		}
	}
	return b.SetFloats(dataset.ColReducedSchoolMeals, make([]float64, set.SPMUnit.Length))
}

// MapHousehold applies the household rename table (no value transform).
func MapHousehold(set *rawstore.TableSet, b *dataset.Builder) error {
	fips, err := set.Household.Int(fieldStateFIPS)
	if err != nil {
		return err
	}
	return b.SetInts(dataset.ColStateFIPS, fips)
}
