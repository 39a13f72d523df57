// Package dataset defines the canonical simulation-input dataset: a fixed,
// typed schema of per-entity columns, an append-only builder populated by the
// recoding passes, and a deterministic codec for the persisted artifact.
package dataset

// Entity is one level of the population hierarchy.
type Entity string

const (
	Person    Entity = "person"
	Family    Entity = "family"
	TaxUnit   Entity = "tax_unit"
	SPMUnit   Entity = "spm_unit"
	Household Entity = "household"
)

// Kind is the storage type of a canonical column.
type Kind uint8

const (
	KindInt   Kind = iota + 1 // int64 (identifiers, categorical codes)
	KindFloat                 // float64 (weights, amounts, age)
)

// Canonical column names. Every name consumed by the downstream rule engine
// is declared here; the builder rejects anything else.
const (
	ColPersonID        = "person_id"
	ColPersonHousehold = "person_household_id"
	ColPersonFamily    = "person_family_id"
	ColPersonTaxUnit   = "person_tax_unit_id"
	ColPersonSPMUnit   = "person_spm_unit_id"
	ColFamilyID        = "family_id"
	ColTaxUnitID       = "tax_unit_id"
	ColSPMUnitID       = "spm_unit_id"
	ColHouseholdID     = "household_id"

	ColPersonWeight    = "person_weight"
	ColFamilyWeight    = "family_weight"
	ColTaxUnitWeight   = "tax_unit_weight"
	ColSPMUnitWeight   = "spm_unit_weight"
	ColHouseholdWeight = "household_weight"

	ColAge = "age"

	ColEmploymentIncome     = "employment_income"
	ColSelfEmploymentIncome = "self_employment_income"
	ColFarmIncome           = "farm_income"
	ColSocialSecurity       = "social_security"
	ColUnemploymentComp     = "unemployment_compensation"
	ColPensionIncome        = "pension_income"
	ColAlimonyIncome        = "alimony_income"

	ColSPMTotalIncome       = "spm_unit_total_income"
	ColSNAP                 = "snap"
	ColSPMHousingSubsidy    = "spm_unit_capped_housing_subsidy"
	ColFreeSchoolMeals      = "free_school_meals"
	ColReducedSchoolMeals   = "reduced_price_school_meals"
	ColSPMEnergySubsidy     = "spm_unit_energy_subsidy"
	ColSPMWIC               = "spm_unit_wic"
	ColSPMFICA              = "spm_unit_fica"
	ColSPMFederalTax        = "spm_unit_federal_tax"
	ColSPMStateTax          = "spm_unit_state_tax"
	ColSPMChildcareExpenses = "spm_unit_work_childcare_expenses"
	ColSPMMedicalExpenses   = "spm_unit_medical_expenses"
	ColSPMThreshold         = "spm_unit_spm_threshold"
	ColSPMNetIncome         = "spm_unit_net_income_reported"

	ColStateFIPS = "state_fips"
)

// Column declares one canonical variable: its name, entity level, and kind.
type Column struct {
	Name   string `json:"name"`
	Entity Entity `json:"entity"`
	Kind   Kind   `json:"kind"`
}

// idColumns maps each entity to its identifier column, the positional anchor
// every same-entity column must stay aligned with.
var idColumns = map[Entity]string{
	Person:    ColPersonID,
	Family:    ColFamilyID,
	TaxUnit:   ColTaxUnitID,
	SPMUnit:   ColSPMUnitID,
	Household: ColHouseholdID,
}

// IDColumn returns the identifier column name for an entity.
func IDColumn(entity Entity) string { return idColumns[entity] }

// schema is the full canonical column set in artifact order. Order is fixed
// so that encoding the same dataset twice yields identical bytes.
var schema = []Column{
	{ColPersonID, Person, KindInt},
	{ColPersonHousehold, Person, KindInt},
	{ColPersonFamily, Person, KindInt},
	{ColPersonTaxUnit, Person, KindInt},
	{ColPersonSPMUnit, Person, KindInt},
	{ColFamilyID, Family, KindInt},
	{ColTaxUnitID, TaxUnit, KindInt},
	{ColSPMUnitID, SPMUnit, KindInt},
	{ColHouseholdID, Household, KindInt},

	{ColPersonWeight, Person, KindFloat},
	{ColFamilyWeight, Family, KindFloat},
	{ColTaxUnitWeight, TaxUnit, KindFloat},
	{ColSPMUnitWeight, SPMUnit, KindFloat},
	{ColHouseholdWeight, Household, KindFloat},

	{ColAge, Person, KindFloat},

	{ColEmploymentIncome, Person, KindFloat},
	{ColSelfEmploymentIncome, Person, KindFloat},
	{ColFarmIncome, Person, KindFloat},
	{ColSocialSecurity, Person, KindFloat},
	{ColUnemploymentComp, Person, KindFloat},
	{ColPensionIncome, Person, KindFloat},
	{ColAlimonyIncome, Person, KindFloat},

	{ColSPMTotalIncome, SPMUnit, KindFloat},
	{ColSNAP, SPMUnit, KindFloat},
	{ColSPMHousingSubsidy, SPMUnit, KindFloat},
	{ColFreeSchoolMeals, SPMUnit, KindFloat},
	{ColReducedSchoolMeals, SPMUnit, KindFloat},
	{ColSPMEnergySubsidy, SPMUnit, KindFloat},
	{ColSPMWIC, SPMUnit, KindFloat},
	{ColSPMFICA, SPMUnit, KindFloat},
	{ColSPMFederalTax, SPMUnit, KindFloat},
	{ColSPMStateTax, SPMUnit, KindFloat},
	{ColSPMChildcareExpenses, SPMUnit, KindFloat},
	{ColSPMMedicalExpenses, SPMUnit, KindFloat},
	{ColSPMThreshold, SPMUnit, KindFloat},
	{ColSPMNetIncome, SPMUnit, KindFloat},

	{ColStateFIPS, Household, KindInt},
}

// Schema returns a copy of the canonical column declarations in artifact order.
func Schema() []Column {
	out := make([]Column, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the declaration for a canonical column name.
func Lookup(name string) (Column, bool) {
	for _, col := range schema {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}
