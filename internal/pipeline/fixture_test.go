package pipeline

import (
	"math/rand"
	"testing"

	"surveycore/internal/rawstore"
)

func testRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// fixtureSet builds a small synthetic year: two households, three families,
// two tax units, two SPM units, four persons. Tax unit 100 spans families 11
// (weight 1200) and 12 (weight 800), exercising the first-wins policy.
func fixtureSet(t *testing.T) *rawstore.TableSet {
	t.Helper()
	return &rawstore.TableSet{
		Year: 2020,
		Person: fixtureTable(t, rawstore.EntityPerson, map[string][]float64{
			"PH_SEQ":   {1, 1, 2, 2},
			"P_SEQ":    {1, 2, 1, 2},
			"PF_SEQ":   {1, 2, 1, 1},
			"TAX_ID":   {100, 100, 200, 200},
			"SPM_ID":   {500, 500, 600, 600},
			"A_FNLWGT": {120000, 80000, 230000, 230000},
			"A_AGE":    {30, 85, 79, 82},
			"WSAL_VAL": {50000, 0, 30000, 10000},
			"SEMP_VAL": {0, 2000, 0, 0},
			"FRSE_VAL": {0, 0, 500, 0},
			"SS_VAL":   {0, 12000, 0, 0},
			"UC_VAL":   {0, 0, 600, 0},
			"OI_OFF":   {2, 20, 7, 13},
			"OI_VAL":   {500, 300, 100, 250},
		}),
		Family: fixtureTable(t, rawstore.EntityFamily, map[string][]float64{
			"FH_SEQ":   {1, 1, 2},
			"FFPOS":    {1, 2, 1},
			"FSUP_WGT": {120000, 80000, 230000},
		}),
		TaxUnit: fixtureTable(t, rawstore.EntityTaxUnit, map[string][]float64{
			"TAX_ID": {100, 200},
		}),
		SPMUnit: fixtureTable(t, rawstore.EntitySPMUnit, map[string][]float64{
			"SPM_ID":          {500, 600},
			"SPM_WEIGHT":      {120000, 230000},
			"SPM_TOTVAL":      {40000, 52000},
			"SPM_SNAPSUB":     {100, 0},
			"SPM_CAPHOUSESUB": {0, 50},
			"SPM_SCHLUNCH":    {250, 0},
			"SPM_ENGVAL":      {30, 0},
			"SPM_WICVAL":      {0, 40},
			"SPM_FICA":        {3000, 4000},
			"SPM_FEDTAX":      {2000, 5000},
			"SPM_STTAX":       {500, 900},
			"SPM_CAPWKCCXPNS": {0, 1200},
			"SPM_MEDXPNS":     {800, 300},
			"SPM_POVTHRESHOLD": {27000, 31000},
			"SPM_RESOURCES":   {35000, 41000},
		}),
		Household: fixtureTable(t, rawstore.EntityHousehold, map[string][]float64{
			"H_SEQ":    {1, 2},
			"HSUP_WGT": {150000, 230000},
			"GESTFIPS": {6, 36},
		}),
	}
}

func fixtureTable(t *testing.T, name rawstore.Entity, cols map[string][]float64) *rawstore.Table {
	t.Helper()
	table := rawstore.NewTable(name)
	for field, values := range cols {
		if err := table.SetColumn(field, values); err != nil {
			t.Fatalf("set %s.%s: %v", name, field, err)
		}
	}
	return table
}
