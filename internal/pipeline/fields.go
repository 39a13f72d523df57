package pipeline

// Raw survey field names, as delivered by the upstream raw-data pipeline.
const (
	// person table
	fieldPersonHHSeq  = "PH_SEQ"   // household sequence of the containing household
	fieldPersonSeq    = "P_SEQ"    // person sequence within the household
	fieldPersonFamSeq = "PF_SEQ"   // family position within the household
	fieldPersonTaxID  = "TAX_ID"   // pre-existing tax unit id
	fieldPersonSPMID  = "SPM_ID"   // pre-existing SPM unit id
	fieldPersonWeight = "A_FNLWGT" // person weight, scaled by 100
	fieldAge          = "A_AGE"

	fieldWageSalary     = "WSAL_VAL"
	fieldSelfEmployment = "SEMP_VAL"
	fieldFarmSelfEmp    = "FRSE_VAL"
	fieldSocialSecurity = "SS_VAL"
	fieldUnemploymentC  = "UC_VAL"
	fieldOtherIncType   = "OI_OFF" // type code for the generic other-income amount
	fieldOtherIncAmount = "OI_VAL"

	// family table
	fieldFamilyHHSeq  = "FH_SEQ"
	fieldFamilyPos    = "FFPOS"
	fieldFamilyWeight = "FSUP_WGT"

	// tax unit table
	fieldTaxUnitID = "TAX_ID"

	// spm unit table
	fieldSPMUnitID     = "SPM_ID"
	fieldSPMUnitWeight = "SPM_WEIGHT"

	// household table
	fieldHouseholdSeq    = "H_SEQ"
	fieldHouseholdWeight = "HSUP_WGT"
	fieldStateFIPS       = "GESTFIPS"
)
