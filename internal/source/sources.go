package source

import (
	"fmt"
	"strings"
)

// SourceID identifies one of the nine government registries being merged.
type SourceID string

const (
	NHA    SourceID = "NHA"     // National Health Authority facility registry
	PHC    SourceID = "PHC"     // Primary Health Centres
	PMGSY  SourceID = "PMGSY"   // PMGSY facility survey
	PMJAY  SourceID = "PMJAY"   // PM-JAY empanelled hospitals
	NIN    SourceID = "NIN"     // National Identification Number registry
	CDACBB SourceID = "CDAC_BB" // CDAC blood banks
	CHC    SourceID = "CHC"     // Community Health Centres
	CGHS   SourceID = "CGHS"    // CGHS empanelled hospitals
	NHP    SourceID = "NHP"     // NHP medical colleges
)

// MergeOrder lists every source in processing order: NHA is the base
// registry, the rest merge into it.
var MergeOrder = []SourceID{NHA, PHC, PMGSY, PMJAY, NIN, CDACBB, CHC, CGHS, NHP}

// DefaultFiles maps each source to its published CSV file name.
var DefaultFiles = map[SourceID]string{
	NHA:    "1_MAR_AR_2025_NHA_WITH_PMJAY_SPECIALITIES_WITH_CODES.csv",
	PHC:    "21_June_2024_AM_PHC.csv",
	PMGSY:  "21_JULY_23_SRK_PMGSY_validated_homogenized.csv",
	PMJAY:  "18_MAY_23_SRK_PMJAY_validated_and_standardized.csv",
	NIN:    "22_MAY_22_AP_NIN.csv",
	CDACBB: "16_MAY_AR_CDAC_BB_DATASET.csv",
	CHC:    "21_June_2024_AM_CHC.csv",
	CGHS:   "18_SEPTEMBER_23_SRK_CGHS_Correct_Data.csv",
	NHP:    "8_JULY_23_SRK_NHP_validated_and_standardized.csv",
}

// Canonical field names. A column map may only target these (or an
// underscore-prefixed internal field, which lands in the record extension).
const (
	FieldSourceKey       = "source_key"
	FieldName            = "facility_name"
	FieldFacilityType    = "facility_type"
	FieldFacilitySubtype = "facility_subtype"
	FieldOwnership       = "ownership"
	FieldAddress         = "address"
	FieldState           = "state"
	FieldStateCode       = "state_code"
	FieldDistrict        = "district"
	FieldDistrictCode    = "district_code"
	FieldPincode         = "pincode"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldLatitude        = "latitude"
	FieldLongitude       = "longitude"
	FieldSpecialties     = "specialties"
	FieldNumBeds         = "num_beds"
	FieldABDMEnabled     = "abdm_enabled"
	FieldIs24x7          = "is_24x7"
)

var knownFields = map[string]bool{
	FieldSourceKey: true, FieldName: true, FieldFacilityType: true,
	FieldFacilitySubtype: true, FieldOwnership: true, FieldAddress: true,
	FieldState: true, FieldStateCode: true, FieldDistrict: true,
	FieldDistrictCode: true, FieldPincode: true, FieldPhone: true,
	FieldEmail: true, FieldLatitude: true, FieldLongitude: true,
	FieldSpecialties: true, FieldNumBeds: true, FieldABDMEnabled: true,
	FieldIs24x7: true,
}

// ColumnMaps is the contract between the merge core and the nine source
// formats: source column name -> canonical field. When a source changes its
// columns this table is updated, not the loading logic. Underscore-prefixed
// targets are source-internal fields preserved in the record extension.
var ColumnMaps = map[SourceID]map[string]string{
	NHA: {
		"Facility ID":        FieldSourceKey,
		"hospital_name":      FieldName,
		"Address":            FieldAddress,
		"Latitude":           FieldLatitude,
		"Longitude":          FieldLongitude,
		"State_name":         FieldState,
		"District_name":      FieldDistrict,
		"new_state_name":     "_nha_std_state",
		"state_code":         FieldStateCode,
		"new_district_name":  "_nha_std_district",
		"district_code":      FieldDistrictCode,
		"Facility Type":      FieldFacilityType,
		"Ownership":          FieldOwnership,
		"ABDM Enabled":       FieldABDMEnabled,
		"24/7":               FieldIs24x7,
		"merged_specialties": FieldSpecialties,
	},
	PHC: {
		"STATE_NAME":    FieldState,
		"DISTRICT_NAME": FieldDistrict,
		"FACILITY_ID":   FieldSourceKey,
		"FAC_DESC":      FieldName,
		"Latitude":      FieldLatitude,
		"Longitude":     FieldLongitude,
	},
	PMGSY: {
		"STATE_NAME":           FieldState,
		"DISTRICT_NAME":        FieldDistrict,
		"BLOCK_NAME":           "_block",
		"MASTER_FACILITY_DESC": FieldName,
		"ADDRESS":              FieldAddress,
		"SUB_CATEGORY":         FieldFacilitySubtype,
		"LATITUDE":             FieldLatitude,
		"LONGITUDE":            FieldLongitude,
		"Pincode":              FieldPincode,
		"Formatted Address":    "_formatted_addr",
	},
	PMJAY: {
		"Hospital Name":           FieldName,
		"Hospital Type":           FieldOwnership,
		"API Latitude":            FieldLatitude,
		"API Longitude":           FieldLongitude,
		"Manual Hospital Address": FieldAddress,
		"Hospital E-Mail":         FieldEmail,
		"Hospital Contact":        FieldPhone,
		"Specialities Empanelled": "_specialties_emp",
		"Specialities Upgraded":   "_specialties_upg",
		"Manual District":         FieldDistrict,
		"Manual state":            FieldState,
		"gmaps_Latitude":          "_gmaps_lat",
		"gmaps_Longitude":         "_gmaps_lon",
		"pincode_py":              FieldPincode,
		"Formatted Address":       "_formatted_addr",
	},
	NIN: {
		"Health Facility Name": FieldName,
		"Address":              FieldAddress,
		"pincode":              FieldPincode,
		"landline_number":      FieldPhone,
		"latitude":             FieldLatitude,
		"longitude":            FieldLongitude,
		"Facility Type":        FieldFacilityType,
		"State_Name":           FieldState,
		"District_Name":        FieldDistrict,
		"Taluka_Name":          "_taluka",
		"Block_Name":           "_block",
	},
	CDACBB: {
		"Name":          FieldName,
		"State":         FieldState,
		"District":      FieldDistrict,
		"Address":       FieldAddress,
		"Latitude":      FieldLatitude,
		"Longitude":     FieldLongitude,
		"Phone":         FieldPhone,
		"Email":         FieldEmail,
		"Category":      FieldOwnership,
		"new_latitude":  "_cdac_corrected_lat",
		"new_longitude": "_cdac_corrected_lon",
	},
	CHC: {
		"STATE_NAME":    FieldState,
		"DISTRICT_NAME": FieldDistrict,
		"FACILITY_ID":   FieldSourceKey,
		"FAC_DESC":      FieldName,
		"Latitude":      FieldLatitude,
		"Longitude":     FieldLongitude,
	},
	CGHS: {
		"Hospital_Id":           FieldSourceKey,
		"Hospital_Name":         FieldName,
		"District":              FieldDistrict,
		"State":                 FieldState,
		"Hospital_Contact":      FieldPhone,
		"Specialities_Selected": FieldSpecialties,
		"Hospital_Type":         FieldOwnership,
		"Address":               FieldAddress,
		"Latitude":              FieldLatitude,
		"Longitude":             FieldLongitude,
		"Postcode_py":           FieldPincode,
	},
	NHP: {
		"Hospital Name":                      FieldName,
		"Latitude":                           FieldLatitude,
		"Longitude":                          FieldLongitude,
		"Standardized Address":               FieldAddress,
		"City":                               "_city",
		"State":                              FieldState,
		"Postcode":                           FieldPincode,
		"Type":                               FieldOwnership,
		"No. of beds in attached Hospital":   FieldNumBeds,
		"Contact":                            FieldPhone,
	},
}

// IsKnown reports whether the given id names one of the nine sources.
func IsKnown(id SourceID) bool {
	_, ok := ColumnMaps[id]
	return ok
}

// ValidateMappings checks every column map against the canonical field set.
// Run at startup so a typo in a mapping fails the run before any row is read.
func ValidateMappings() error {
	for src, cols := range ColumnMaps {
		for col, field := range cols {
			if strings.HasPrefix(field, "_") {
				continue
			}
			if !knownFields[field] {
				return fmt.Errorf("source %s: column %q maps to unknown canonical field %q", src, col, field)
			}
		}
	}
	return nil
}
