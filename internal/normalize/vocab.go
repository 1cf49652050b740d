package normalize

import "strings"

// stateNames maps the spelling variants seen across the nine registries onto
// canonical state/UT names. Keys are uppercased input.
var stateNames = map[string]string{
	"ANDAMAN & NICOBAR":         "Andaman And Nicobar Islands",
	"ANDAMAN & NICOBAR ISLANDS": "Andaman And Nicobar Islands",
	"ANDAMAN AND NICOBAR":       "Andaman And Nicobar Islands",
	"ANDAMAN AND NICOBAR ISLANDS": "Andaman And Nicobar Islands",
	"A & N ISLANDS":        "Andaman And Nicobar Islands",
	"ANDHRA PRADESH":       "Andhra Pradesh",
	"ARUNACHAL PRADESH":    "Arunachal Pradesh",
	"ASSAM":                "Assam",
	"BIHAR":                "Bihar",
	"CHANDIGARH":           "Chandigarh",
	"CHATTISGARH":          "Chhattisgarh",
	"CHHATTISGARH":         "Chhattisgarh",
	"DADRA & NAGAR HAVE":   "Dadra And Nagar Haveli And Daman And Diu",
	"DADRA & NAGAR HAVELI": "Dadra And Nagar Haveli And Daman And Diu",
	"DADRA AND NAGAR HAVELI": "Dadra And Nagar Haveli And Daman And Diu",
	"DAMAN & DIU":            "Dadra And Nagar Haveli And Daman And Diu",
	"DAMAN AND DIU":          "Dadra And Nagar Haveli And Daman And Diu",
	"THE DADRA AND NAGAR HAVELI AND DAMAN AND DIU": "Dadra And Nagar Haveli And Daman And Diu",
	"DADRA & NAGAR HAVELI AND DAMAN & DIU":         "Dadra And Nagar Haveli And Daman And Diu",
	"DADRA AND NAGAR HAVELI AND DAMAN AND DIU":     "Dadra And Nagar Haveli And Daman And Diu",
	"DNH AND DD":       "Dadra And Nagar Haveli And Daman And Diu",
	"D & N HAVELI":     "Dadra And Nagar Haveli And Daman And Diu",
	"DELHI":            "Delhi",
	"NCT OF DELHI":     "Delhi",
	"NEW DELHI":        "Delhi",
	"GOA":              "Goa",
	"GUJARAT":          "Gujarat",
	"HARYANA":          "Haryana",
	"HIMACHAL PRADESH": "Himachal Pradesh",
	"JAMMU & KASHMIR":  "Jammu And Kashmir",
	"JAMMU AND KASHMIR": "Jammu And Kashmir",
	"JHARKHAND":        "Jharkhand",
	"KARNATAKA":        "Karnataka",
	"KERALA":           "Kerala",
	"LADAKH":           "Ladakh",
	"LAKSHADWEEP":      "Lakshadweep",
	"MADHYA PRADESH":   "Madhya Pradesh",
	"MAHARASHTRA":      "Maharashtra",
	"MANIPUR":          "Manipur",
	"MEGHALAYA":        "Meghalaya",
	"MIZORAM":          "Mizoram",
	"NAGALAND":         "Nagaland",
	"ODISHA":           "Odisha",
	"ORISSA":           "Odisha",
	"PONDICHERRY":      "Puducherry",
	"PUDUCHERRY":       "Puducherry",
	"PUNJAB":           "Punjab",
	"RAJASTHAN":        "Rajasthan",
	"SIKKIM":           "Sikkim",
	"TAMILNADU":        "Tamil Nadu",
	"TAMIL NADU":       "Tamil Nadu",
	"TELANGANA":        "Telangana",
	"TELENGANA":        "Telangana",
	"TRIPURA":          "Tripura",
	"UTTAR PRADESH":    "Uttar Pradesh",
	"UTTTAR PRADESH":   "Uttar Pradesh",
	"UTTARAKHAND":      "Uttarakhand",
	"WEST BENGAL":      "West Bengal",
}

// facilityTypes maps source-reported facility type vocabularies onto the
// unified vocabulary. Entries not in the table pass through trimmed.
var facilityTypes = map[string]string{
	"Sub Centre":                 "Sub Centre",
	"Hospital":                   "Hospital",
	"Pharmacy":                   "Pharmacy",
	"Primary Health Centre":      "Primary Health Centre",
	"Clinic/ Dispensary":         "Clinic/Dispensary",
	"Health and Wellness Centre": "Health And Wellness Centre",
	"Community Health Centre":    "Community Health Centre",
	"Medical College":            "Medical College",
	"Diagnostic Laboratory":      "Diagnostic Laboratory",
	"Imaging Center":             "Imaging Center",
	"Dental Clinic":              "Dental Clinic",
	"Dental Hospital":            "Dental Hospital",
	// AYUSH
	"Ayurveda Hospital/ Nursing Home":                                "AYUSH Hospital",
	"Ayurveda Dispensary/ Clinic/ Polyclinic (OPD only)":             "AYUSH Dispensary",
	"Homeopathy Dispensary/ Clinic/ Polyclinic (OPD only)":           "AYUSH Dispensary",
	"Homeopathy Hospital/ Nursing Home":                              "AYUSH Hospital",
	"Unani Dispensary/ Clinic/ Polyclinic (OPD only)":                "AYUSH Dispensary",
	"Unani Hospital/ Nursing Home":                                   "AYUSH Hospital",
	"Yoga and Naturopathy Dispensary/ Clinic/ Polyclinic (OPD only)": "AYUSH Dispensary",
	"Yoga and Naturopathy Hospital/ Nursing Home":                    "AYUSH Hospital",
	"Siddha Hospital/Nursing Home":                                   "AYUSH Hospital",
	"Siddha Dispensary/Clinic/Polyclinic (OPD only)":                 "AYUSH Dispensary",
	"Sowa-Rigpa Hospital/ Nursing Home":                              "AYUSH Hospital",
	"Sowa-Rigpa Dispensary/ Clinic/ Polyclinic (OPD only)":           "AYUSH Dispensary",
	// CHC/PHC facility descriptions
	"Community health centre":   "Community Health Centre",
	"Primary health sub centre": "Sub Centre",
	"Primary health centre":     "Primary Health Centre",
	// PMGSY sub-categories
	"Bedded Hospital": "Hospital",
	// NIN
	"Community Health Center":        "Community Health Centre",
	"Sub-District Hospital":          "Sub-District Hospital",
	"Dispensaries":                   "Dispensary",
	"District Hospital":              "District Hospital",
	"<100 Bedded Hospital":           "Hospital",
	"Medical Colleges Hospital":      "Medical College",
	"Civil Hospital/General Hospital": "Hospital",
	"Maternity Home":                 "Maternity Home",
	"Post Partum Unit":               "Other",
	"Referral Hospital":              "Referral Hospital",
	"100-500 Bedded Hospital":        "Hospital",
	">500 Bedded Hospital":           "Hospital",
	"Others":                         "Other",
}

var ownerships = map[string]string{
	"Government":                 "Government",
	"Private":                    "Private",
	"Public-Private-Partnership": "PPP",
	"Govt.":                      "Government",
	"Trust":                      "Trust",
	"Society":                    "Trust",
	"Govt-Society":               "Government",
	"Charitable/Vol":             "Charitable",
	"Red Cross":                  "Charitable",
	"Private (For Profit)":       "Private",
	"Private(For Profit)":        "Private",
	"Public":                     "Government",
	"Govt":                       "Government",
}

// StandardizeState returns the canonical state/UT name. Unknown values are
// title-cased rather than dropped, so rare spellings still group together
// in the output.
func StandardizeState(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := stateNames[strings.ToUpper(trimmed)]; ok {
		return canonical
	}
	return TitleCase(trimmed)
}

// StandardizeFacilityType maps a source-reported type onto the unified
// vocabulary, passing unrecognized values through.
func StandardizeFacilityType(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := facilityTypes[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// StandardizeOwnership maps a source-reported ownership onto the unified
// vocabulary, passing unrecognized values through.
func StandardizeOwnership(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := ownerships[trimmed]; ok {
		return canonical
	}
	return trimmed
}
