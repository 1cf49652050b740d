package source

// applyFixes performs the source-specific preprocessing each registry
// needs before normalization. It operates on the raw mapped values so the
// normal coercion path sees the corrected data.
func applyFixes(src SourceID, values map[string]string, extension map[string]string) {
	switch src {
	case NHA:
		// NHA ships a pre-standardized state/district pair; fall back to it
		// when the primary columns are blank.
		if values[FieldState] == "" {
			values[FieldState] = extension["_nha_std_state"]
		}
		if values[FieldDistrict] == "" {
			values[FieldDistrict] = extension["_nha_std_district"]
		}

	case CDACBB:
		// Manually corrected coordinates supersede the published ones.
		if v := extension["_cdac_corrected_lat"]; v != "" {
			values[FieldLatitude] = v
		}
		if v := extension["_cdac_corrected_lon"]; v != "" {
			values[FieldLongitude] = v
		}
		values[FieldFacilityType] = "Blood Bank"

	case PMJAY:
		// API coordinates are sparse; the gmaps geocode is the fallback.
		if values[FieldLatitude] == "" {
			values[FieldLatitude] = extension["_gmaps_lat"]
		}
		if values[FieldLongitude] == "" {
			values[FieldLongitude] = extension["_gmaps_lon"]
		}
		// Empanelled and upgraded specialty lists merge into one.
		spec := extension["_specialties_emp"]
		if upg := extension["_specialties_upg"]; upg != "" {
			if spec != "" {
				spec = spec + "|" + upg
			} else {
				spec = upg
			}
		}
		if spec != "" {
			values[FieldSpecialties] = spec
		}

	case NHP:
		values[FieldFacilityType] = "Medical College"

	case CHC:
		values[FieldFacilityType] = "Community Health Centre"

	case PHC:
		values[FieldFacilityType] = "Primary Health Centre"
	}
}
