// Package normalize canonicalizes infection measure labels. Source tables
// name the same measure differently across reporting periods.
package normalize

var infectionNames = map[string]string{
	"MRSA Observed Cases":                             "MRSA bacteremia",
	"MRSA Bacteremia: Observed Cases":                 "MRSA bacteremia",
	"C.diff Observed Cases":                           "Clostridium Difficile",
	"Clostridium Difficile (C.Diff): Observed Cases":  "Clostridium Difficile",
	"CLABSI: Observed Cases":                          "CLABSI",
	"Central Line Associated Bloodstream Infection (ICU + select Wards): Observed Cases": "CLABSI",
	"CAUTI: Observed Cases": "CAUTI",
	"Catheter Associated Urinary Tract Infections (ICU + select Wards): Observed Cases": "CAUTI",
	"SSI: Colon Observed Cases":                    "SSI: Colon",
	"SSI - Colon Surgery: Observed Cases":          "SSI: Colon",
	"SSI: Abdominal Observed Cases":                "SSI: Abdominal",
	"SSI - Abdominal Hysterectomy: Observed Cases": "SSI: Abdominal",
}

// InfectionName returns the canonical category for a raw measure name, or the
// name itself when it is not a known variant.
func InfectionName(raw string) string {
	if canonical, ok := infectionNames[raw]; ok {
		return canonical
	}
	return raw
}

// Categories lists the canonical categories in a stable order.
func Categories() []string {
	return []string{"MRSA bacteremia", "Clostridium Difficile", "CLABSI", "CAUTI", "SSI: Colon", "SSI: Abdominal"}
}
