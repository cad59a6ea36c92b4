package normalizer

// No expansion contains a key as a whole token, which keeps Normalize idempotent.
//
//nolint:gochecknoglobals // Read-only lookup table.
var abbreviations = map[string]string{
	"pt":   "patient",
	"hx":   "history",
	"c/o":  "complains of",
	"bp":   "blood pressure",
	"hr":   "heart rate",
	"dx":   "diagnosis",
	"tx":   "treatment",
	"rx":   "prescription",
	"bid":  "twice daily",
	"tid":  "three times daily",
	"qd":   "once daily",
	"sob":  "shortness of breath",
	"n/v":  "nausea and vomiting",
	"cp":   "chest pain",
	"prn":  "as needed",
	"yo":   "years old",
	"mg":   "milligrams",
	"ecg":  "electrocardiogram",
	"sx":   "symptoms",
	"htn":  "hypertension",
	"dm":   "diabetes mellitus",
	"copd": "chronic obstructive pulmonary disease",
	"mi":   "myocardial infarction",
	"cad":  "coronary artery disease",
	"cbc":  "complete blood count",
	"bmp":  "basic metabolic panel",
	"labs": "laboratory tests",
	"w/u":  "workup",
}

// Lookup returns the expansion for an already lowercased, punctuation-stripped token.
func Lookup(token string) (string, bool) {
	expansion, ok := abbreviations[token]
	return expansion, ok
}
