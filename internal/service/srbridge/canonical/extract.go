package canonical

import "strings"

// Fallback procedure code used whenever the source document carries no
// explicit coded sequence.
var DefaultProcedureCode = Coding{
	Code:    "24606-6",
	System:  "http://loinc.org",
	Display: "Mammogram Diagnostic Report",
}

// FormatDate normalizes an 8-digit DICOM date (YYYYMMDD) to YYYY-MM-DD.
// Already-hyphenated values pass through unchanged; anything malformed or
// absent yields "" rather than an error.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "-") {
		return s
	}
	if len(s) != 8 || !isDigits(s) {
		return ""
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:8]
}

// CompactDate strips the hyphens back out for HL7 fields (PID-7, OBR-7).
func CompactDate(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

// GenderFromDICOM maps a DICOM PatientSex code to the canonical gender.
// Everything outside M/F collapses to "other". Not the inverse of SexCode,
// which emits "" for unrecognized values.
func GenderFromDICOM(sex string) Gender {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "m":
		return Male
	case "f":
		return Female
	default:
		return Other
	}
}

// SexCode maps the canonical gender to the HL7 PID-8 administrative sex
// code. Unknown and unrecognized values render empty.
func SexCode(g Gender) string {
	switch g {
	case Female:
		return "F"
	case Male:
		return "M"
	case Other:
		return "O"
	default:
		return ""
	}
}

// ParseName splits a caret-delimited DICOM person name into family (first
// component) and given names (the rest). An absent name yields an empty
// family and no given names.
func ParseName(raw string) HumanName {
	if raw == "" {
		return HumanName{}
	}
	parts := strings.Split(raw, "^")
	return HumanName{Family: parts[0], Given: parts[1:]}
}

// ProviderName renders a caret-delimited physician name as a single
// space-joined display string. Empty input yields the literal "Unknown".
func ProviderName(raw string) string {
	joined := strings.TrimSpace(strings.Join(strings.Split(raw, "^"), " "))
	if joined == "" {
		return "Unknown"
	}
	return joined
}

// CollapseWhitespace folds runs of whitespace (including newlines) into
// single spaces and trims the ends, as required for OBX values.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripMarkupWrappers removes <html> and <body> container tags while
// keeping the inner content, for findings declared as markup.
func StripMarkupWrappers(s string) string {
	for _, t := range []string{"<html>", "</html>", "<body>", "</body>"} {
		s = strings.ReplaceAll(s, t, "")
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
