package enums

import "fmt"

// CorrectionMatchType maps to the correction_match_type enum in Postgres.
type CorrectionMatchType string

const (
	CorrectionMatchTypeExact  CorrectionMatchType = "exact"
	CorrectionMatchTypeFuzzy  CorrectionMatchType = "fuzzy"
	CorrectionMatchTypePrefix CorrectionMatchType = "prefix"
)

var validCorrectionMatchTypes = []CorrectionMatchType{
	CorrectionMatchTypeExact,
	CorrectionMatchTypeFuzzy,
	CorrectionMatchTypePrefix,
}

// IsValid reports whether the value matches the canonical match type enum.
func (t CorrectionMatchType) IsValid() bool {
	for _, candidate := range validCorrectionMatchTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCorrectionMatchType converts raw input into CorrectionMatchType.
func ParseCorrectionMatchType(value string) (CorrectionMatchType, error) {
	for _, candidate := range validCorrectionMatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid correction match type %q", value)
}
