// Package vehicle holds the reference catalogs used to validate and prompt
// vehicle details.
package vehicle

import (
	"sort"
	"strings"
)

var manufacturers = map[string][]string{
	"MARUTI":              {"SWIFT", "DZIRE", "BALENO", "BREZZA", "ERTIGA", "S-CROSS"},
	"TOYOTA":              {"ALPHARD", "CAMRY", "COROLLA", "COROLLA ALTIS", "ETIOS", "ETIOS CROSS", "ETIOS LIVA", "FORTUNER", "GLANZA", "INNOVA"},
	"TATA":                {"TIAGO", "TIGOR", "NEXON", "HARRIER", "SAFARI", "PUNCH"},
	"HYUNDAI":             {"I10", "I20", "VENUE", "CRETA", "VERNA", "ELANTRA"},
	"KIA MOTORS":          nil,
	"MAHINDRA & MAHINDRA": nil,
	"MAHINDRA RENAULT":    nil,
	"MAHINDRA REVA":       nil,
	"MAHINDRA SSANGYONG":  nil,
	"HONDA":               nil,
	"FOTON":               nil,
	"JAYEM AUTOMOTIVE":    nil,
	"NISSAN MOTORS":       nil,
	"ASTON MARTIN":        nil,
}

var descriptors = []string{"Petrol", "Diesel", "CNG", "Electric", "Hybrid"}

// Makers lists the known manufacturers, sorted for stable prompts.
func Makers() []string {
	out := make([]string, 0, len(manufacturers))
	for m := range manufacturers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ValidMaker normalizes and checks a manufacturer name.
func ValidMaker(raw string) (string, bool) {
	m := strings.ToUpper(strings.TrimSpace(raw))
	_, ok := manufacturers[m]
	return m, ok
}

// Models lists the curated models for a maker; empty when the maker has no
// curated list.
func Models(maker string) []string {
	return manufacturers[strings.ToUpper(strings.TrimSpace(maker))]
}

// ValidModel normalizes and checks a model for the maker. Makers without a
// curated list accept any non-empty model.
func ValidModel(maker, raw string) (string, bool) {
	m := strings.ToUpper(strings.TrimSpace(raw))
	if m == "" {
		return "", false
	}
	curated := Models(maker)
	if len(curated) == 0 {
		return m, true
	}
	for _, c := range curated {
		if c == m {
			return m, true
		}
	}
	return "", false
}

// Descriptors lists the fuel/propulsion descriptors.
func Descriptors() []string {
	out := make([]string, len(descriptors))
	copy(out, descriptors)
	return out
}

// ValidDescriptor checks a descriptor, case-insensitively, returning the
// canonical form.
func ValidDescriptor(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	for _, d := range descriptors {
		if strings.EqualFold(d, v) {
			return d, true
		}
	}
	return "", false
}
