package models

import "strings"

// FieldMap holds structured record fields keyed by normalized column name.
// Source data arrives with inconsistent column naming (trailing spaces,
// mixed casing), so keys are normalized exactly once at ingestion instead of
// being re-matched ad hoc at every read site.
type FieldMap map[string]string

func normalizeFieldKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NewFieldMap builds a FieldMap from raw column data.
func NewFieldMap(raw map[string]string) FieldMap {
	fields := make(FieldMap, len(raw))
	for key, value := range raw {
		normalized := normalizeFieldKey(key)
		if normalized == "" {
			continue
		}
		if _, exists := fields[normalized]; !exists {
			fields[normalized] = value
		}
	}
	return fields
}

// Get returns the value for a column name, tolerant of casing and
// surrounding whitespace in the requested name.
func (f FieldMap) Get(name string) string {
	if f == nil {
		return ""
	}
	return f[normalizeFieldKey(name)]
}

// Set stores a value under the normalized key.
func (f FieldMap) Set(name, value string) {
	f[normalizeFieldKey(name)] = value
}
