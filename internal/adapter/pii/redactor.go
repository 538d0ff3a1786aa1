package pii

import "strings"

const RedactedPlaceholder = "[REDACTED]"

// Redactor scrubs sensitive values out of log field maps before they are
// stored or shipped.
type Redactor struct {
	fieldsToRedact map[string]struct{} // Use a map for O(1) lookups
}

// NewRedactor creates a new Redactor for the given field names. Blank names
// are ignored.
func NewRedactor(fields []string) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{fieldsToRedact: fieldSet}
}

// Scrub replaces the value of every configured field with a placeholder,
// descending into nested maps. Dotted keys match on their last segment, so
// a flattened "user.password" is caught by a configured "password". The map
// is modified in place and returned.
func (r *Redactor) Scrub(fields map[string]any) map[string]any {
	if len(r.fieldsToRedact) == 0 || len(fields) == 0 {
		return fields
	}
	for key, val := range fields {
		if r.sensitive(key) {
			fields[key] = RedactedPlaceholder
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			fields[key] = r.Scrub(nested)
		}
	}
	return fields
}

func (r *Redactor) sensitive(key string) bool {
	if _, ok := r.fieldsToRedact[key]; ok {
		return true
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		_, ok := r.fieldsToRedact[key[i+1:]]
		return ok
	}
	return false
}
