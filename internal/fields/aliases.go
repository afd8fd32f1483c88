package fields

import (
	"fmt"
	"strings"
)

// Field identifies one canonical entry attribute.
type Field string

const (
	FieldSlug        Field = "slug"
	FieldTitle       Field = "title"
	FieldSummary     Field = "summary"
	FieldDescription Field = "description"
	FieldBelowRange  Field = "below_range"
	FieldNormalRange Field = "normal_range"
	FieldAboveRange  Field = "above_range"
	FieldBelowText   Field = "below_text"
	FieldNormalText  Field = "normal_text"
	FieldAboveText   Field = "above_text"
	FieldPreparation Field = "preparation"
	FieldTags        Field = "tags"
)

// CanonicalFields lists every canonical field in display order.
var CanonicalFields = []Field{
	FieldSlug, FieldTitle, FieldSummary, FieldDescription,
	FieldBelowRange, FieldNormalRange, FieldAboveRange,
	FieldBelowText, FieldNormalText, FieldAboveText,
	FieldPreparation, FieldTags,
}

// Aliases maps each canonical field to the ordered column names accepted for it.
type Aliases map[Field][]string

// defaultAliases holds the accepted column names. Numeric names match legacy
// exports whose header row is made of column numbers.
var defaultAliases = Aliases{
	FieldSlug:        {"slug", "id", "name"},
	FieldTitle:       {"title", "name", "0"},
	FieldSummary:     {"summary", "brief", "description"},
	FieldDescription: {"description", "desc", "details"},
	FieldBelowRange:  {"norm_low", "normal_low", "below_range", "below", "4"},
	FieldNormalRange: {"norm_mid", "normal_range", "normal", "5"},
	FieldAboveRange:  {"norm_high", "normal_high", "above_range", "above", "6"},
	FieldBelowText:   {"below_text", "below", "desc_below", "7"},
	FieldNormalText:  {"normal_text", "normal", "desc_normal", "8"},
	FieldAboveText:   {"above_text", "above", "desc_above", "9"},
	FieldPreparation: {"preparation", "prep", "10"},
	FieldTags:        {"tags", "keywords", "11"},
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() Aliases {
	out := make(Aliases, len(defaultAliases))
	for f, names := range defaultAliases {
		out[f] = append([]string(nil), names...)
	}
	return out
}

// For returns the aliases for f.
func (a Aliases) For(f Field) []string { return a[f] }

// Extend returns a copy of a where the configured names for each field are tried
// before the existing ones. Keys must be canonical field names.
func (a Aliases) Extend(extra map[string][]string) (Aliases, error) {
	out := make(Aliases, len(a))
	for f, names := range a {
		out[f] = append([]string(nil), names...)
	}
	for key, names := range extra {
		f, ok := ParseField(key)
		if !ok {
			return nil, fmt.Errorf("unknown field %q in aliases", key)
		}
		merged := make([]string, 0, len(names)+len(out[f]))
		seen := make(map[string]struct{}, len(names)+len(out[f]))
		for _, n := range append(append([]string(nil), names...), out[f]...) {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			merged = append(merged, n)
		}
		out[f] = merged
	}
	return out, nil
}

// ParseField maps a field name (case-insensitive) to its canonical Field.
func ParseField(name string) (Field, bool) {
	n := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range CanonicalFields {
		if f == n {
			return f, true
		}
	}
	return "", false
}

// MissingFields reports canonical fields for which no alias names a header column.
func MissingFields(header []string, a Aliases) []Field {
	cols := make(map[string]struct{}, len(header))
	for _, h := range header {
		cols[h] = struct{}{}
	}
	var missing []Field
	for _, f := range CanonicalFields {
		found := false
		for _, name := range a[f] {
			if _, ok := cols[name]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f)
		}
	}
	return missing
}
