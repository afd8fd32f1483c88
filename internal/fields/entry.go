package fields

import "strings"

// Entry is the canonical, immutable form of one reference record.
type Entry struct {
	Row           int
	SlugCandidate string
	Title         string
	Summary       string
	Description   string
	BelowRange    string
	NormalRange   string
	AboveRange    string
	BelowText     string
	NormalText    string
	AboveText     string
	Preparation   string
	Tags          []string
}

// Derive builds an Entry from a record. The slug candidate falls back to the
// title and the title to the slug candidate; description falls back to summary.
func Derive(r Record, a Aliases) Entry {
	get := func(f Field) string { return Resolve(r, a.For(f), "") }

	slug := get(FieldSlug)
	title := get(FieldTitle)
	if slug == "" {
		slug = title
	}
	if title == "" {
		title = slug
	}
	summary := get(FieldSummary)
	description := get(FieldDescription)
	if description == "" {
		description = summary
	}

	return Entry{
		Row:           r.Row,
		SlugCandidate: slug,
		Title:         title,
		Summary:       summary,
		Description:   description,
		BelowRange:    get(FieldBelowRange),
		NormalRange:   get(FieldNormalRange),
		AboveRange:    get(FieldAboveRange),
		BelowText:     get(FieldBelowText),
		NormalText:    get(FieldNormalText),
		AboveText:     get(FieldAboveText),
		Preparation:   get(FieldPreparation),
		Tags:          SplitTags(get(FieldTags)),
	}
}

// Usable reports whether the entry has any slug or title source.
func (e Entry) Usable() bool { return e.SlugCandidate != "" }

// SplitTags splits a tag list on commas, semicolons or pipes, dropping blanks
// and keeping input order.
func SplitTags(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
