// Package slug derives URL-safe identifiers and keeps them unique per build.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a candidate has no allowed characters left.
const Fallback = "item"

// cyrillic maps lowercase Russian letters to Latin; the site is single-locale.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Slugify lowercases s, transliterates Russian letters, folds accents,
// turns whitespace runs into single hyphens and drops every other character
// outside [a-z0-9-]. Leading and trailing hyphens are trimmed; an empty result
// becomes Fallback.
func Slugify(s string) string {
	var lat strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if t, ok := cyrillic[r]; ok {
			lat.WriteString(t)
			continue
		}
		lat.WriteRune(r)
	}

	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(fold, lat.String())
	if err != nil {
		folded = lat.String()
	}

	var out strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && out.Len() > 0 {
				out.WriteByte('-')
			}
			pendingHyphen = false
			out.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	if out.Len() == 0 {
		return Fallback
	}
	return out.String()
}

// Valid reports whether s is a non-empty string of [a-z0-9-].
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}

// Registry records slugs allocated during one build. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	taken    map[string]struct{}
	reserved map[string]struct{}
}

// NewRegistry returns an empty registry. Reserved names are never handed out,
// so a record slugged "index" cannot overwrite the site index.
func NewRegistry(reserved ...string) *Registry {
	r := &Registry{taken: make(map[string]struct{}), reserved: make(map[string]struct{}, len(reserved))}
	for _, s := range reserved {
		r.reserved[s] = struct{}{}
	}
	return r
}

// Allocate slugifies candidate and, if the result is taken, appends -2, -3, ...
// until it is free. The returned slug is registered before returning.
// collided reports whether a suffix was needed.
func (r *Registry) Allocate(candidate string) (slug string, collided bool) {
	base := Slugify(candidate)
	slug = base
	for n := 2; r.Has(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
		collided = true
	}
	r.taken[slug] = struct{}{}
	return slug, collided
}

// Has reports whether s is already allocated or reserved.
func (r *Registry) Has(s string) bool {
	if _, ok := r.reserved[s]; ok {
		return true
	}
	_, ok := r.taken[s]
	return ok
}

// Len returns the number of allocated slugs.
func (r *Registry) Len() int { return len(r.taken) }
