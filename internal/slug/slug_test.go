package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var slugShape = regexp.MustCompile(`^[a-z0-9-]+$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Glucose", "glucose"},
		{"  Total   Cholesterol ", "total-cholesterol"},
		{"Vitamin B12 (cobalamin)", "vitamin-b12-cobalamin"},
		{"--ALT--", "alt"},
		{"a - b", "a-b"},
		{"Café crème", "cafe-creme"},
		{"Глюкоза", "glyukoza"},
		{"Общий белок", "obshchiy-belok"},
		{"snake_case", "snakecase"},
		{"<script>", "script"},
		{"!!!", Fallback},
		{"", Fallback},
		{"   ", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, slugShape, got)
		})
	}
}

func TestRegistryAllocate(t *testing.T) {
	reg := NewRegistry()

	s1, c1 := reg.Allocate("Glucose")
	s2, c2 := reg.Allocate("glucose")
	s3, c3 := reg.Allocate("GLUCOSE ")

	assert.Equal(t, "glucose", s1)
	assert.False(t, c1)
	assert.Equal(t, "glucose-2", s2)
	assert.True(t, c2)
	assert.Equal(t, "glucose-3", s3)
	assert.True(t, c3)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistrySuffixSkipsExplicitSlug(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Allocate("glucose-2")
	_, _ = reg.Allocate("glucose")

	got, collided := reg.Allocate("glucose")
	assert.Equal(t, "glucose-3", got)
	assert.True(t, collided)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	sa, _ := a.Allocate("alt")
	sb, _ := b.Allocate("alt")
	assert.Equal(t, sa, sb)
	assert.True(t, a.Has("alt"))
	assert.False(t, a.Has("alt-2"))
}

func TestFallbackCollisions(t *testing.T) {
	reg := NewRegistry()
	first, _ := reg.Allocate("???")
	second, _ := reg.Allocate("")
	assert.Equal(t, Fallback, first)
	assert.Equal(t, Fallback+"-2", second)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("glucose-2"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("Glucose"))
	assert.False(t, Valid("a_b"))
}

func TestReservedNames(t *testing.T) {
	reg := NewRegistry("index")

	s, collided := reg.Allocate("Index")
	assert.Equal(t, "index-2", s)
	assert.True(t, collided)
	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.Has("index"))
}
