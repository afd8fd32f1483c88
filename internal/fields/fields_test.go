package fields

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	rec := NewRecord(1, []string{"id", "slug", "title", "note"}, []string{"from-id", "   ", "Glucose", "\t"})

	tests := []struct {
		name    string
		aliases []string
		def     string
		want    string
	}{
		{"first alias wins", []string{"title", "id"}, "", "Glucose"},
		{"whitespace-only is absent", []string{"slug", "id"}, "", "from-id"},
		{"missing column skipped", []string{"nope", "title"}, "", "Glucose"},
		{"default when nothing usable", []string{"note", "nope"}, "fallback", "fallback"},
		{"value is trimmed", []string{"id"}, "", "from-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(rec, tt.aliases, tt.def))
		})
	}
}

func TestRecordPositionalAccess(t *testing.T) {
	rec := NewRecord(3, []string{"0", "1"}, []string{"x", "y", "extra"})
	require.True(t, rec.Positional())

	v, ok := rec.Value("2")
	require.True(t, ok)
	assert.Equal(t, "extra", v)

	v, ok = rec.Value("0")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = rec.Value("9")
	assert.False(t, ok)

	short := NewRecord(4, []string{"a", "b", "c"}, []string{"x"})
	v, ok = short.Value("c")
	assert.True(t, ok, "header column present even when the row is short")
	assert.Empty(t, v)
}

func TestDeriveCurrentSchema(t *testing.T) {
	header := []string{"slug", "title", "summary", "description", "below_range", "normal_range", "above_range", "below_text", "normal_text", "above_text", "preparation", "tags"}
	values := []string{"glucose", "Глюкоза", "Сахар крови", "", "< 3.9", "3.9–6.1", "> 6.1", "Гипогликемия", "Норма", "Гипергликемия", "Натощак", "кровь, сахар;  ; диабет"}

	got := Derive(NewRecord(1, header, values), DefaultAliases())
	want := Entry{
		Row:           1,
		SlugCandidate: "glucose",
		Title:         "Глюкоза",
		Summary:       "Сахар крови",
		Description:   "Сахар крови",
		BelowRange:    "< 3.9",
		NormalRange:   "3.9–6.1",
		AboveRange:    "> 6.1",
		BelowText:     "Гипогликемия",
		NormalText:    "Норма",
		AboveText:     "Гипергликемия",
		Preparation:   "Натощак",
		Tags:          []string{"кровь", "сахар", "диабет"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Derive mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveLegacySchema(t *testing.T) {
	header := []string{"slug", "title", "summary", "description", "norm_low", "norm_mid", "norm_high", "below", "normal", "above", "prep", "tags"}
	values := []string{"", "Ferritin", "Iron store", "Long text", "<15", "15-150", ">150", "Low", "OK", "High", "Morning", "blood"}

	got := Derive(NewRecord(2, header, values), DefaultAliases())
	assert.Equal(t, "Ferritin", got.SlugCandidate, "slug falls back to title")
	assert.Equal(t, "Long text", got.Description)
	assert.Equal(t, "<15", got.BelowRange)
	assert.Equal(t, "15-150", got.NormalRange)
	assert.Equal(t, ">150", got.AboveRange)
	assert.Equal(t, "Low", got.BelowText)
	assert.Equal(t, "OK", got.NormalText)
	assert.Equal(t, "High", got.AboveText)
	assert.Equal(t, "Morning", got.Preparation)
}

func TestRecordNamedHeaderIgnoresPosition(t *testing.T) {
	rec := NewRecord(1, []string{"a", "b"}, []string{"x", "y", "extra"})
	require.False(t, rec.Positional())

	v, ok := rec.Value("a")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	for _, key := range []string{"0", "1", "2"} {
		_, ok := rec.Value(key)
		assert.False(t, ok, "key %q must not address a column by index", key)
	}
}

func TestNumericHeader(t *testing.T) {
	assert.True(t, NumericHeader([]string{"0", "1", "2"}))
	assert.False(t, NumericHeader(nil))
	assert.False(t, NumericHeader([]string{"0", "title"}))
	assert.False(t, NumericHeader([]string{"-1"}))
}

func TestDeriveMissingColumnsStayEmpty(t *testing.T) {
	header := []string{"slug", "title", "summary", "normal_range", "below_text", "normal_text", "above_text", "tags"}
	values := []string{"glucose", "Glucose", "Blood sugar", "3.3-5.5", "Low sugar", "Normal", "High sugar", "blood"}

	got := Derive(NewRecord(1, header, values), DefaultAliases())
	assert.Equal(t, "3.3-5.5", got.NormalRange)
	assert.Empty(t, got.BelowRange, "no below-range column")
	assert.Empty(t, got.AboveRange, "no above-range column")
	assert.Empty(t, got.Preparation, "no preparation column")
	assert.Equal(t, "Low sugar", got.BelowText)
	assert.Equal(t, "High sugar", got.AboveText)
	assert.Equal(t, []string{"blood"}, got.Tags)
}

func TestDeriveNumericHeader(t *testing.T) {
	header := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}
	values := []string{"Hemoglobin", "", "", "", "<120", "120-160", ">160", "anemia", "normal", "high", "none", "blood|cbc"}

	got := Derive(NewRecord(1, header, values), DefaultAliases())
	assert.Equal(t, "Hemoglobin", got.Title)
	assert.Equal(t, "Hemoglobin", got.SlugCandidate)
	assert.Equal(t, "120-160", got.NormalRange)
	assert.Equal(t, []string{"blood", "cbc"}, got.Tags)
}

func TestDeriveUnusableRow(t *testing.T) {
	got := Derive(NewRecord(1, []string{"summary"}, []string{"only a summary"}), DefaultAliases())
	assert.False(t, got.Usable())
	assert.Empty(t, got.Title)
}

func TestAliasesExtend(t *testing.T) {
	base := DefaultAliases()
	ext, err := base.Extend(map[string][]string{"Title": {"name_ru", " ", "title"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"name_ru", "title", "name", "0"}, ext.For(FieldTitle))
	assert.Equal(t, []string{"title", "name", "0"}, base.For(FieldTitle), "base table untouched")

	_, err = base.Extend(map[string][]string{"colour": {"x"}})
	require.Error(t, err)
}

func TestMissingFields(t *testing.T) {
	missing := MissingFields([]string{"slug", "title", "normal_range"}, DefaultAliases())
	assert.Contains(t, missing, FieldSummary)
	assert.NotContains(t, missing, FieldTitle)
	assert.NotContains(t, missing, FieldNormalRange)

	missing = MissingFields([]string{"slug", "title", "normal_range", "below_text", "tags"}, DefaultAliases())
	assert.Contains(t, missing, FieldBelowRange)
	assert.Contains(t, missing, FieldPreparation)
}

func TestReader(t *testing.T) {
	src := "\xef\xbb\xbf slug |title|tags\nglucose|Glucose|a,b\n\nalt|Alt \"quoted\"|c\n"
	r, err := NewReader(strings.NewReader(src), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"slug", "title", "tags"}, r.Header())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "Glucose", Resolve(first, []string{"title"}, ""))

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Row)
	assert.Equal(t, `Alt "quoted"`, Resolve(second, []string{"title"}, ""))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderEmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), '|')
	require.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitTags(" a ,b;; c |"))
	assert.Empty(t, SplitTags("  "))
}
