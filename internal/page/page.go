// Package page turns resolved entries into standalone HTML reference pages
// with an embedded client-side result checker.
package page

import (
	"math"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/labref/internal/fields"
	"git.home.luguber.info/inful/labref/internal/ranges"
)

// Checker messages shown in the result area.
const (
	MsgInvalidValue = "Введите корректное числовое значение"
	MsgRecorded     = "Значение зарегистрировано: "
	MsgBelow        = "Ниже нормы."
	MsgNormal       = "В пределах нормы."
	MsgAbove        = "Выше нормы."
)

var verdicts = map[ranges.Band]string{
	ranges.BandBelow:  MsgBelow,
	ranges.BandNormal: MsgNormal,
	ranges.BandAbove:  MsgAbove,
}

// Page is everything a reference page shows for one entry.
type Page struct {
	Slug        string
	Title       string
	Summary     string
	Description string

	BelowRange  string
	NormalRange string
	AboveRange  string
	BelowText   string
	NormalText  string
	AboveText   string
	Preparation string
	Tags        []string

	Bounds    ranges.Bounds
	HasBounds bool
}

// New builds a page for e under the final slug. Bounds come from the normal range text.
func New(e fields.Entry, slug string) Page {
	b, ok := ranges.Parse(e.NormalRange)
	return Page{
		Slug:        slug,
		Title:       e.Title,
		Summary:     e.Summary,
		Description: e.Description,
		BelowRange:  e.BelowRange,
		NormalRange: e.NormalRange,
		AboveRange:  e.AboveRange,
		BelowText:   e.BelowText,
		NormalText:  e.NormalText,
		AboveText:   e.AboveText,
		Preparation: e.Preparation,
		Tags:        e.Tags,
		Bounds:      b,
		HasBounds:   ok,
	}
}

// Interpret mirrors the embedded checker: it returns the headline and the
// interpretation text the page shows for value v.
func (p Page) Interpret(v float64) (headline, text string) {
	if math.IsNaN(v) {
		return MsgInvalidValue, ""
	}
	switch band := ranges.Classify(v, p.Bounds, p.HasBounds); band {
	case ranges.BandNone:
		return MsgRecorded + strconv.FormatFloat(v, 'f', -1, 64), ""
	default:
		return verdicts[band], p.bandText(band)
	}
}

func (p Page) bandText(b ranges.Band) string {
	switch b {
	case ranges.BandBelow:
		return p.BelowText
	case ranges.BandAbove:
		return p.AboveText
	case ranges.BandNormal:
		return p.NormalText
	}
	return ""
}

func (p Page) descriptionLines() []string {
	text := strings.ReplaceAll(p.Description, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
