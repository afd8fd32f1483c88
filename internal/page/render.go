package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/labref/internal/ranges"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Options tune how pages are rendered.
type Options struct {
	// MarkdownDescription renders the description as Markdown. Raw HTML in the
	// source is omitted, never passed through.
	MarkdownDescription bool
}

// Renderer renders reference pages and the site index. It is safe for
// concurrent use once constructed.
type Renderer struct {
	tpl  *template.Template
	opts Options
	md   goldmark.Markdown
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts Options) (*Renderer, error) {
	tpl, err := template.New("labref").ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Renderer{tpl: tpl, opts: opts, md: goldmark.New()}, nil
}

type pageView struct {
	Page
	AssetPrefix      string
	IndexHref        string
	DescriptionLines []string
	DescriptionHTML  template.HTML
	TagLine          string

	Low, High  *float64
	Texts      map[ranges.Band]string
	Verdicts   map[ranges.Band]string
	Invalid    string
	Recorded   string
	Classifier template.JS
	ClassifyFn template.JS
}

// Render writes the HTML page for p. Relative links to the stylesheet, script
// and index are prefixed with assetPrefix ("" for top-level pages, "../" for
// pages one directory deep).
func (r *Renderer) Render(w io.Writer, p Page, assetPrefix string) error {
	v := pageView{
		Page:             p,
		AssetPrefix:      assetPrefix,
		IndexHref:        assetPrefix + "index.html",
		DescriptionLines: p.descriptionLines(),
		TagLine:          strings.Join(p.Tags, ", "),
		Texts: map[ranges.Band]string{
			ranges.BandBelow:  p.BelowText,
			ranges.BandNormal: p.NormalText,
			ranges.BandAbove:  p.AboveText,
		},
		Verdicts:   verdicts,
		Invalid:    MsgInvalidValue,
		Recorded:   MsgRecorded,
		Classifier: template.JS(ranges.ClientScript()),
		ClassifyFn: template.JS(ranges.ClientFuncName),
	}
	if p.HasBounds {
		low, high := p.Bounds.Low, p.Bounds.High
		v.Low, v.High = &low, &high
	}
	if r.opts.MarkdownDescription && len(v.DescriptionLines) > 0 {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(p.Description), &buf); err != nil {
			return fmt.Errorf("render description markdown for %s: %w", p.Slug, err)
		}
		v.DescriptionHTML = template.HTML(buf.String()) // #nosec G203 -- goldmark omits raw HTML by default
	}
	return r.execute(w, "page.html.tmpl", v)
}

// Card is one entry in the pre-rendered index listing.
type Card struct {
	Title   string
	Summary string
	URL     string
	Tags    []string
}

// RenderShellIndex writes the search shell index that loads the manifest client side.
func (r *Renderer) RenderShellIndex(w io.Writer, manifestName string) error {
	return r.execute(w, "index_shell.html.tmpl", struct{ ManifestName string }{manifestName})
}

// RenderCardIndex writes an index with every card rendered in place.
func (r *Renderer) RenderCardIndex(w io.Writer, cards []Card) error {
	type cardView struct {
		Card
		TagLine string
	}
	views := make([]cardView, len(cards))
	for i, c := range cards {
		views[i] = cardView{Card: c, TagLine: strings.Join(c.Tags, ", ")}
	}
	return r.execute(w, "index_cards.html.tmpl", struct{ Cards []cardView }{views})
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if err := r.tpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
