package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/labref/internal/config"
)

// FileName is the manifest file written at the output root.
const FileName = "analyses.json"

// Entry is one record of the public manifest.
type Entry struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
}

// Builder accumulates manifest entries in input order.
type Builder struct {
	topology config.Topology
	host     string
	entries  []Entry
}

// NewBuilder returns an empty Builder that links pages for topology under host.
func NewBuilder(topology config.Topology, host string) *Builder {
	return &Builder{topology: topology, host: host, entries: make([]Entry, 0)}
}

// Add appends an entry for an already allocated slug and returns it.
func (b *Builder) Add(slug, title, summary string, tags []string) Entry {
	if tags == nil {
		tags = []string{}
	}
	e := Entry{
		Slug:    slug,
		Title:   title,
		Summary: summary,
		URL:     URL(b.topology, b.host, slug),
		Tags:    tags,
	}
	b.entries = append(b.entries, e)
	return e
}

// Entries returns a copy of the accumulated entries.
func (b *Builder) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of accumulated entries.
func (b *Builder) Len() int { return len(b.entries) }

// RelativeURL is the link to a page relative to the output root.
func RelativeURL(topology config.Topology, slug string) string {
	if topology == config.TopologyFlat {
		return slug + ".html"
	}
	return slug + "/"
}

// URL is the public link to a page. A non-empty host is joined with exactly one slash.
func URL(topology config.Topology, host, slug string) string {
	rel := RelativeURL(topology, slug)
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return rel
	}
	return host + "/" + rel
}

// Encode writes entries as an indented JSON array. Non-ASCII text and HTML
// characters are kept literal.
func Encode(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// WriteFile serializes the whole manifest in one write.
func WriteFile(path string, entries []Entry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		return err
	}
	// #nosec G306 -- the manifest is a public site asset
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadFile loads a manifest previously written by WriteFile.
func ReadFile(path string) ([]Entry, error) {
	// #nosec G304 -- path is the caller's output directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return entries, nil
}

// Hash computes a deterministic digest of the entries. Identical input
// tables produce identical hashes, which lets history spot no-op rebuilds.
func Hash(entries []Entry) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return fmt.Sprintf("%x", sum), nil
}
