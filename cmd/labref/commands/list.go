package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/manifest"
)

// maxTitleWidth caps the title column; longer titles are truncated with an ellipsis.
const maxTitleWidth = 40

// ListCmd implements the 'list' command.
type ListCmd struct {
	Dir string `arg:"" optional:"" help:"Generated site directory (default from configuration)" type:"path"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	dir := l.Dir
	if dir == "" {
		cfg, err := root.loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Output.Directory
	}
	path := filepath.Join(dir, manifest.FileName)
	entries, err := manifest.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ferrors.NotFoundError("manifest not found; build the site first").WithContext("path", path).Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryInput, "read manifest").Fatal().WithContext("path", path).Build()
	}
	writeEntryTable(g.out(), entries)
	return nil
}

// writeEntryTable prints entries as an aligned table. Widths are measured in
// terminal cells so Cyrillic and wide characters line up.
func writeEntryTable(w io.Writer, entries []manifest.Entry) {
	rows := [][]string{{"SLUG", "TITLE", "TAGS", "URL"}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Slug,
			runewidth.Truncate(e.Title, maxTitleWidth, "…"),
			strings.Join(e.Tags, ", "),
			e.URL,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
	_, _ = fmt.Fprintf(w, "%d entries\n", len(entries))
}
