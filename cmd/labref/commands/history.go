package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/mattn/go-runewidth"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	DB    string `name:"db" required:"" help:"SQLite history database" type:"path"`
	Limit int    `short:"n" default:"20" help:"Number of builds to show, 0 for all"`
	Build string `help:"Print the stored JSON report of this build id"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	if _, err := os.Stat(h.DB); errors.Is(err, fs.ErrNotExist) {
		return ferrors.NotFoundError("history database not found").WithContext("path", h.DB).Build()
	}
	store, err := history.Open(h.DB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.Build != "" {
		b, err := store.Get(ctx, h.Build)
		if err != nil {
			return err
		}
		return writeReport(g.out(), b)
	}

	builds, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	writeHistoryTable(g.out(), builds)
	return nil
}

func writeReport(w io.Writer, b history.Build) error {
	if len(b.Report) == 0 {
		_, err := fmt.Fprintf(w, "build %s has no stored report\n", b.BuildID)
		return err
	}
	var v any
	if err := json.Unmarshal(b.Report, &v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "stored report is not valid JSON").WithContext("build_id", b.BuildID).Build()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeHistoryTable(w io.Writer, builds []history.Build) {
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "no builds recorded")
		return
	}
	header := []string{"STARTED", "OUTCOME", "ENTRIES", "SKIPPED", "ISSUES", "DURATION", "BUILD"}
	rows := [][]string{header}
	for _, b := range builds {
		rows = append(rows, []string{
			b.Start.Local().Format(time.DateTime),
			b.Outcome,
			fmt.Sprint(b.Entries),
			fmt.Sprint(b.Skipped),
			fmt.Sprint(b.Issues),
			b.Duration.Round(time.Millisecond).String(),
			b.BuildID,
		})
	}
	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i]) + "  "
			}
			_, _ = fmt.Fprint(w, cell)
		}
		_, _ = fmt.Fprintln(w)
	}
}
