package site

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/labref/internal/fields"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
)

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := checkOutputPlacement(g.outputDir, g.inputPath, g.cfg.Output.AssetsDir); err != nil {
		return err
	}
	return g.beginStaging()
}

// stageReadInput loads every record. The input is small enough to hold in
// memory and slug allocation needs the whole table anyway.
func stageReadInput(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	f, err := os.Open(g.inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ferrors.NotFoundError("input file not found").WithContext("path", g.inputPath).Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryInput, "open input").Fatal().WithContext("path", g.inputPath).Build()
	}
	defer func() { _ = f.Close() }()

	r, err := fields.NewReader(f, g.delimiter)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInput, "read input header").Fatal().WithContext("path", g.inputPath).Build()
	}
	bs.Header = r.Header()

	if missing := fields.MissingFields(bs.Header, g.aliases); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		msg := "header lacks columns for: " + strings.Join(names, ", ")
		bs.Report.AddIssue(IssueMissingColumns, StageReadInput, SeverityInfo, 0, "", msg)
		slog.Warn("Input header does not cover all fields; available columns are used", logfields.Input(g.inputPath), slog.Any("missing", names))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInput, "parse input").Fatal().WithContext("path", g.inputPath).Build()
		}
		bs.Records = append(bs.Records, rec)
	}
	slog.Debug("Read input", logfields.Input(g.inputPath), logfields.Count(len(bs.Records)))
	return nil
}
