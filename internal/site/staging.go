package site

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/manifest"
)

// checkOutputPlacement rejects output directories whose replacement would
// destroy the build's own inputs or the working directory.
func checkOutputPlacement(outputDir string, protected ...string) error {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "resolve output directory").Fatal().Build()
	}
	if cwd, err := os.Getwd(); err == nil && within(cwd, out) {
		return ferrors.ValidationError("output directory must not contain the working directory").
			WithContext("output", out).Build()
	}
	for _, p := range protected {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if within(abs, out) {
			return ferrors.ValidationError("output directory would replace a build input").
				WithContext("output", out).WithContext("path", abs).Build()
		}
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// beginStaging creates an isolated sibling staging directory: for output
// "analyses" pages are written to "analyses_stage" first.
func (g *Generator) beginStaging() error {
	stage := g.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove stale staging directory").
			Fatal().WithContext("path", stage).Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create staging directory").
			Fatal().WithContext("path", stage).Build()
	}
	g.stageDir = stage
	slog.Debug("Initialized staging directory", slog.String("staging", stage), logfields.Output(g.outputDir))
	return nil
}

// ownedEntries names the top-level output entries a previous build wrote: the
// fixed root files plus the page file and page directory of every slug listed
// in its manifest. A missing or unreadable manifest leaves only the root files.
func ownedEntries(outputDir string) map[string]struct{} {
	owned := map[string]struct{}{
		"index.html":      {},
		manifest.FileName: {},
	}
	for _, name := range AssetNames {
		owned[name] = struct{}{}
	}
	entries, err := manifest.ReadFile(filepath.Join(outputDir, manifest.FileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Debug("Previous manifest unreadable; keeping its pages", logfields.Output(outputDir), logfields.Error(err))
		}
		return owned
	}
	for _, e := range entries {
		if e.Slug == "" || strings.ContainsAny(e.Slug, `/\`) || e.Slug == "." || e.Slug == ".." {
			continue
		}
		owned[e.Slug] = struct{}{}
		owned[e.Slug+".html"] = struct{}{}
	}
	return owned
}

// carryOver moves every entry of the current output that labref does not own
// (a .git checkout, a CNAME, hand-added files) into the staging directory so it
// survives promotion. Entries the new build produced itself are left to be
// replaced. It returns the moved names so a failed promote can return them.
func (g *Generator) carryOver() ([]string, error) {
	existing, err := os.ReadDir(g.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read existing output: %w", err)
	}
	owned := ownedEntries(g.outputDir)
	var moved []string
	for _, de := range existing {
		name := de.Name()
		if _, ok := owned[name]; ok {
			continue
		}
		dst := filepath.Join(g.stageDir, name)
		if _, err := os.Lstat(dst); err == nil {
			continue
		}
		if err := os.Rename(filepath.Join(g.outputDir, name), dst); err != nil {
			restoreCarried(g.stageDir, g.outputDir, moved)
			return nil, fmt.Errorf("carry over %s: %w", name, err)
		}
		moved = append(moved, name)
	}
	if len(moved) > 0 {
		slog.Debug("Carried over unmanaged output entries", logfields.Output(g.outputDir), slog.Int("count", len(moved)))
	}
	return moved, nil
}

// restoreCarried moves carried entries from dir back to output.
func restoreCarried(dir, output string, names []string) {
	for _, name := range names {
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(output, name)); err != nil {
			slog.Warn("Failed to restore unmanaged output entry", logfields.Path(filepath.Join(output, name)), logfields.Error(err))
		}
	}
}

// finalizeStaging promotes the staging directory to the final output location:
//  1. Carry unmanaged entries of the existing output into staging.
//  2. Move the existing output directory to <output>.prev.
//  3. Rename staging to output.
//  4. Remove the backup.
func (g *Generator) finalizeStaging() error {
	if g.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(g.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	carried, err := g.carryOver()
	if err != nil {
		return err
	}

	prev := g.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	if _, err := os.Stat(g.outputDir); err == nil {
		if err := os.Rename(g.outputDir, prev); err != nil {
			restoreCarried(g.stageDir, g.outputDir, carried)
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(g.stageDir, g.outputDir); err != nil {
		// put the previous output back so a failed promote leaves it untouched
		if _, statErr := os.Stat(prev); statErr == nil {
			_ = os.Rename(prev, g.outputDir)
		}
		restoreCarried(g.stageDir, g.outputDir, carried)
		return fmt.Errorf("promote staging: %w", err)
	}
	g.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", logfields.Output(g.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build. The
// previous output is never touched.
func (g *Generator) abortStaging() {
	if g.stageDir == "" {
		return
	}
	dir := g.stageDir
	g.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	} else {
		slog.Debug("Removed staging directory after abort", slog.String("staging", dir))
	}
}
