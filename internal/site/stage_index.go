package site

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/manifest"
	"git.home.luguber.info/inful/labref/internal/page"
)

// stageWriteIndex writes index.html. An empty site still gets an index.
func stageWriteIndex(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	var buf bytes.Buffer
	var err error
	switch g.cfg.Output.Index {
	case config.IndexCards:
		entries := bs.Manifest.Entries()
		cards := make([]page.Card, len(entries))
		for i, e := range entries {
			cards[i] = page.Card{Title: e.Title, Summary: e.Summary, URL: e.URL, Tags: e.Tags}
		}
		err = g.renderer.RenderCardIndex(&buf, cards)
	default:
		err = g.renderer.RenderShellIndex(&buf, manifest.FileName)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "render index").Fatal().Build()
	}
	path := filepath.Join(g.buildRoot(), "index.html")
	// #nosec G306 -- public site content
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write index").Fatal().WithContext("path", path).Build()
	}
	return nil
}

// stageWriteManifest serializes the full manifest once, after every page exists.
func stageWriteManifest(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	entries := bs.Manifest.Entries()
	path := filepath.Join(g.buildRoot(), manifest.FileName)
	if err := manifest.WriteFile(path, entries); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write manifest").Fatal().WithContext("path", path).Build()
	}
	hash, err := manifest.Hash(entries)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "hash manifest").Fatal().Build()
	}
	bs.Report.ManifestHash = hash
	return nil
}
