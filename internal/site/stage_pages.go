package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/inful/mdfp"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
)

// PageFile is one HTML file written for an entry.
type PageFile struct {
	RelPath     string // relative to the output root, slash separated
	AssetPrefix string // prefix that reaches the output root from the file
}

// PageFiles lists the files the topology produces for slug.
func PageFiles(topology config.Topology, slug string) []PageFile {
	flat := PageFile{RelPath: slug + ".html", AssetPrefix: ""}
	folder := PageFile{RelPath: slug + "/index.html", AssetPrefix: "../"}
	switch topology {
	case config.TopologyFlat:
		return []PageFile{flat}
	case config.TopologyFolder:
		return []PageFile{folder}
	default:
		return []PageFile{flat, folder}
	}
}

// stageWritePages renders and writes every page on a bounded worker pool.
// Slugs are final at this point and each job owns disjoint files.
func stageWritePages(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	root := g.buildRoot()
	var written atomic.Int64
	outputs := make([][]string, len(bs.Jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, g.cfg.Build.Workers))
	for i, job := range bs.Jobs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			files, err := g.writePage(root, job, bs.Report)
			if err != nil {
				return err
			}
			outputs[i] = files
			written.Add(int64(len(files)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	bs.Report.Counts.Pages = int(written.Load())
	g.recorder.AddPagesWritten(bs.Report.Counts.Pages)
	for i, job := range bs.Jobs {
		_, _ = fmt.Fprintf(g.progress, "[%d] generated: %s\n", job.Row, strings.Join(outputs[i], "  and "))
	}
	return nil
}

// writePage renders job once per topology file and records the page fingerprint.
func (g *Generator) writePage(root string, job pageJob, report *BuildReport) ([]string, error) {
	files := PageFiles(g.cfg.Output.Topology, job.Page.Slug)
	written := make([]string, 0, len(files))
	for i, pf := range files {
		var buf bytes.Buffer
		if err := g.renderer.Render(&buf, job.Page, pf.AssetPrefix); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "render page").Fatal().
				WithContext("slug", job.Page.Slug).WithContext("row", job.Row).Build()
		}
		path := filepath.Join(root, filepath.FromSlash(pf.RelPath))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create page directory").Fatal().
				WithContext("path", filepath.Dir(path)).Build()
		}
		// #nosec G306 -- generated pages are public site content
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write page").Fatal().
				WithContext("path", path).Build()
		}
		if i == 0 {
			report.SetFingerprint(job.Page.Slug, fingerprint(job, buf.String()))
		}
		written = append(written, filepath.Join(g.outputDir, filepath.FromSlash(pf.RelPath)))
	}
	return written, nil
}

// fingerprint hashes the identifying fields together with the rendered page.
func fingerprint(job pageJob, body string) string {
	head := fmt.Sprintf("slug: %s\ntitle: %s\nrow: %d\n", job.Page.Slug, job.Page.Title, job.Row)
	return mdfp.CalculateFingerprintFromParts(head, body)
}
