package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/labref/internal/fields"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/metrics"
	"git.home.luguber.info/inful/labref/internal/page"
	"git.home.luguber.info/inful/labref/internal/ranges"
)

// stageProcessRecords derives entries and allocates slugs in input order.
// It is strictly sequential: suffixes depend on which slugs came earlier.
func stageProcessRecords(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, rec := range bs.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.Blank() {
			continue
		}
		bs.Report.Counts.Rows++

		entry := fields.Derive(rec, g.aliases)
		if !entry.Usable() {
			if err := skipRow(bs, rec.Row); err != nil {
				return err
			}
			continue
		}

		s, collided := bs.Slugs.Allocate(entry.SlugCandidate)
		if collided {
			bs.Report.Counts.Collisions++
			bs.Report.AddIssue(IssueSlugCollision, StageProcessRecords, SeverityInfo, rec.Row, s,
				fmt.Sprintf("slug candidate %q already taken; using %q", entry.SlugCandidate, s))
		}

		p := page.New(entry, s)
		checkBounds(bs, rec.Row, p)

		bs.Jobs = append(bs.Jobs, pageJob{Row: rec.Row, Page: p})
		bs.Manifest.Add(s, entry.Title, entry.Summary, entry.Tags)
		g.recorder.IncRowResult(metrics.RowEntry)
	}
	bs.Report.Counts.Entries = len(bs.Jobs)

	if len(bs.Jobs) == 0 {
		bs.Report.AddIssue(IssueEmptyResult, StageProcessRecords, SeverityWarning, 0, "", "no rows produced an entry; index and manifest will be empty")
		slog.Warn("No rows processed from input; the site will contain no pages", logfields.Input(g.inputPath))
	}
	return nil
}

// skipRow applies the failure policy to a row without a slug or title source.
func skipRow(bs *BuildState, row int) error {
	g := bs.Generator
	if g.strict() {
		return ferrors.ValidationError("row has no slug or title").
			WithContext("row", row).WithContext("path", g.inputPath).Build()
	}
	bs.Report.Counts.Skipped++
	bs.Report.AddIssue(IssueRowSkipped, StageProcessRecords, SeverityWarning, row, "", "row has no slug or title")
	g.recorder.IncRowResult(metrics.RowSkipped)
	slog.Warn("Skipping row", logfields.Row(row), logfields.Reason("empty slug and title"))
	return nil
}

// checkBounds records issues for range text that yields no usable bounds.
func checkBounds(bs *BuildState, row int, p page.Page) {
	if p.NormalRange != "" && !p.HasBounds {
		bs.Report.Counts.Unparseable++
		bs.Report.AddIssue(IssueRangeUnparseable, StageProcessRecords, SeverityInfo, row, p.Slug,
			fmt.Sprintf("no numeric bounds in %q; checker will only acknowledge values", p.NormalRange))
		return
	}
	if !p.HasBounds {
		return
	}
	if err := ranges.SelfCheck(p.Bounds); err != nil {
		bs.Report.AddIssue(IssueBoundsInverted, StageProcessRecords, SeverityWarning, row, p.Slug, err.Error())
		slog.Warn("Suspicious reference bounds", logfields.Row(row), logfields.Slug(p.Slug), logfields.Error(err))
	}
}
