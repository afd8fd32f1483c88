package site

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/manifest"
	"git.home.luguber.info/inful/labref/internal/verify"
)

// stageVerifyOutput checks the staged tree before promotion. Broken links are
// warnings, or abort the build under the strict policy.
func stageVerifyOutput(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	entries := bs.Manifest.Entries()
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = manifest.RelativeURL(g.cfg.Output.Topology, e.Slug)
	}

	problems, err := verify.Tree(ctx, g.buildRoot(), urls)
	if err != nil {
		return err
	}
	for _, p := range problems {
		bs.Report.AddIssue(IssueBrokenLink, StageVerifyOutput, SeverityWarning, 0, "", p.String())
		slog.Warn("Broken reference in generated site", logfields.Path(p.Page), slog.String("url", p.URL), logfields.Reason(p.Reason))
	}
	if len(problems) > 0 && g.strict() {
		return ferrors.ValidationError("generated site has broken references").
			WithContext("count", len(problems)).WithContext("first", problems[0].String()).Build()
	}
	return nil
}
