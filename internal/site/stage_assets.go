package site

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
)

//go:embed assets/style.css assets/script.js
var defaultAssets embed.FS

// AssetNames are the static files every site carries at its root.
var AssetNames = []string{"style.css", "script.js"}

const assetSourceEmbedded = "embedded"

// stageWriteAssets copies style.css and script.js from the assets directory,
// falling back to the built-in defaults for whichever is missing.
func stageWriteAssets(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, name := range AssetNames {
		data, source, err := g.loadAsset(name)
		if err != nil {
			return err
		}
		dst := filepath.Join(g.buildRoot(), name)
		// #nosec G306 -- static assets are public
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write asset").Fatal().WithContext("path", dst).Build()
		}
		bs.Report.AssetSources[name] = source
		slog.Debug("Wrote static asset", logfields.Path(name), slog.String("source", source))
	}
	return nil
}

func (g *Generator) loadAsset(name string) ([]byte, string, error) {
	if g.assetsDir != "" {
		src := filepath.Join(g.assetsDir, name)
		// #nosec G304 -- assets directory is operator supplied
		data, err := os.ReadFile(src)
		switch {
		case err == nil:
			return data, src, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read asset").Fatal().WithContext("path", src).Build()
		}
	}
	data, err := defaultAssets.ReadFile("assets/" + name)
	if err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryInternal, "embedded asset missing").Fatal().WithContext("name", name).Build()
	}
	return data, assetSourceEmbedded, nil
}
