// Package verify checks a generated site tree for dangling relative references.
package verify

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Problem is one unresolved reference.
type Problem struct {
	Page   string // page path relative to the root, or "" for manifest URLs
	URL    string
	Reason string
}

func (p Problem) String() string {
	if p.Page == "" {
		return fmt.Sprintf("manifest url %s: %s", p.URL, p.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", p.Page, p.URL, p.Reason)
}

// Tree parses every .html file below root and checks that relative href and
// src targets exist. Each of urls (relative to root) must also resolve to a
// page file. Absolute URLs, fragments and special schemes are not checked.
func Tree(ctx context.Context, root string, urls []string) ([]Problem, error) {
	var problems []Problem

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		for _, l := range links {
			target, ok := localTarget(path.Dir(rel), l.URL)
			if !ok {
				continue
			}
			if !exists(root, target) {
				problems = append(problems, Problem{Page: rel, URL: l.URL, Reason: "target " + target + " does not exist"})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output: %w", err)
	}

	for _, u := range urls {
		target, ok := localTarget(".", u)
		if !ok {
			problems = append(problems, Problem{URL: u, Reason: "not a relative page url"})
			continue
		}
		if !exists(root, target) {
			problems = append(problems, Problem{URL: u, Reason: "no page at " + target})
		}
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Page < problems[j].Page })
	return problems, nil
}

// localTarget resolves ref against dir and returns the file path it names
// relative to the root. ok is false for references that are not local files.
func localTarget(dir, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	target := path.Join(dir, u.Path)
	if target == ".." || strings.HasPrefix(target, "../") {
		return target, true
	}
	if strings.HasSuffix(u.Path, "/") || target == "." {
		target = path.Join(target, "index.html")
	}
	return target, true
}

func exists(root, rel string) bool {
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}
