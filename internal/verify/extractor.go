package verify

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/labref/internal/foundation/errors"
)

// Link represents a reference extracted from HTML content.
type Link struct {
	URL       string // the URL or path as written
	Tag       string // HTML tag (a, img, script, link)
	Attribute string // attribute holding the link (href, src)
	Line      int    // element ordinal, a rough position hint
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close()
	}()
	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []Link
	var line int
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			line++
			if attr := linkAttribute(n.Data); attr != "" {
				if v := getAttr(n, attr); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr, Line: line})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// linkAttribute names the attribute carrying a reference for tag.
func linkAttribute(tag string) string {
	switch tag {
	case "a", "link":
		return "href"
	case "img", "script", "source", "video", "audio":
		return "src"
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
