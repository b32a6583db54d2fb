// Package meta scrapes social-sharing preview metadata from a link's
// destination page. Everything here is best effort: a dead or slow
// destination falls back to defaults derived from the link name and never
// delays or fails the redirect pipeline.
package meta

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emrgen/linktrace/internal/cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// maxBodySize bounds how much of the destination page is read while looking
// for meta tags.
const maxBodySize = 512 << 10

// Preview is the Open Graph subset rendered into the interstitial page head.
type Preview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Default derives a preview from the link name when scraping is impossible.
func Default(name string) Preview {
	return Preview{
		Title:       name,
		Description: "Shared link",
	}
}

type Scraper struct {
	http  *http.Client
	cache *cache.Redis
}

// NewScraper creates a scraper. cache may be nil, in which case every call
// fetches the destination.
func NewScraper(c *cache.Redis) *Scraper {
	return &Scraper{
		http:  &http.Client{Timeout: 3 * time.Second},
		cache: c,
	}
}

// Preview returns the preview for a destination URL, consulting the cache
// first. On any failure it returns Default(name).
func (s *Scraper) Preview(ctx context.Context, url, name string) Preview {
	fallback := Default(name)
	if url == "" {
		return fallback
	}

	if s.cache != nil {
		var cached Preview
		hit, err := s.cache.GetMeta(ctx, url, &cached)
		if err != nil {
			logrus.Warnf("meta cache read failed for %s: %v", url, err)
		}
		if hit {
			return cached
		}
	}

	preview, ok := s.fetch(ctx, url)
	if !ok {
		return fallback
	}

	if preview.Title == "" {
		preview.Title = fallback.Title
	}
	if preview.Description == "" {
		preview.Description = fallback.Description
	}

	if s.cache != nil {
		if err := s.cache.SetMeta(ctx, url, preview); err != nil {
			logrus.Warnf("meta cache write failed for %s: %v", url, err)
		}
	}

	return preview
}

func (s *Scraper) fetch(ctx context.Context, url string) (Preview, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Preview{}, false
	}
	req.Header.Set("User-Agent", "linktrace-metadata/1.0")

	res, err := s.http.Do(req)
	if err != nil {
		logrus.Warnf("metadata fetch failed for %s: %v", url, err)
		return Preview{}, false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Preview{}, false
	}

	return parse(io.LimitReader(res.Body, maxBodySize))
}

// parse walks the document head collecting og: tags, falling back to the
// <title> element for the title.
func parse(r io.Reader) (Preview, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return Preview{}, false
	}

	var preview Preview
	var title string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				prop, content := metaAttrs(n)
				switch prop {
				case "og:title":
					preview.Title = content
				case "og:description":
					preview.Description = content
				case "og:image":
					preview.Image = content
				}
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if preview.Title == "" {
		preview.Title = title
	}

	return preview, true
}

func metaAttrs(n *html.Node) (prop, content string) {
	for _, a := range n.Attr {
		switch a.Key {
		case "property", "name":
			if prop == "" {
				prop = a.Val
			}
		case "content":
			content = a.Val
		}
	}
	return prop, content
}
