// Package scrape extracts article stubs and bodies from municipal news
// pages using heuristic structural probes rather than a fixed markup path,
// so template drift degrades extraction gracefully instead of breaking it.
package scrape

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// containerDepth bounds how far up the DOM we look for an anchor's
// surrounding article/list-item container.
const containerDepth = 3

// Extractor parses listing and detail pages.
type Extractor struct {
	maxItems int
}

// New builds an Extractor that returns at most maxItems listing stubs.
func New(maxItems int) *Extractor {
	if maxItems <= 0 {
		maxItems = 5
	}
	return &Extractor{maxItems: maxItems}
}

// ListingStubs extracts candidate article stubs from the listing page.
// Anchors are matched by href prefix against the listing path, deduplicated
// by canonical URL, and enriched with title/date text from their container.
// HTML without the expected markup yields an empty slice, never an error.
func (e *Extractor) ListingStubs(body []byte, base *url.URL) []news.Stub {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	stubs := make([]news.Stub, 0, e.maxItems)
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		detail := canonicalDetailURL(base, href)
		if detail == "" {
			return true
		}
		if _, ok := seen[detail]; ok {
			return true
		}

		container := containerFor(a)
		title := titleFor(a, container)
		if title == "" {
			return true
		}

		seen[detail] = struct{}{}
		stubs = append(stubs, news.Stub{
			Title:    title,
			DateText: dateTextFor(container),
			URL:      detail,
		})
		return len(stubs) < e.maxItems
	})

	return stubs
}

// canonicalDetailURL resolves href against the listing URL and returns the
// absolute detail URL, or "" when the link does not point below the listing
// path (navigation, external links, the listing itself).
func canonicalDetailURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	if abs.Host != base.Host {
		return ""
	}
	prefix := base.Path
	if !strings.HasPrefix(abs.Path, prefix) || abs.Path == prefix {
		return ""
	}
	return abs.String()
}

// containerFor walks up from the anchor to the nearest article, list item
// or div, which is where listing templates keep the heading and date.
func containerFor(a *goquery.Selection) *goquery.Selection {
	container := a
	for i := 0; i < containerDepth; i++ {
		parent := container.Parent()
		if parent.Length() == 0 {
			break
		}
		container = parent
		switch goquery.NodeName(container) {
		case "article", "li", "div":
			return container
		}
	}
	return container
}

// titleFor prefers a heading inside the container, then the anchor text.
func titleFor(a, container *goquery.Selection) string {
	if h := container.Find("h1,h2,h3").First(); h.Length() > 0 {
		if t := strings.TrimSpace(h.Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(a.Text())
}

// dateTextFor prefers a <time> element's datetime attribute, then its text,
// then the container text; the date parser picks the date out of the noise.
func dateTextFor(container *goquery.Selection) string {
	if tm := container.Find("time").First(); tm.Length() > 0 {
		if dt, ok := tm.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if t := strings.TrimSpace(tm.Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(container.Text())
}

// detailProbes is the prioritized sequence of structural probes tried
// against a detail page; the first probe yielding text wins. Keeping the
// drift tolerance here, in one ordered list, is the whole policy.
var detailProbes = []func(doc *goquery.Document) string{
	func(doc *goquery.Document) string { return regionText(doc.Find("article").First()) },
	func(doc *goquery.Document) string { return regionText(doc.Find("main").First()) },
	func(doc *goquery.Document) string { return paragraphText(doc.Selection) },
	func(doc *goquery.Document) string { return strings.TrimSpace(doc.Find("body").Text()) },
}

// DetailContent extracts the main body text of a detail page. Pages with
// none of the expected structure yield an empty string, never an error.
func (e *Extractor) DetailContent(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script,style,nav,header,footer").Remove()

	for _, probe := range detailProbes {
		if text := probe(doc); text != "" {
			return text
		}
	}
	return ""
}

// regionText joins the region's paragraphs, falling back to its full text.
func regionText(region *goquery.Selection) string {
	if region.Length() == 0 {
		return ""
	}
	if text := paragraphText(region); text != "" {
		return text
	}
	return strings.TrimSpace(region.Text())
}

func paragraphText(region *goquery.Selection) string {
	var parts []string
	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
