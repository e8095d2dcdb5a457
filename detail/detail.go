// Package detail parses announcement detail pages into readable text and the
// page's secure outbound links.
package detail

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/announcements/scraper"
)

// ParagraphSeparator joins the paragraphs of Content.Body.
const ParagraphSeparator = "\n\n"

// Content is the parsed form of one detail page.
type Content struct {
	Body  string   `json:"body"`
	Links []string `json:"links"`
}

// Empty reports whether the page yielded neither text nor links. An empty
// page is a valid result, not a failure.
func (c *Content) Empty() bool {
	return c.Body == "" && len(c.Links) == 0
}

// Parse extracts the non-empty paragraph texts and the prefixed links of
// markup, both in document order.
func Parse(markup string, config scraper.DetailConfig) (*Content, error) {
	config = config.WithDefaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail markup: %w", err)
	}

	paragraphs := []string{}
	doc.Find(config.ParagraphSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	links := []string{}
	doc.Find(config.LinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if ok && strings.HasPrefix(href, config.LinkPrefix) {
			links = append(links, href)
		}
	})

	return &Content{
		Body:  strings.Join(paragraphs, ParagraphSeparator),
		Links: links,
	}, nil
}

// Format renders content for display: the body, then the list of links
// under a heading when there are any.
func Format(c *Content) string {
	var b strings.Builder
	b.WriteString(c.Body)

	if len(c.Links) > 0 {
		b.WriteString("\nURLs in the article:\n")
		for _, link := range c.Links {
			b.WriteString(link)
			b.WriteString("\n")
		}
	}

	return b.String()
}
