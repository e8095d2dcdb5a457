// Package listing extracts announcement records from listing page markup.
package listing

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/announcements/scraper"
)

// Announcement is one record read from a listing card. Link is the href as
// found in the markup and may be relative.
type Announcement struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Link  string `json:"link"`
}

// Extraction is the result of reading one listing page.
type Extraction struct {
	Announcements []Announcement
	// Skipped counts cards that lacked a title, date or link.
	Skipped int
}

// Extract reads every card inside every card wrapper of markup, in document
// order. Cards missing a required field are skipped and counted, never
// reported as errors. The returned error only signals markup the parser
// could not read.
func Extract(markup string, config scraper.ListingConfig) (*Extraction, error) {
	config = config.WithDefaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing markup: %w", err)
	}

	result := &Extraction{
		Announcements: []Announcement{},
	}

	doc.Find(config.WrapperSelector).Each(func(_ int, wrap *goquery.Selection) {
		wrap.Find(config.CardSelector).Each(func(_ int, card *goquery.Selection) {
			announcement, ok := extractCard(card, config)
			if !ok {
				result.Skipped++
				return
			}
			result.Announcements = append(result.Announcements, announcement)
		})
	})

	return result, nil
}

// extractCard builds an announcement from a single card. It reports false
// when any of the three fields is absent.
func extractCard(card *goquery.Selection, config scraper.ListingConfig) (Announcement, bool) {
	title := card.Find(config.TitleSelector).First()
	date := card.Find(config.DateSelector).First()
	link := card.Find(config.LinkSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, ok := s.Attr("href")
		return ok
	}).First()

	if title.Length() == 0 || date.Length() == 0 || link.Length() == 0 {
		return Announcement{}, false
	}

	href, _ := link.Attr("href")

	return Announcement{
		Title: strings.TrimSpace(title.Text()),
		Date:  strings.TrimSpace(date.Text()),
		Link:  href,
	}, true
}
