package listing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pevans/announcements/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: render one complete card
func card(title, date, link string) string {
	return fmt.Sprintf(`
		<div class="list-card">
			<h2>%s</h2>
			<span class="date">%s</span>
			<a href="%s">Read more</a>
		</div>`, title, date, link)
}

// Test helper: wrap cards in a card wrapper
func wrapper(cards ...string) string {
	return `<div class="list-card-wrap">` + strings.Join(cards, "") + `</div>`
}

// Test helper: wrap a body fragment into a full page
func page(body ...string) string {
	return "<html><body>" + strings.Join(body, "") + "</body></html>"
}

// TestExtract_SingleCard verifies one complete card yields one record
func TestExtract_SingleCard(t *testing.T) {
	html := page(wrapper(card("Exam Schedule", "12.01.2024", "/en/announcements/exam-schedule")))

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, Announcement{
		Title: "Exam Schedule",
		Date:  "12.01.2024",
		Link:  "/en/announcements/exam-schedule",
	}, result.Announcements[0])
	assert.Equal(t, 0, result.Skipped)
}

// TestExtract_TwoWrappers verifies cards from every wrapper are flattened
func TestExtract_TwoWrappers(t *testing.T) {
	html := page(
		wrapper(card("First", "01.01.2024", "https://example.edu/1")),
		wrapper(card("Second", "02.01.2024", "https://example.edu/2")),
	)

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 2)
	assert.Equal(t, "First", result.Announcements[0].Title)
	assert.Equal(t, "Second", result.Announcements[1].Title)
}

// TestExtract_NoWrappers verifies a page without wrappers yields no records
func TestExtract_NoWrappers(t *testing.T) {
	html := page(`<div class="content"><p>Nothing to see</p></div>`)

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	assert.NotNil(t, result.Announcements, "should return empty, non-nil slice")
	assert.Empty(t, result.Announcements)
	assert.Equal(t, 0, result.Skipped)
}

// TestExtract_EmptyMarkup verifies empty input is not an error
func TestExtract_EmptyMarkup(t *testing.T) {
	result, err := Extract("", scraper.DefaultListingConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Announcements)
}

// TestExtract_CardOutsideWrapper verifies cards must sit inside a wrapper
func TestExtract_CardOutsideWrapper(t *testing.T) {
	html := page(
		card("Orphan", "01.01.2024", "/orphan"),
		wrapper(card("Inside", "02.01.2024", "/inside")),
	)

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, "Inside", result.Announcements[0].Title)
}

// TestExtract_MissingFields verifies incomplete cards are skipped without
// affecting their siblings
func TestExtract_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		card string
	}{
		{
			name: "missing title",
			card: `<div class="list-card"><span class="date">01.01.2024</span><a href="/x">x</a></div>`,
		},
		{
			name: "missing date",
			card: `<div class="list-card"><h2>Title</h2><a href="/x">x</a></div>`,
		},
		{
			name: "missing link",
			card: `<div class="list-card"><h2>Title</h2><span class="date">01.01.2024</span></div>`,
		},
		{
			name: "link without href",
			card: `<div class="list-card"><h2>Title</h2><span class="date">01.01.2024</span><a name="anchor">x</a></div>`,
		},
		{
			name: "wrong heading level",
			card: `<div class="list-card"><h3>Title</h3><span class="date">01.01.2024</span><a href="/x">x</a></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := page(wrapper(
				card("Before", "01.01.2024", "/before"),
				tt.card,
				card("After", "03.01.2024", "/after"),
			))

			result, err := Extract(html, scraper.DefaultListingConfig())
			require.NoError(t, err)

			require.Len(t, result.Announcements, 2, "incomplete card should contribute nothing")
			assert.Equal(t, "Before", result.Announcements[0].Title)
			assert.Equal(t, "After", result.Announcements[1].Title)
			assert.Equal(t, 1, result.Skipped)
		})
	}
}

// TestExtract_TrimsText verifies title and date are trimmed
func TestExtract_TrimsText(t *testing.T) {
	html := page(wrapper(`
		<div class="list-card">
			<h2>
				Registration Renewal
			</h2>
			<div class="date">  05.02.2024 </div>
			<a href="/renewal">more</a>
		</div>`))

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, "Registration Renewal", result.Announcements[0].Title)
	assert.Equal(t, "05.02.2024", result.Announcements[0].Date)
}

// TestExtract_FirstLinkWithHref verifies the first anchor carrying an href
// is used
func TestExtract_FirstLinkWithHref(t *testing.T) {
	html := page(wrapper(`
		<div class="list-card">
			<a name="top">anchor</a>
			<h2>Title</h2>
			<span class="date">01.01.2024</span>
			<a href="/first">first</a>
			<a href="/second">second</a>
		</div>`))

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, "/first", result.Announcements[0].Link)
}

// TestExtract_EmptyHrefIsPresent verifies an empty href still counts as a
// destination
func TestExtract_EmptyHrefIsPresent(t *testing.T) {
	html := page(wrapper(card("Title", "01.01.2024", "")))

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, "", result.Announcements[0].Link)
}

// TestExtract_LinkNotNormalized verifies links are kept as found
func TestExtract_LinkNotNormalized(t *testing.T) {
	links := []string{
		"/en/announcements/a",
		"announcements/b",
		"https://www.example.edu/en/c",
		"http://www.example.edu/en/d",
	}

	var cards []string
	for i, link := range links {
		cards = append(cards, card(fmt.Sprintf("T%d", i), "01.01.2024", link))
	}

	result, err := Extract(page(wrapper(cards...)), scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, result.Announcements, len(links))
	for i, link := range links {
		assert.Equal(t, link, result.Announcements[i].Link)
	}
}

// TestExtract_NoDeduplication verifies repeated cards are all returned
func TestExtract_NoDeduplication(t *testing.T) {
	same := card("Same", "01.01.2024", "/same")
	html := page(wrapper(same, same), wrapper(same))

	result, err := Extract(html, scraper.DefaultListingConfig())
	require.NoError(t, err)

	assert.Len(t, result.Announcements, 3)
}

// TestExtract_CustomSelectors verifies selectors come from the config
func TestExtract_CustomSelectors(t *testing.T) {
	html := page(`
		<section class="news">
			<article class="item">
				<h3>Custom</h3>
				<time>2024-03-01</time>
				<a href="/custom">go</a>
			</article>
		</section>`)

	config := scraper.ListingConfig{
		WrapperSelector: "section.news",
		CardSelector:    "article.item",
		TitleSelector:   "h3",
		DateSelector:    "time",
	}

	result, err := Extract(html, config)
	require.NoError(t, err)

	require.Len(t, result.Announcements, 1)
	assert.Equal(t, Announcement{Title: "Custom", Date: "2024-03-01", Link: "/custom"}, result.Announcements[0])
}

// Property test: K complete cards always yield K records in order
func TestExtract_CountPreserved(t *testing.T) {
	for k := 0; k <= 12; k++ {
		var cards []string
		for i := 0; i < k; i++ {
			cards = append(cards, card(fmt.Sprintf("Title %d", i), "01.01.2024", fmt.Sprintf("/a/%d", i)))
		}

		// Spread the cards over three wrappers
		var wrappers []string
		for start := 0; start < len(cards); start += 4 {
			end := min(start+4, len(cards))
			wrappers = append(wrappers, wrapper(cards[start:end]...))
		}

		result, err := Extract(page(wrappers...), scraper.DefaultListingConfig())
		require.NoError(t, err)

		require.Len(t, result.Announcements, k)
		for i, a := range result.Announcements {
			assert.Equal(t, fmt.Sprintf("Title %d", i), a.Title, "should preserve document order")
		}
	}
}

// Property test: Extract keeps no state between calls
func TestExtract_Independent(t *testing.T) {
	first, err := Extract(page(wrapper(card("One", "d", "/1"))), scraper.DefaultListingConfig())
	require.NoError(t, err)

	second, err := Extract(page(wrapper(card("Two", "d", "/2"))), scraper.DefaultListingConfig())
	require.NoError(t, err)

	require.Len(t, first.Announcements, 1)
	require.Len(t, second.Announcements, 1)
	assert.Equal(t, "One", first.Announcements[0].Title)
	assert.Equal(t, "Two", second.Announcements[0].Title)
}
