package scraper

// Config groups the selectors used to read listing and detail pages.
type Config struct {
	Listing ListingConfig `json:"listing" yaml:"listing"`
	Detail  DetailConfig  `json:"detail" yaml:"detail"`
}

// ListingConfig defines how to find announcement cards on a listing page.
// Cards are searched inside each wrapper, so a card outside every wrapper is
// ignored.
type ListingConfig struct {
	WrapperSelector string `json:"wrapper_selector" yaml:"wrapper_selector"`
	CardSelector    string `json:"card_selector" yaml:"card_selector"`
	TitleSelector   string `json:"title_selector" yaml:"title_selector"`
	DateSelector    string `json:"date_selector" yaml:"date_selector"`
	LinkSelector    string `json:"link_selector" yaml:"link_selector"`
}

// DetailConfig defines how to read the body and outbound links of a detail
// page.
type DetailConfig struct {
	ParagraphSelector string `json:"paragraph_selector" yaml:"paragraph_selector"`
	LinkSelector      string `json:"link_selector" yaml:"link_selector"`
	// LinkPrefix is matched literally and case-sensitively against each
	// href. Links without it are dropped.
	LinkPrefix string `json:"link_prefix" yaml:"link_prefix"`
}

// DefaultListingConfig returns the selectors of the university listing
// pages.
func DefaultListingConfig() ListingConfig {
	return ListingConfig{
		WrapperSelector: ".list-card-wrap",
		CardSelector:    ".list-card",
		TitleSelector:   "h2",
		DateSelector:    ".date",
		LinkSelector:    "a[href]",
	}
}

// DefaultDetailConfig returns the selectors of the university detail pages.
func DefaultDetailConfig() DetailConfig {
	return DetailConfig{
		ParagraphSelector: "p",
		LinkSelector:      "a[href]",
		LinkPrefix:        "https",
	}
}

// DefaultConfig returns both default selector sets.
func DefaultConfig() Config {
	return Config{
		Listing: DefaultListingConfig(),
		Detail:  DefaultDetailConfig(),
	}
}

// WithDefaults returns a copy of c where every empty selector is replaced by
// its default.
func (c ListingConfig) WithDefaults() ListingConfig {
	d := DefaultListingConfig()
	if c.WrapperSelector == "" {
		c.WrapperSelector = d.WrapperSelector
	}
	if c.CardSelector == "" {
		c.CardSelector = d.CardSelector
	}
	if c.TitleSelector == "" {
		c.TitleSelector = d.TitleSelector
	}
	if c.DateSelector == "" {
		c.DateSelector = d.DateSelector
	}
	if c.LinkSelector == "" {
		c.LinkSelector = d.LinkSelector
	}
	return c
}

// WithDefaults returns a copy of c where every empty field is replaced by its
// default.
func (c DetailConfig) WithDefaults() DetailConfig {
	d := DefaultDetailConfig()
	if c.ParagraphSelector == "" {
		c.ParagraphSelector = d.ParagraphSelector
	}
	if c.LinkSelector == "" {
		c.LinkSelector = d.LinkSelector
	}
	if c.LinkPrefix == "" {
		c.LinkPrefix = d.LinkPrefix
	}
	return c
}
