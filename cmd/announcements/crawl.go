package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/announcements"
	"github.com/pevans/announcements/config"
	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/detail"
	"github.com/pevans/announcements/snapshot"
)

// crawlFlags holds the flags shared by list and export.
type crawlFlags struct {
	fs           *flag.FlagSet
	configPath   *string
	baseURL      *string
	start        *int
	end          *int
	resolveLinks *bool
}

func newCrawlFlags(name string) *crawlFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &crawlFlags{
		fs:           fs,
		configPath:   fs.String("config", "", "Path to config file (default: ~/.announcements/config.yaml)"),
		baseURL:      fs.String("base-url", "", "Listing URL to crawl"),
		start:        fs.Int("start", config.DefaultStartPage, "First page to crawl"),
		end:          fs.Int("end", config.DefaultEndPage, "Last page to crawl (inclusive)"),
		resolveLinks: fs.Bool("resolve-links", false, "Resolve relative links against the listing page"),
	}
}

// apply loads the configuration and overlays explicitly set flags.
func (f *crawlFlags) apply() *config.Config {
	cfg := loadConfig(*f.configPath)

	if *f.baseURL != "" {
		cfg.Site.BaseURL = *f.baseURL
	}
	if isFlagSet(f.fs, "start") {
		cfg.Site.StartPage = f.start
	}
	if isFlagSet(f.fs, "end") {
		cfg.Site.EndPage = f.end
	}
	if isFlagSet(f.fs, "resolve-links") {
		cfg.Site.ResolveLinks = *f.resolveLinks
	}

	return cfg
}

// collect runs the crawl described by cfg.
func collect(service *announcements.Service, cfg *config.Config) (*crawl.Result, error) {
	start, end := cfg.Pages()
	return service.CollectAnnouncements(cfg.Site.BaseURL, start, end)
}

// printFailedPages reports failed pages on stderr.
func printFailedPages(result *crawl.Result) {
	failed := result.Failed()
	if len(failed) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "\nWarning: %d page(s) could not be crawled:\n", len(failed))
	for _, page := range failed {
		fmt.Fprintf(os.Stderr, "  page %d: %v\n", page.Page, page.Err)
	}
}

func handleList(args []string) error {
	// Parse flags for list command
	flags := newCrawlFlags("list")
	format := flags.fs.String("format", "table", "Output format: table, json, compact")
	if ok, err := parseFlags(flags.fs, args); !ok {
		return err
	}

	switch *format {
	case "table", "json", "compact":
	default:
		return fmt.Errorf("unknown format: %s", *format)
	}

	cfg := flags.apply()
	service, logger, err := newService(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	result, err := collect(service, cfg)
	if err != nil {
		return err
	}

	// Report any failed pages after displaying results
	defer printFailedPages(result)

	switch *format {
	case "json":
		return printAnnouncementsJSON(result)
	case "compact":
		printAnnouncementsCompact(result.Announcements)
	default:
		printAnnouncementsTable(result.Announcements)
	}
	return nil
}

func handleShow(args []string) error {
	// Parse flags for show command
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file (default: ~/.announcements/config.yaml)")
	format := fs.String("format", "text", "Output format: text, json")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() < 1 {
		fmt.Println("Usage: announcements show [flags] <link>")
		return errors.New("announcement link is required")
	}
	link := fs.Arg(0)

	service, logger, err := newService(loadConfig(*configPath))
	if err != nil {
		return err
	}
	defer logger.Sync()

	content, err := service.RetrieveAndParseDetail(link)
	if err != nil {
		if errors.Is(err, announcements.ErrNoContent) {
			fmt.Println("There is no content")
			return nil
		}
		return err
	}

	if *format == "json" {
		data, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(detail.Format(content))
	return nil
}

func handleExport(args []string) error {
	// Parse flags for export command
	flags := newCrawlFlags("export")
	dbPath := flags.fs.String("db", "", "Path to snapshot database (ANNOUNCEMENTS_SNAPSHOT_DSN)")
	if ok, err := parseFlags(flags.fs, args); !ok {
		return err
	}

	cfg := flags.apply()
	if *dbPath != "" {
		cfg.Snapshot.DSN = *dbPath
	}

	service, logger, err := newService(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := snapshot.NewStore(cfg.Snapshot.DSN)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	result, err := collect(service, cfg)
	if err != nil {
		return err
	}
	defer printFailedPages(result)

	if err := store.Save(result); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Printf("Saved run %s: %d announcement(s) from %d page(s) to %s\n",
		result.RunID.String(),
		len(result.Announcements),
		len(result.Pages),
		cfg.Snapshot.DSN,
	)
	return nil
}

func handleConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file (default: ~/.announcements/config.yaml)")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg := loadConfig(*configPath)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
