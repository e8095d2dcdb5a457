package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/listing"
	"github.com/pevans/announcements/snapshot"
)

// printAnnouncementsTable prints announcements in human-readable format
func printAnnouncementsTable(items []listing.Announcement) {
	if len(items) == 0 {
		fmt.Println("No announcements to display.")
		return
	}

	fmt.Printf("Showing %d announcements\n\n", len(items))

	for _, item := range items {
		fmt.Printf("%s\n", truncate(item.Title, 70))
		if item.Date != "" {
			fmt.Printf("   Date: %s\n", item.Date)
		}
		if item.Link != "" {
			fmt.Printf("   URL: %s\n", item.Link)
		}
		fmt.Println()
	}
}

// printAnnouncementsJSON prints a crawl result in JSON format
func printAnnouncementsJSON(result *crawl.Result) error {
	pages := make([]map[string]any, 0, len(result.Pages))
	for _, p := range result.Pages {
		page := map[string]any{
			"page":    p.Page,
			"url":     p.URL,
			"state":   p.State.String(),
			"count":   p.Count,
			"skipped": p.Skipped,
		}
		if p.Err != nil {
			page["error"] = p.Err.Error()
		}
		pages = append(pages, page)
	}

	output := map[string]any{
		"run_id":        result.RunID,
		"announcements": result.Announcements,
		"total":         len(result.Announcements),
		"pages":         pages,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Println(string(data))
	return nil
}

// printAnnouncementsCompact prints one announcement per line
func printAnnouncementsCompact(items []listing.Announcement) {
	if len(items) == 0 {
		fmt.Println("No announcements to display.")
		return
	}

	for _, item := range items {
		fmt.Printf("%-12s %s\n", item.Date, item.Title)
	}
}

// printRunsTable prints stored runs in table format
func printRunsTable(runs []snapshot.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return
	}

	fmt.Printf("%-36s %-16s %-16s %-7s %-6s %-6s %s\n", "RUN ID", "STARTED", "AGE", "PAGES", "FAILED", "ITEMS", "URL")
	fmt.Println("----------------------------------------------------------------------------------------------------")

	for _, run := range runs {
		fmt.Printf("%-36s %-16s %-16s %-7s %-6d %-6d %s\n",
			run.RunID.String(),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			humanize.Time(run.StartedAt),
			fmt.Sprintf("%d-%d", run.StartPage, run.EndPage),
			run.PagesFailed,
			run.Announcements,
			truncate(run.BaseURL, 50),
		)
	}
}

// printEntriesTable prints the announcements of one stored run
func printEntriesTable(entries []snapshot.Entry) {
	if len(entries) == 0 {
		fmt.Println("No announcements in this run.")
		return
	}

	for _, entry := range entries {
		fmt.Printf("%3d. %s\n", entry.Position, truncate(entry.Title, 70))
		fmt.Printf("     Page: %d | Date: %s\n", entry.Page, entry.Date)
		fmt.Printf("     URL: %s\n", entry.Link)
		fmt.Println()
	}
}
