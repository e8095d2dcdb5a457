package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/pevans/announcements/snapshot"
)

func handleRunsCommand(action string, args []string) error {
	switch action {
	case "list":
		return handleRunsList(args)
	case "show":
		return handleRunsShow(args)
	case "help", "--help", "-h":
		printRunsUsage()
		return nil
	default:
		printRunsUsage()
		return fmt.Errorf("unknown runs command: %s", action)
	}
}

// openStore opens the snapshot database named by the flag or the environment.
func openStore(dbPath string) (*snapshot.Store, error) {
	if dbPath == "" {
		dbPath = loadConfig("").Snapshot.DSN
	}

	store, err := snapshot.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}

func handleRunsList(args []string) error {
	fs := flag.NewFlagSet("runs list", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Path to snapshot database (ANNOUNCEMENTS_SNAPSHOT_DSN)")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	printRunsTable(runs)
	return nil
}

func handleRunsShow(args []string) error {
	fs := flag.NewFlagSet("runs show", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Path to snapshot database (ANNOUNCEMENTS_SNAPSHOT_DSN)")
	format := fs.String("format", "table", "Output format: table, compact")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() < 1 {
		fmt.Println("Usage: announcements runs show [flags] <run-id>")
		return errors.New("run ID is required")
	}

	runID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(runID)
	if err != nil {
		if errors.Is(err, snapshot.ErrRunNotFound) {
			return fmt.Errorf("run not found: %s", runID)
		}
		return fmt.Errorf("failed to get run: %w", err)
	}

	entries, err := store.Announcements(runID)
	if err != nil {
		return fmt.Errorf("failed to read announcements: %w", err)
	}

	fmt.Printf("Run %s of %s (pages %d-%d, %d failed)\n\n",
		run.RunID, run.BaseURL, run.StartPage, run.EndPage, run.PagesFailed)

	if *format == "compact" {
		for _, entry := range entries {
			fmt.Printf("%3d p%d %s\n", entry.Position, entry.Page, entry.Title)
		}
		return nil
	}
	printEntriesTable(entries)
	return nil
}
