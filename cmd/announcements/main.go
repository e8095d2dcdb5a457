package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches one subcommand. Handlers return their errors so that
// deferred cleanup runs before the process exits.
func run(subcommand string, args []string) error {
	switch subcommand {
	case "list":
		return handleList(args)
	case "show":
		return handleShow(args)
	case "export":
		return handleExport(args)
	case "runs":
		if len(args) < 1 {
			printRunsUsage()
			return errors.New("runs action is required")
		}
		return handleRunsCommand(args[0], args[1:])
	case "config":
		return handleConfig(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func printUsage() {
	fmt.Println("announcements - University announcement crawler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  announcements <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list       Crawl listing pages and print announcements")
	fmt.Println("  show       Print the content of one announcement")
	fmt.Println("  export     Crawl listing pages and store a snapshot")
	fmt.Println("  runs       Inspect stored snapshots")
	fmt.Println("  config     Print the effective configuration")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  ANNOUNCEMENTS_BASE_URL      Listing URL to crawl")
	fmt.Println("  ANNOUNCEMENTS_LOG_LEVEL     Log level: debug, info, warn, error (default: info)")
	fmt.Println("  ANNOUNCEMENTS_SNAPSHOT_DSN  Path to snapshot database (default: announcements.db)")
}

func printRunsUsage() {
	fmt.Println("announcements runs - Inspect stored snapshots")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  announcements runs <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list       List stored runs, newest first")
	fmt.Println("  show       Print the announcements of one run")
	fmt.Println("  help       Show this help message")
}
