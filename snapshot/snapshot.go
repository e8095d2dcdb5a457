// Package snapshot exports crawl results to a SQLite database. Snapshots are
// write-only from the crawler's point of view: no crawl ever reads them back.
package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/listing"
)

// ErrRunNotFound is returned when no snapshot has the requested run id.
var ErrRunNotFound = errors.New("run not found")

// Store manages crawl snapshots using SQLite.
type Store struct {
	db *sql.DB
}

// Run summarizes one stored crawl.
type Run struct {
	RunID         uuid.UUID `json:"run_id"`
	BaseURL       string    `json:"base_url"`
	StartPage     int       `json:"start_page"`
	EndPage       int       `json:"end_page"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	PagesFailed   int       `json:"pages_failed"`
	Announcements int       `json:"announcements"`
}

// Entry is one stored announcement with its position in the crawl.
type Entry struct {
	Position int `json:"position"`
	Page     int `json:"page"`
	listing.Announcement
}

// NewStore creates a snapshot store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the snapshot tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		start_page INTEGER NOT NULL,
		end_page INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		announcements INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS announcements (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		page INTEGER NOT NULL,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		link TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes result and its announcements in one transaction.
func (s *Store) Save(result *crawl.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, base_url, start_page, end_page,
			started_at, finished_at, pages_failed, announcements
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID.String(),
		result.BaseURL,
		result.StartPage,
		result.EndPage,
		formatTime(result.StartedAt),
		formatTime(result.FinishedAt),
		len(result.Failed()),
		len(result.Announcements),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO announcements (run_id, position, page, title, date, link)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	pages := pageOf(result)
	for i, a := range result.Announcements {
		if _, err := stmt.Exec(result.RunID.String(), i, pages[i], a.Title, a.Date, a.Link); err != nil {
			return fmt.Errorf("failed to insert announcement %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// pageOf maps each announcement index to its page number using the per-page
// counts, which follow the same order as the announcements.
func pageOf(result *crawl.Result) []int {
	pages := make([]int, 0, len(result.Announcements))
	for _, report := range result.Pages {
		for i := 0; i < report.Count; i++ {
			pages = append(pages, report.Page)
		}
	}
	// Hand-built results may carry fewer counts than announcements; the rest
	// are attributed to the last page.
	for len(pages) < len(result.Announcements) {
		pages = append(pages, result.EndPage)
	}
	return pages
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, base_url, start_page, end_page,
		       started_at, finished_at, pages_failed, announcements
		FROM runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, base_url, start_page, end_page,
		       started_at, finished_at, pages_failed, announcements
		FROM runs
		WHERE run_id = ?
	`, runID.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Announcements returns the stored announcements of a run in crawl order.
func (s *Store) Announcements(runID uuid.UUID) ([]Entry, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT position, page, title, date, link
		FROM announcements
		WHERE run_id = ?
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Position, &e.Page, &e.Title, &e.Date, &e.Link); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate announcements: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, startedAtStr, finishedAtStr string
	run := &Run{}

	err := row.Scan(
		&runIDStr, &run.BaseURL, &run.StartPage, &run.EndPage,
		&startedAtStr, &finishedAtStr, &run.PagesFailed, &run.Announcements,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run_id: %w", err)
	}
	run.StartedAt = parseTime(startedAtStr)
	run.FinishedAt = parseTime(finishedAtStr)

	return run, nil
}

// timeLayout has fixed-width fractional seconds so stored times sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Try the storage layout first, fall back to RFC3339 for compatibility
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
