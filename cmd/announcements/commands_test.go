package main

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: isolate commands from the user's config file and environment
func setupEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANNOUNCEMENTS_BASE_URL", "")
	t.Setenv("ANNOUNCEMENTS_LOG_LEVEL", "error")
	t.Setenv("ANNOUNCEMENTS_SNAPSHOT_DSN", "")
}

// Test helper: serve one card per listing page, failing page 2
func newListingServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "2" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `<div class="list-card-wrap"><div class="list-card">
			<h2>Notice %s</h2><span class="date">01.01.2024</span><a href="/n/%s">more</a>
		</div></div>`, page, page)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestRun_UnknownCommand verifies unknown commands are errors
func TestRun_UnknownCommand(t *testing.T) {
	err := run("bogus", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

// TestRun_RunsWithoutAction verifies runs needs an action
func TestRun_RunsWithoutAction(t *testing.T) {
	assert.Error(t, run("runs", nil))
	assert.Error(t, run("runs", []string{"rename"}))
}

// TestHandleList_UnknownFormat verifies the format is checked before
// crawling
func TestHandleList_UnknownFormat(t *testing.T) {
	setupEnv(t)

	err := handleList([]string{"-format", "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

// TestHandleList_InvalidBaseURL verifies configuration errors are returned
func TestHandleList_InvalidBaseURL(t *testing.T) {
	setupEnv(t)

	err := handleList([]string{"-base-url", "relative/path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

// TestHandleList_RangeTooLarge verifies crawl argument errors are returned
func TestHandleList_RangeTooLarge(t *testing.T) {
	setupEnv(t)
	server := newListingServer(t)

	err := handleList([]string{"-base-url", server.URL, "-start", "1", "-end", strconv.Itoa(math.MaxInt)})
	assert.ErrorIs(t, err, crawl.ErrInvalidPageRange)
}

// TestHandleList_PartialFailure verifies failed pages do not fail the command
func TestHandleList_PartialFailure(t *testing.T) {
	setupEnv(t)
	server := newListingServer(t)

	for _, format := range []string{"table", "json", "compact"} {
		err := handleList([]string{"-base-url", server.URL, "-start", "1", "-end", "3", "-format", format})
		assert.NoError(t, err, "format %s", format)
	}
}

// TestHandleList_BadFlag verifies flag errors are returned
func TestHandleList_BadFlag(t *testing.T) {
	setupEnv(t)

	assert.Error(t, handleList([]string{"-start", "one"}))
	assert.NoError(t, handleList([]string{"-h"}), "help should not be an error")
}

// TestHandleShow_MissingLink verifies show needs a link
func TestHandleShow_MissingLink(t *testing.T) {
	setupEnv(t)

	err := handleShow(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link is required")
}

// TestHandleShow_NoContent verifies a transport failure is reported as no
// content, not an error
func TestHandleShow_NoContent(t *testing.T) {
	setupEnv(t)
	server := newListingServer(t)

	assert.NoError(t, handleShow([]string{server.URL + "/?page=2"}))
}

// TestHandleExport_SavesRun verifies export stores one run
func TestHandleExport_SavesRun(t *testing.T) {
	setupEnv(t)
	server := newListingServer(t)
	dbPath := filepath.Join(t.TempDir(), "announcements.db")

	err := handleExport([]string{"-base-url", server.URL, "-start", "1", "-end", "3", "-db", dbPath})
	require.NoError(t, err)

	store, err := snapshot.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Announcements)
	assert.Equal(t, 1, runs[0].PagesFailed)

	assert.NoError(t, handleRunsList([]string{"-db", dbPath}))
	assert.NoError(t, handleRunsShow([]string{"-db", dbPath, runs[0].RunID.String()}))
}

// TestHandleRunsShow_Errors verifies bad run ids are returned as errors
func TestHandleRunsShow_Errors(t *testing.T) {
	setupEnv(t)
	dbPath := filepath.Join(t.TempDir(), "announcements.db")

	assert.Error(t, handleRunsShow([]string{"-db", dbPath}))
	assert.Error(t, handleRunsShow([]string{"-db", dbPath, "not-a-uuid"}))

	err := handleRunsShow([]string{"-db", dbPath, "00000000-0000-0000-0000-000000000001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}
