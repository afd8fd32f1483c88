package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/site"
)

func testBuild(id string, start time.Time, outcome string) Build {
	return Build{
		BuildID:      id,
		Input:        "data.csv",
		Output:       "analyses",
		Topology:     "dual",
		Outcome:      outcome,
		Start:        start,
		Duration:     1500 * time.Millisecond,
		Rows:         4,
		Entries:      3,
		Skipped:      1,
		Pages:        6,
		Issues:       2,
		ManifestHash: "abc123",
		Report:       []byte(`{"outcome":"` + outcome + `"}`),
	}
}

func TestAppendAndGet(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	start := time.UnixMilli(1_700_000_000_123)
	if err := store.Append(ctx, testBuild("b-1", start, "warning")); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.Get(ctx, "b-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID == 0 {
		t.Errorf("expected an assigned id")
	}
	if !got.Start.Equal(start) {
		t.Errorf("expected start %v, got %v", start, got.Start)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", got.Duration)
	}
	if got.Outcome != "warning" || got.Entries != 3 || got.Pages != 6 || got.ManifestHash != "abc123" {
		t.Errorf("unexpected build: %+v", got)
	}
	if string(got.Report) != `{"outcome":"warning"}` {
		t.Errorf("unexpected report payload %s", got.Report)
	}
}

func TestGetMissing(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	_, err = store.Get(t.Context(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ferrors.GetCategory(err) != ferrors.CategoryHistory {
		t.Errorf("expected history category, got %s", ferrors.GetCategory(err))
	}
}

func TestDuplicateBuildID(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	b := testBuild("dup", time.Now(), "success")
	if err := store.Append(ctx, b); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, b); !errors.Is(err, ErrAppendFailed) {
		t.Fatalf("expected ErrAppendFailed, got %v", err)
	}
}

func TestRecentOrdering(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"first", "second", "third"} {
		if err := store.Append(ctx, testBuild(id, base.Add(time.Duration(i)*time.Minute), "success")); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(recent))
	}
	if recent[0].BuildID != "third" || recent[1].BuildID != "second" {
		t.Errorf("expected newest first, got %s, %s", recent[0].BuildID, recent[1].BuildID)
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 builds, got %d", len(all))
	}
}

func TestPersistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Append(t.Context(), testBuild("kept", time.Now(), "success")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if _, err := reopened.Get(t.Context(), "kept"); err != nil {
		t.Fatalf("expected build to survive reopen: %v", err)
	}
}

func TestFromReport(t *testing.T) {
	r := &site.BuildReport{
		BuildID:      "r-1",
		Input:        "in.csv",
		Output:       "out",
		Topology:     config.TopologyFolder,
		Outcome:      site.OutcomeSuccess,
		Start:        time.Now().Add(-2 * time.Second),
		End:          time.Now(),
		Counts:       site.Counts{Rows: 5, Entries: 4, Skipped: 1, Collisions: 2, Pages: 4},
		ManifestHash: "h",
		Issues:       []site.ReportIssue{{Code: site.IssueRowSkipped}},
	}
	b := FromReport(r, []byte("{}"))
	if b.BuildID != "r-1" || b.Topology != "folder" || b.Outcome != "success" {
		t.Errorf("unexpected identity fields: %+v", b)
	}
	if b.Rows != 5 || b.Entries != 4 || b.Collisions != 2 || b.Issues != 1 {
		t.Errorf("unexpected counts: %+v", b)
	}
	if b.Duration < time.Second {
		t.Errorf("expected duration from report, got %v", b.Duration)
	}
}
