package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestRepo lays out a small repository under a temp dir.
func writeTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"auth.go":            "package main\n\nfunc Authenticate(token string) bool {\n\treturn token != \"\"\n}\n",
		"middleware.go":      "package main\n\nfunc AuthMiddleware() {}\n",
		"docs/readme.md":     "# Demo\nAuthentication lives in auth.go\n",
		"vendor/skipped.go":  "package vendored\n",
		".hidden":            "should be skipped\n",
		"assets/logo.png":    "binary-ish",
		"src/handler.py":     "def handle():\n    pass\n",
	}
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func TestIndexIgnoresVendorHiddenAndBinary(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	paths, err := idx.ListFiles(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	for _, p := range paths {
		if strings.HasPrefix(p, "vendor/") || strings.HasPrefix(p, ".") || strings.HasSuffix(p, ".png") {
			t.Errorf("path %q should have been ignored", p)
		}
	}
	if len(paths) != 4 {
		t.Errorf("expected 4 indexed files, got %d: %v", len(paths), paths)
	}
}

func TestSearchFindsMatchesWithLineRanges(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	matches, err := idx.Search(context.Background(), "authenticate", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}

	found := false
	for _, m := range matches {
		if m.Path == "auth.go" {
			found = true
			if m.StartLine < 1 || m.EndLine < m.StartLine {
				t.Errorf("bad line range: %d-%d", m.StartLine, m.EndLine)
			}
		}
	}
	if !found {
		t.Errorf("expected a match in auth.go, got %v", matches)
	}
}

func TestSearchRejectsQueryExtendingPastChunkEnd(t *testing.T) {
	// A chunk whose tail is a proper prefix of the query must not match.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello wo"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx, err := NewIndex(dir)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	matches, err := idx.Search(context.Background(), "world", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}

	matches, err = idx.Search(context.Background(), "wo", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match for the contained prefix, got %v", matches)
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	matches, err := idx.Search(context.Background(), "package", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected exactly 1 match, got %d", len(matches))
	}
}

func TestReadFileWholeAndRange(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	ctx := context.Background()

	whole, err := idx.ReadFile(ctx, "auth.go", 0, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if whole.TotalLines != 5 {
		t.Errorf("expected 5 lines, got %d", whole.TotalLines)
	}
	if whole.StartLine != 1 || whole.EndLine != 5 {
		t.Errorf("expected range 1-5, got %d-%d", whole.StartLine, whole.EndLine)
	}

	ranged, err := idx.ReadFile(ctx, "auth.go", 3, 4)
	if err != nil {
		t.Fatalf("ReadFile range failed: %v", err)
	}
	if !strings.Contains(ranged.Text, "Authenticate") {
		t.Errorf("expected range text to contain function, got %q", ranged.Text)
	}
	if strings.Contains(ranged.Text, "package") {
		t.Errorf("range text should not include line 1, got %q", ranged.Text)
	}

	// Out-of-bounds end clamps to file length
	clamped, err := idx.ReadFile(ctx, "auth.go", 4, 100)
	if err != nil {
		t.Fatalf("ReadFile clamp failed: %v", err)
	}
	if clamped.EndLine != 5 {
		t.Errorf("expected clamped end 5, got %d", clamped.EndLine)
	}
}

func TestReadFileNotFound(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	_, err = idx.ReadFile(context.Background(), "nope.go", 0, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFilesFilters(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	ctx := context.Background()

	goFiles, err := idx.ListFiles(ctx, "", []string{".go"})
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(goFiles) != 2 {
		t.Errorf("expected 2 .go files, got %v", goFiles)
	}

	srcFiles, err := idx.ListFiles(ctx, "src/", nil)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(srcFiles) != 1 || srcFiles[0] != "src/handler.py" {
		t.Errorf("expected [src/handler.py], got %v", srcFiles)
	}
}

func TestStatsCounts(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	idx.SetIssues([]Issue{{Number: 1, Title: "bug", State: "open"}})
	idx.SetPullRequests([]PullRequest{{Number: 2, Title: "fix", State: "open"}})

	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFiles != 4 {
		t.Errorf("expected 4 files, got %d", stats.TotalFiles)
	}
	if stats.TotalChunks == 0 {
		t.Error("expected nonzero chunks")
	}
	if stats.TotalIssues != 1 || stats.TotalPRs != 1 {
		t.Errorf("expected 1 issue and 1 PR, got %d/%d", stats.TotalIssues, stats.TotalPRs)
	}
}

func TestIssueFiltering(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	ctx := context.Background()

	idx.SetIssues([]Issue{
		{Number: 1, Title: "Login broken", Body: "auth fails", State: "open"},
		{Number: 2, Title: "Typo in docs", State: "closed"},
		{Number: 3, Title: "Auth timeout", State: "open"},
	})

	open, err := idx.Issues(ctx, "", "open", 10)
	if err != nil {
		t.Fatalf("Issues failed: %v", err)
	}
	if len(open) != 2 {
		t.Errorf("expected 2 open issues, got %d", len(open))
	}

	all, err := idx.Issues(ctx, "", "all", 10)
	if err != nil {
		t.Fatalf("Issues failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 issues for state=all, got %d", len(all))
	}

	auth, err := idx.Issues(ctx, "auth", "all", 10)
	if err != nil {
		t.Fatalf("Issues failed: %v", err)
	}
	if len(auth) != 2 {
		t.Errorf("expected 2 auth issues (title or body match), got %d", len(auth))
	}

	limited, err := idx.Issues(ctx, "", "all", 1)
	if err != nil {
		t.Fatalf("Issues failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestLoadTrackerExport(t *testing.T) {
	idx, err := NewIndex(writeTestRepo(t))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	export := `{
		"issues": [{"number": 7, "title": "crash on start", "state": "open", "url": "https://example.com/issues/7"}],
		"pull_requests": [{"number": 8, "title": "add tests", "state": "closed", "url": "https://example.com/pull/8"}]
	}`
	path := filepath.Join(t.TempDir(), "tracker.json")
	if err := os.WriteFile(path, []byte(export), 0644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	if err := idx.LoadTrackerExport(path); err != nil {
		t.Fatalf("LoadTrackerExport failed: %v", err)
	}

	prs, err := idx.PullRequests(context.Background(), "", "all", 10)
	if err != nil {
		t.Fatalf("PullRequests failed: %v", err)
	}
	if len(prs) != 1 || prs[0].Number != 8 {
		t.Errorf("unexpected PRs: %v", prs)
	}
}

func TestChunkingOverlap(t *testing.T) {
	dir := t.TempDir()

	var sb strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), []byte(sb.String()), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx, err := NewIndex(dir)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	// 100 lines at 40 per chunk with 5 overlap: 1-40, 36-75, 71-100
	if stats.TotalChunks != 3 {
		t.Errorf("expected 3 chunks for 100 lines, got %d", stats.TotalChunks)
	}

	matches, err := idx.Search(context.Background(), "line 99", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].StartLine != 71 || matches[0].EndLine != 100 {
		t.Errorf("expected final chunk 71-100, got %d-%d", matches[0].StartLine, matches[0].EndLine)
	}
}
