package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// storeFactories lets every behavioral test run against both backends.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			store, err := NewSqliteInMemory()
			if err != nil {
				t.Fatalf("NewSqliteInMemory failed: %v", err)
			}
			t.Cleanup(func() { store.Close() })
			return store
		},
	}
}

func TestAddQueryKeepsMostRecent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			for i := 0; i < MaxRecentQueries+5; i++ {
				if err := store.AddQuery(ctx, fmt.Sprintf("query %d", i), "summary"); err != nil {
					t.Fatalf("AddQuery failed: %v", err)
				}
			}

			sessCtx, err := store.Context(ctx)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if len(sessCtx.RecentQueries) != MaxRecentQueries {
				t.Fatalf("expected %d queries, got %d", MaxRecentQueries, len(sessCtx.RecentQueries))
			}
			// Oldest surviving entry should be query 5, newest query 14
			first := sessCtx.RecentQueries[0].Query
			last := sessCtx.RecentQueries[len(sessCtx.RecentQueries)-1].Query
			if first != "query 5" {
				t.Errorf("expected oldest surviving entry 'query 5', got %q", first)
			}
			if last != fmt.Sprintf("query %d", MaxRecentQueries+4) {
				t.Errorf("expected newest entry last, got %q", last)
			}
		})
	}
}

func TestSummaryTruncation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			long := strings.Repeat("a", MaxSummaryChars+100)
			if err := store.AddQuery(ctx, "q", long); err != nil {
				t.Fatalf("AddQuery failed: %v", err)
			}

			sessCtx, err := store.Context(ctx)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if got := len(sessCtx.RecentQueries[0].Summary); got != MaxSummaryChars {
				t.Errorf("expected summary truncated to %d chars, got %d", MaxSummaryChars, got)
			}
		})
	}
}

func TestAddEvidenceDeduplicates(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			refs := []EvidenceRef{
				{FilePath: "auth.go", StartLine: 1, EndLine: 10},
				{FilePath: "auth.go", StartLine: 1, EndLine: 10},
				{FilePath: "auth.go", StartLine: 11, EndLine: 20},
			}
			if err := store.AddEvidence(ctx, refs); err != nil {
				t.Fatalf("AddEvidence failed: %v", err)
			}
			// Second write with an already-seen ref must be idempotent
			if err := store.AddEvidence(ctx, refs[:1]); err != nil {
				t.Fatalf("AddEvidence failed: %v", err)
			}

			sessCtx, err := store.Context(ctx)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if len(sessCtx.EvidenceRefs) != 2 {
				t.Errorf("expected 2 deduplicated refs, got %d: %v",
					len(sessCtx.EvidenceRefs), sessCtx.EvidenceRefs)
			}
		})
	}
}

func TestAddEvidenceCap(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			var refs []EvidenceRef
			for i := 0; i < MaxEvidenceRefs+10; i++ {
				refs = append(refs, EvidenceRef{FilePath: fmt.Sprintf("file%d.go", i)})
			}
			if err := store.AddEvidence(ctx, refs); err != nil {
				t.Fatalf("AddEvidence failed: %v", err)
			}

			sessCtx, err := store.Context(ctx)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if len(sessCtx.EvidenceRefs) != MaxEvidenceRefs {
				t.Errorf("expected %d refs after cap, got %d", MaxEvidenceRefs, len(sessCtx.EvidenceRefs))
			}
		})
	}
}

func TestUpdateSettingsSticks(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			want := Settings{Mode: "patch", Scope: "files-only", Verbose: true}
			if err := store.UpdateSettings(ctx, want); err != nil {
				t.Fatalf("UpdateSettings failed: %v", err)
			}

			sessCtx, err := store.Context(ctx)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if sessCtx.Settings != want {
				t.Errorf("expected settings %+v, got %+v", want, sessCtx.Settings)
			}
		})
	}
}

func TestNewSessionIDLength(t *testing.T) {
	id := NewSessionID()
	if len(id) != 12 {
		t.Errorf("expected 12-char session ID, got %q", id)
	}
	if id == NewSessionID() {
		t.Error("expected distinct session IDs")
	}
}

func TestSqlitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	sessionID := store.SessionID()

	if err := store.AddQuery(ctx, "how does auth work", "token check in auth.go"); err != nil {
		t.Fatalf("AddQuery failed: %v", err)
	}
	if err := store.AddEvidence(ctx, []EvidenceRef{{FilePath: "auth.go", StartLine: 3, EndLine: 5}}); err != nil {
		t.Fatalf("AddEvidence failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	resumed, err := ResumeSqlite(path, sessionID)
	if err != nil {
		t.Fatalf("ResumeSqlite failed: %v", err)
	}
	defer resumed.Close()

	sessCtx, err := resumed.Context(ctx)
	if err != nil {
		t.Fatalf("Context failed: %v", err)
	}
	if len(sessCtx.RecentQueries) != 1 || sessCtx.RecentQueries[0].Query != "how does auth work" {
		t.Errorf("unexpected queries after reopen: %+v", sessCtx.RecentQueries)
	}
	if len(sessCtx.EvidenceRefs) != 1 || sessCtx.EvidenceRefs[0].FilePath != "auth.go" {
		t.Errorf("unexpected evidence after reopen: %+v", sessCtx.EvidenceRefs)
	}
}

func TestResumeUnknownSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	store.Close()

	_, err = ResumeSqlite(path, "does-not-exist")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	first.Close()

	second, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer second.Close()

	ids, err := second.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 sessions, got %v", ids)
	}
}
