// In-memory session store.
//
// Information Hiding:
// - Slice storage hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package session

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-process slices.
// Data is lost when the process terminates.
type MemoryStore struct {
	mu        sync.RWMutex
	sessionID string
	queries   []QueryRecord
	evidence  []EvidenceRef
	settings  Settings
}

// NewMemoryStore creates a new in-memory store with a fresh session ID.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessionID: NewSessionID()}
}

// SessionID returns the session identifier.
func (s *MemoryStore) SessionID() string {
	return s.sessionID
}

// AddQuery appends a query/summary pair, keeping the cap.
func (s *MemoryStore) AddQuery(ctx context.Context, query, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, QueryRecord{
		Query:     query,
		Summary:   truncateSummary(summary),
		Timestamp: nowUTC(),
	})
	if len(s.queries) > MaxRecentQueries {
		s.queries = s.queries[len(s.queries)-MaxRecentQueries:]
	}
	return nil
}

// AddEvidence appends file refs, deduplicating by natural key.
func (s *MemoryStore) AddEvidence(ctx context.Context, refs []EvidenceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[[3]any]bool, len(s.evidence))
	for _, e := range s.evidence {
		seen[refKey(e)] = true
	}
	for _, ref := range refs {
		key := refKey(ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		s.evidence = append(s.evidence, ref)
	}
	if len(s.evidence) > MaxEvidenceRefs {
		s.evidence = s.evidence[len(s.evidence)-MaxEvidenceRefs:]
	}
	return nil
}

// Context returns a copy of the current session view.
func (s *MemoryStore) Context(ctx context.Context) (Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queries := make([]QueryRecord, len(s.queries))
	copy(queries, s.queries)
	evidence := make([]EvidenceRef, len(s.evidence))
	copy(evidence, s.evidence)

	return Context{
		SessionID:     s.sessionID,
		RecentQueries: queries,
		EvidenceRefs:  evidence,
		Settings:      s.settings,
	}, nil
}

// UpdateSettings persists sticky user preferences.
func (s *MemoryStore) UpdateSettings(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return nil
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
