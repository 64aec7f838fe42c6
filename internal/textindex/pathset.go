// Radix-tree path set for repository file lookups.
//
// Information Hiding:
// - go-radix tree wrapped behind a string-set API
package textindex

import (
	"github.com/armon/go-radix"
)

// PathSet holds slash-separated file paths in a compressed prefix tree,
// giving O(k) membership checks and sorted prefix walks without a
// per-query scan of the whole file list.
type PathSet struct {
	tree *radix.Tree
	size int
}

// NewPathSet returns an empty path set.
func NewPathSet() *PathSet {
	return &PathSet{tree: radix.New()}
}

// Add inserts path into the set. Re-adding an existing path is a no-op.
func (s *PathSet) Add(path string) {
	_, updated := s.tree.Insert(path, struct{}{})
	if !updated {
		s.size++
	}
}

// Contains reports whether path is in the set.
func (s *PathSet) Contains(path string) bool {
	_, found := s.tree.Get(path)
	return found
}

// WithPrefix returns every path starting with prefix, in lexicographic
// order. An empty prefix returns all paths.
func (s *PathSet) WithPrefix(prefix string) []string {
	var paths []string
	s.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		paths = append(paths, k)
		return false
	})
	return paths
}

// Len returns the number of paths in the set.
func (s *PathSet) Len() int {
	return s.size
}
