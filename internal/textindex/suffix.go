// Suffix array over chunk text for substring search.
//
// Information Hiding:
// - Prefix-doubling construction hidden behind New
// - Suffix ordering and binary search bounds hidden
package textindex

import (
	"sort"
)

// SuffixArray answers substring queries over a fixed text in
// O(m log n) time, m being the pattern length and n the text length.
// The text is matched byte-for-byte; callers wanting case-insensitive
// search fold both text and pattern before use.
type SuffixArray struct {
	text string
	sa   []int // sa[i] = start of the i-th smallest suffix
}

// New builds a suffix array for text using prefix doubling, O(n log^2 n).
func New(text string) *SuffixArray {
	n := len(text)
	idx := &SuffixArray{text: text}
	if n == 0 {
		return idx
	}

	idx.sa = make([]int, n)
	rank := make([]int, n)
	for i := 0; i < n; i++ {
		idx.sa[i] = i
		rank[i] = int(text[i])
	}

	next := make([]int, n)
	for k := 1; k < n; k *= 2 {
		rankAt := func(pos int) int {
			if pos < n {
				return rank[pos]
			}
			return -1
		}

		// Order suffixes by their (first k bytes, next k bytes) rank pair.
		sort.Slice(idx.sa, func(i, j int) bool {
			a, b := idx.sa[i], idx.sa[j]
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a+k) < rankAt(b+k)
		})

		next[idx.sa[0]] = 0
		for i := 1; i < n; i++ {
			prev, curr := idx.sa[i-1], idx.sa[i]
			next[curr] = next[prev]
			if rank[prev] != rank[curr] || rankAt(prev+k) != rankAt(curr+k) {
				next[curr]++
			}
		}
		copy(rank, next)

		// All ranks distinct: the order is final.
		if rank[idx.sa[n-1]] == n-1 {
			break
		}
	}

	return idx
}

// Contains reports whether pattern occurs anywhere in the text.
// The empty pattern matches everything, mirroring strings.Contains.
func (x *SuffixArray) Contains(pattern string) bool {
	if pattern == "" {
		return true
	}
	lo, hi := x.bounds(pattern)
	return lo < hi
}

// bounds binary-searches the half-open run of suffixes prefixed by
// pattern. A suffix shorter than the pattern cannot contain it, so the
// truncated comparisons are strict on both sides: a suffix that is a
// proper prefix of the pattern sorts below the run, not inside it.
func (x *SuffixArray) bounds(pattern string) (int, int) {
	n := len(x.sa)
	m := len(pattern)

	lo := sort.Search(n, func(i int) bool {
		suffix := x.text[x.sa[i]:]
		if len(suffix) < m {
			return suffix > pattern[:len(suffix)]
		}
		return suffix[:m] >= pattern
	})
	hi := sort.Search(n, func(i int) bool {
		suffix := x.text[x.sa[i]:]
		if len(suffix) < m {
			return suffix > pattern[:len(suffix)]
		}
		return suffix[:m] > pattern
	})
	return lo, hi
}
