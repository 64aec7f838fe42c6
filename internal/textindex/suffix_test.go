package textindex

import (
	"strings"
	"testing"
)

func TestContainsMatchesStringsContains(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	idx := New(text)

	patterns := []string{"the", "quick", "lazy dog", "fox j", "dog", "t", "", "cat", "dogs", "the quick brown fox jumps over the lazy dog!"}
	for _, p := range patterns {
		want := strings.Contains(text, p)
		if got := idx.Contains(p); got != want {
			t.Errorf("Contains(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestContainsRejectsTailPrefixOfPattern(t *testing.T) {
	// The text ending in a proper prefix of the pattern must not match:
	// a suffix shorter than the pattern cannot contain it.
	idx := New("hello wo")
	if idx.Contains("world") {
		t.Error(`Contains("world") over "hello wo" must be false`)
	}
	if !idx.Contains("wo") {
		t.Error(`Contains("wo") over "hello wo" must be true`)
	}

	if New("aaaa").Contains("aaaaa") {
		t.Error("pattern longer than the text must not match")
	}
}

func TestContainsExhaustiveAgainstStrings(t *testing.T) {
	text := "abracadabra"
	idx := New(text)

	// Every substring of the text plus each of them extended by one byte,
	// checked against the stdlib answer.
	for i := 0; i < len(text); i++ {
		for j := i + 1; j <= len(text); j++ {
			sub := text[i:j]
			for _, p := range []string{sub, sub + "a", sub + "z"} {
				want := strings.Contains(text, p)
				if got := idx.Contains(p); got != want {
					t.Fatalf("Contains(%q) = %v, want %v", p, got, want)
				}
			}
		}
	}
}

func TestEmptyText(t *testing.T) {
	idx := New("")

	if idx.Contains("a") {
		t.Error("empty text should not contain anything")
	}
	if !idx.Contains("") {
		t.Error("empty pattern should match even empty text")
	}
}

func TestOverlappingOccurrences(t *testing.T) {
	idx := New("banana")

	for _, p := range []string{"ana", "nana", "banana", "an"} {
		if !idx.Contains(p) {
			t.Errorf("expected %q in banana", p)
		}
	}
	if idx.Contains("bananas") {
		t.Error("bananas should not match")
	}
}

func TestLongRepetitiveText(t *testing.T) {
	// Stress the rank-doubling tie-breaking with a highly repetitive input.
	text := strings.Repeat("ab", 500) + "c"
	idx := New(text)

	if !idx.Contains("abab") {
		t.Error("expected abab in repeated text")
	}
	if !idx.Contains("abc") {
		t.Error("expected abc at the seam")
	}
	if idx.Contains("ac") {
		t.Error("ac should not occur")
	}
	if idx.Contains("abcab") {
		t.Error("abcab extends past the end and must not match")
	}
}
