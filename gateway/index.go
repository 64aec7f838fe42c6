// In-memory repository index backing the Gateway interface.
//
// Ingestion walks the repository once, splits every text file into
// line-based chunks with a small overlap, and builds a case-folded
// suffix array per chunk plus a radix-tree path set, so searches and
// path lookups avoid rescanning raw text. Good enough for the
// repositories this tool targets; the interface leaves room for a real
// search backend later.

package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinex/repoassist/internal/textindex"
)

// Chunking defaults, line-oriented.
const (
	chunkMaxLines     = 40
	chunkMinLines     = 10
	chunkOverlapLines = 5

	snippetMaxChars = 200
)

var ignoreDirs = map[string]bool{
	"node_modules": true, ".git": true, ".venv": true, "venv": true,
	"__pycache__": true, "build": true, "dist": true, ".next": true,
	"coverage": true, ".pytest_cache": true, "vendor": true,
}

var ignoreExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".lock": true,
	".pyc": true, ".pyo": true, ".class": true, ".jar": true,
}

type fileRecord struct {
	Path        string
	Extension   string
	SizeBytes   int64
	ContentHash string
	NumLines    int
}

type chunk struct {
	ID        string
	Path      string
	StartLine int
	EndLine   int
	Text      string

	// search indexes the lowercased chunk text.
	search *textindex.SuffixArray
}

// Index is an in-memory Gateway implementation over a local repository.
type Index struct {
	repoPath string
	files    []fileRecord
	chunks   []chunk
	paths    *textindex.PathSet
	issues   []Issue
	prs      []PullRequest
}

// NewIndex walks and ingests the repository at repoPath.
func NewIndex(repoPath string) (*Index, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repo path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("repository path does not exist: %s", repoPath)
	}

	idx := &Index{repoPath: abs, paths: textindex.NewPathSet()}
	if err := idx.ingest(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *Index) ingest() error {
	chunkCounter := 0

	err := filepath.WalkDir(x.repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			if path != x.repoPath && (ignoreDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || ignoreExtensions[filepath.Ext(name)] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil // skip files that cannot be read
		}

		rel, err := filepath.Rel(x.repoPath, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		hash := sha256.Sum256(content)
		lines := splitLines(string(content))

		x.paths.Add(rel)
		x.files = append(x.files, fileRecord{
			Path:        rel,
			Extension:   filepath.Ext(name),
			SizeBytes:   int64(len(content)),
			ContentHash: hex.EncodeToString(hash[:])[:16],
			NumLines:    len(lines),
		})

		fileChunks := chunkLines(rel, lines, chunkCounter)
		x.chunks = append(x.chunks, fileChunks...)
		chunkCounter += len(fileChunks)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk repository: %w", err)
	}
	return nil
}

// splitLines splits content into lines, keeping line terminators so that
// chunk text round-trips exactly.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	// SplitAfter leaves a trailing empty element when content ends in \n.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// chunkLines splits a file into overlapping line-range chunks.
// Small files become a single chunk.
func chunkLines(path string, lines []string, idStart int) []chunk {
	numLines := len(lines)
	if numLines == 0 {
		return nil
	}

	if numLines <= chunkMinLines {
		text := strings.Join(lines, "")
		return []chunk{{
			ID:        fmt.Sprintf("chunk_%05d", idStart),
			Path:      path,
			StartLine: 1,
			EndLine:   numLines,
			Text:      text,
			search:    textindex.New(strings.ToLower(text)),
		}}
	}

	var chunks []chunk
	id := idStart
	start := 0
	for start < numLines {
		end := start + chunkMaxLines
		if end > numLines {
			end = numLines
		}
		text := strings.Join(lines[start:end], "")
		chunks = append(chunks, chunk{
			ID:        fmt.Sprintf("chunk_%05d", id),
			Path:      path,
			StartLine: start + 1,
			EndLine:   end,
			Text:      text,
			search:    textindex.New(strings.ToLower(text)),
		})
		id++
		if end >= numLines {
			break
		}
		start = end - chunkOverlapLines
	}
	return chunks
}

// Search finds chunks whose text contains the query, case-insensitive.
// Each chunk carries a suffix array over its folded text, so the scan
// per chunk is O(m log n) rather than a full substring pass.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]SearchMatch, error) {
	if topK <= 0 {
		topK = 10
	}
	queryLower := strings.ToLower(query)

	var matches []SearchMatch
	for _, c := range x.chunks {
		if !c.search.Contains(queryLower) {
			continue
		}
		matches = append(matches, SearchMatch{
			ChunkID:   c.ID,
			Path:      c.Path,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Snippet:   truncateSnippet(c.Text),
			FullText:  c.Text,
		})
		if len(matches) >= topK {
			break
		}
	}
	return matches, nil
}

func truncateSnippet(text string) string {
	if len(text) > snippetMaxChars {
		return text[:snippetMaxChars] + "..."
	}
	return text
}

// ReadFile reads a file or 1-indexed inclusive line range from disk.
// Only paths seen during ingestion are served, so ignored and
// out-of-tree files stay unreachable.
func (x *Index) ReadFile(ctx context.Context, path string, startLine, endLine int) (FileContent, error) {
	if !x.paths.Contains(path) {
		return FileContent{}, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}

	content, err := os.ReadFile(filepath.Join(x.repoPath, filepath.FromSlash(path)))
	if err != nil {
		return FileContent{}, fmt.Errorf("read %s: %w", path, err)
	}

	lines := splitLines(string(content))
	total := len(lines)

	actualStart, actualEnd := 1, total
	text := string(content)
	if startLine > 0 && endLine > 0 {
		startIdx := startLine - 1
		if startIdx < 0 {
			startIdx = 0
		}
		endIdx := endLine
		if endIdx > total {
			endIdx = total
		}
		if startIdx > endIdx {
			startIdx = endIdx
		}
		text = strings.Join(lines[startIdx:endIdx], "")
		actualStart = startLine
		actualEnd = endIdx
	}

	return FileContent{
		Path:       path,
		StartLine:  actualStart,
		EndLine:    actualEnd,
		Text:       text,
		TotalLines: total,
		Extension:  filepath.Ext(path),
	}, nil
}

// ListFiles lists indexed paths filtered by prefix and extensions.
// The radix walk already yields paths in sorted order.
func (x *Index) ListFiles(ctx context.Context, pathPrefix string, extensions []string) ([]string, error) {
	candidates := x.paths.WithPrefix(pathPrefix)
	if len(extensions) == 0 {
		return candidates, nil
	}
	var paths []string
	for _, p := range candidates {
		if hasAnySuffix(p, extensions) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// Stats returns counts describing the indexed repository.
func (x *Index) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		RepoPath:    x.repoPath,
		TotalFiles:  len(x.files),
		TotalChunks: len(x.chunks),
		TotalIssues: len(x.issues),
		TotalPRs:    len(x.prs),
	}, nil
}

// SetIssues replaces the tracker issue records served by this index.
func (x *Index) SetIssues(issues []Issue) {
	x.issues = issues
}

// SetPullRequests replaces the tracker PR records served by this index.
func (x *Index) SetPullRequests(prs []PullRequest) {
	x.prs = prs
}

// trackerExport is the on-disk shape of a tracker snapshot.
type trackerExport struct {
	Issues       []Issue       `json:"issues"`
	PullRequests []PullRequest `json:"pull_requests"`
}

// LoadTrackerExport loads issue/PR records from a JSON snapshot file.
// Network fetching is deliberately out of scope; snapshots are produced
// by external tooling.
func (x *Index) LoadTrackerExport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tracker export: %w", err)
	}
	var export trackerExport
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("parse tracker export: %w", err)
	}
	x.issues = export.Issues
	x.prs = export.PullRequests
	return nil
}

// Issues returns issues filtered by query text, state and limit.
func (x *Index) Issues(ctx context.Context, query, state string, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = 10
	}
	var results []Issue
	for _, issue := range x.issues {
		if !matchesState(issue.State, state) || !matchesQuery(issue.Title, issue.Body, query) {
			continue
		}
		results = append(results, issue)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// PullRequests returns PRs filtered by query text, state and limit.
func (x *Index) PullRequests(ctx context.Context, query, state string, limit int) ([]PullRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	var results []PullRequest
	for _, pr := range x.prs {
		if !matchesState(pr.State, state) || !matchesQuery(pr.Title, pr.Body, query) {
			continue
		}
		results = append(results, pr)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func matchesState(recordState, wanted string) bool {
	return wanted == "" || wanted == "all" || recordState == wanted
}

func matchesQuery(title, body, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(body), q)
}

// Verify Index implements Gateway
var _ Gateway = (*Index)(nil)
