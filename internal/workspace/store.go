// Package workspace provides sandboxed file storage for one task execution.
// Every path is confined to the store's root; parent directories are created
// on demand and each file is written atomically.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrPathViolation indicates a path would escape the sandbox root.
var ErrPathViolation = errors.New("path escapes sandbox root")

// Operation records one file operation for the store's history.
type Operation struct {
	Kind    string // "write", "read", "list"
	Path    string // sandbox-relative path
	Success bool
	When    time.Time
}

// Stats summarizes the store's operation history.
type Stats struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	ByKind     map[string]int `json:"by_kind"`
}

// Entry describes one item returned by List.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// Store is a file store confined to a single root directory.
type Store struct {
	root string

	mu      sync.Mutex
	history []Operation
}

// NewStore creates the root directory if needed and returns a store over it.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (s *Store) Root() string { return s.root }

// ValidateRelPath checks that a sandbox-relative path is usable: non-empty,
// relative, and free of parent-directory traversal after normalization.
func ValidateRelPath(rel string) error {
	if strings.TrimSpace(rel) == "" {
		return fmt.Errorf("%w: empty path", ErrPathViolation)
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") {
		return fmt.Errorf("%w: absolute path %q", ErrPathViolation, rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: traversal in %q", ErrPathViolation, rel)
	}
	return nil
}

// resolve maps a sandbox-relative path to an absolute path inside the root.
func (s *Store) resolve(rel string) (string, error) {
	if err := ValidateRelPath(rel); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	// Join cleans the path; re-check containment against the root.
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathViolation, rel)
	}
	return full, nil
}

// Write stores content at the sandbox-relative path, creating parent
// directories as needed. The write is atomic per file: content lands in a
// temp file that is renamed into place. Returns the number of bytes written.
func (s *Store) Write(rel, content string) (int, error) {
	full, err := s.resolve(rel)
	if err != nil {
		s.record("write", rel, false)
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		s.record("write", rel, false)
		return 0, fmt.Errorf("create parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".loom-*")
	if err != nil {
		s.record("write", rel, false)
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.record("write", rel, false)
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.record("write", rel, false)
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		s.record("write", rel, false)
		return 0, fmt.Errorf("rename into place: %w", err)
	}

	s.record("write", rel, true)
	return len(content), nil
}

// Read returns the content of the file at the sandbox-relative path.
func (s *Store) Read(rel string) (string, error) {
	full, err := s.resolve(rel)
	if err != nil {
		s.record("read", rel, false)
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		s.record("read", rel, false)
		return "", err
	}
	s.record("read", rel, true)
	return string(data), nil
}

// Exists reports whether a file or directory exists at the path.
func (s *Store) Exists(rel string) bool {
	full, err := s.resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// List returns the entries of the directory at the sandbox-relative path.
// Use "." for the root.
func (s *Store) List(rel string) ([]Entry, error) {
	full, err := s.resolve(rel)
	if err != nil {
		s.record("list", rel, false)
		return nil, err
	}
	items, err := os.ReadDir(full)
	if err != nil {
		s.record("list", rel, false)
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		e := Entry{Name: item.Name(), IsDir: item.IsDir()}
		if info, err := item.Info(); err == nil && !item.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	s.record("list", rel, true)
	return entries, nil
}

// Walk visits every regular file under the root, calling fn with the
// sandbox-relative path. Directories named in skipDirs are not descended.
func (s *Store) Walk(skipDirs []string, fn func(rel string) error) error {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}

func (s *Store) record(kind, path string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Operation{Kind: kind, Path: path, Success: success, When: time.Now()})
}

// History returns a copy of the operation log.
func (s *Store) History() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Operation, len(s.history))
	copy(out, s.history)
	return out
}

// Stats summarizes the operation log.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{ByKind: make(map[string]int)}
	for _, op := range s.history {
		st.Total++
		if op.Success {
			st.Successful++
		} else {
			st.Failed++
		}
		st.ByKind[op.Kind]++
	}
	return st
}
