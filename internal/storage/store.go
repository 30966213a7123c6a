// Package storage provides the file-backed persistence layer: a crash-safe
// key→document store and the task document built on top of it.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store defines the interface for a blind, atomic key→document store.
// Documents are JSON files named after their key. The store owns no domain
// semantics and serializes every operation through a single lock.
//
// Persistence here is best-effort durability, not a transactional guarantee:
// I/O failures are reported as boolean results, never as faults.
type Store interface {
	// Save writes the document atomically: full write to a temp file, then a
	// single rename into place. A reader never observes a partial document
	// and a crash mid-write leaves the previous document intact.
	Save(name string, doc any) bool
	// Load reads the document into out and reports whether it was found and
	// decoded. On any failure out is left untouched so callers can pre-fill
	// it with defaults.
	Load(name string, out any) bool
	// Delete removes the document. Deleting a missing document succeeds.
	Delete(name string) bool
	// Exists reports whether a document with the given name is present.
	Exists(name string) bool
	// List returns the names of all stored documents.
	List() []string
}

type fileStore struct {
	dataDir string
	mu      sync.Mutex
	// logf receives store-level failures; defaults to stderr.
	logf func(format string, args ...any)
}

// NewStore creates a Store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string) (Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	return &fileStore{
		dataDir: dataDir,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}, nil
}

func (s *fileStore) filePath(name string) string {
	return filepath.Join(s.dataDir, name+".json")
}

func (s *fileStore) Save(name string, doc any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logf("storage: encoding %s: %v", name, err)
		return false
	}

	path := s.filePath(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logf("storage: writing %s: %v", name, err)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logf("storage: replacing %s: %v", name, err)
		_ = os.Remove(tmp)
		return false
	}
	return true
}

func (s *fileStore) Load(name string, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logf("storage: reading %s: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logf("storage: decoding %s: %v", name, err)
		return false
	}
	return true
}

func (s *fileStore) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath(name)); err != nil && !os.IsNotExist(err) {
		s.logf("storage: deleting %s: %v", name, err)
		return false
	}
	return true
}

func (s *fileStore) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.filePath(name))
	return err == nil
}

func (s *fileStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		s.logf("storage: listing documents: %v", err)
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return names
}
