package tags

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Document is the on-disk tag file.
type Document struct {
	AllTags  []string            `json:"all_tags"`
	Sessions map[string][]string `json:"sessions"`
	Targets  map[string][]string `json:"targets"`
}

func emptyDocument() Document {
	return Document{
		AllTags:  []string{},
		Sessions: map[string][]string{},
		Targets:  map[string][]string{},
	}
}

// SessionTags returns the tags attached to a session folder.
func (d Document) SessionTags(sessionID string) []string {
	return d.Sessions[sessionID]
}

// Store reads and rewrites a JSON tag file. Every mutation is a full
// read-modify-write under one lock.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// AddToTargets adds tag to every target (image or session path).
func (s *Store) AddToTargets(tag string, targets []string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Document{}, err
	}
	for _, target := range targets {
		doc.Targets[target] = union(doc.Targets[target], tag)
	}
	if err := s.write(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RemoveFromSession discards tag from a session. Missing tags are a no-op.
func (s *Store) RemoveFromSession(sessionID, tag string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Document{}, err
	}
	remaining := make([]string, 0, len(doc.Sessions[sessionID]))
	for _, t := range doc.Sessions[sessionID] {
		if t != tag {
			remaining = append(remaining, t)
		}
	}
	doc.Sessions[sessionID] = remaining
	if err := s.write(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Store) read() (Document, error) {
	doc := emptyDocument()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return Document{}, fmt.Errorf("read tags %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse tags %s: %w", s.path, err)
	}
	if doc.AllTags == nil {
		doc.AllTags = []string{}
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string][]string{}
	}
	if doc.Targets == nil {
		doc.Targets = map[string][]string{}
	}
	return doc, nil
}

func (s *Store) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create tags dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func union(existing []string, tag string) []string {
	set := make(map[string]struct{}, len(existing)+1)
	for _, t := range existing {
		set[t] = struct{}{}
	}
	set[tag] = struct{}{}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
