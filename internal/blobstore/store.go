// Package blobstore hands out transient blob URLs for documents held in memory.
package blobstore

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/jobai-assistant/internal/types"
)

// Prefix starts every URL the store creates.
const Prefix = "blob:jobai/"

// Store maps blob URLs to documents. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]*types.Document
}

// New returns an empty store.
func New() *Store {
	return &Store{blobs: make(map[string]*types.Document)}
}

// Create registers doc and returns a fresh blob URL for it.
func (s *Store) Create(doc *types.Document) string {
	url := Prefix + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string]*types.Document)
	}
	s.blobs[url] = doc
	return url
}

// Get returns the document behind url.
func (s *Store) Get(url string) (*types.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.blobs[url]
	return doc, ok
}

// Revoke releases url. It reports whether the URL was live.
func (s *Store) Revoke(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[url]; !ok {
		return false
	}
	delete(s.blobs, url)
	return true
}

// Len returns the number of live URLs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// IsBlobURL reports whether url has the shape of a store URL.
func IsBlobURL(url string) bool {
	if !strings.HasPrefix(url, Prefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(url, Prefix))
	return err == nil
}
