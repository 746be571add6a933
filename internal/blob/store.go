// Package blob keeps locally created preview handles for binary content.
package blob

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const handlePrefix = "blob:"

// Handle is an opaque, revocable reference to stored content.
type Handle string

// Blob is stored content plus its detected MIME type.
type Blob struct {
	Data []byte
	MIME string
}

// Store owns preview content until the creator revokes the handle.
type Store struct {
	mu    sync.Mutex
	blobs map[Handle]Blob
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[Handle]Blob)}
}

// Create stores data and returns a fresh handle.
func (s *Store) Create(data []byte, mime string) Handle {
	h := Handle(handlePrefix + uuid.NewString())
	s.mu.Lock()
	s.blobs[h] = Blob{Data: data, MIME: mime}
	s.mu.Unlock()
	return h
}

// Get returns the content for h, or false once it has been revoked.
func (s *Store) Get(h Handle) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[h]
	return b, ok
}

// Revoke releases h. Revoking an empty or unknown handle is a no-op.
func (s *Store) Revoke(h Handle) {
	if h == "" {
		return
	}
	s.mu.Lock()
	delete(s.blobs, h)
	s.mu.Unlock()
}

// Live returns the number of handles not yet revoked.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Valid reports whether h has the handle shape produced by Create.
func (h Handle) Valid() bool {
	return strings.HasPrefix(string(h), handlePrefix)
}
