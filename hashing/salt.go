package hashing

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// SaltSource produces cryptographically strong random salts.
//
// Implementations must be safe for concurrent use and must never hand the
// same or correlated output to two callers.
type SaltSource interface {
	NextSalt(size uint32) ([]byte, error)
}

// ReaderSaltSource draws salts from an [io.Reader].  Reads are serialised by
// a mutex, so a single reader can be shared by every goroutine.
type ReaderSaltSource struct {
	mu sync.Mutex
	r  io.Reader
}

// NewSaltSource wraps r.  r must be a cryptographically secure source such
// as crypto/rand.Reader.
func NewSaltSource(r io.Reader) *ReaderSaltSource {
	return &ReaderSaltSource{r: r}
}

var defaultSaltSource = NewSaltSource(rand.Reader)

// NextSalt returns size random bytes.  A short read is reported as
// [ErrInternal]: the process cannot safely hash without entropy.
func (s *ReaderSaltSource) NextSalt(size uint32) ([]byte, error) {
	b := make([]byte, size)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %v", ErrInternal, err)
	}
	return b, nil
}
