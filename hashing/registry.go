package hashing

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// Provider constructs the HMAC hash that drives a PBKDF2 variant.
type Provider func() hash.Hash

// Registry maps each supported [Algorithm] to the [Provider] that implements
// it.  It is the runtime counterpart of [SupportedAlgorithms]: configuration
// may name an algorithm only the registry can actually execute, and a
// missing entry is reported as [ErrInternal] rather than as bad input.
//
// # Thread safety
//
// All Registry methods are safe for concurrent use by multiple goroutines.
// A [sync.RWMutex] serialises Register while allowing concurrent lookups.
type Registry struct {
	mu        sync.RWMutex
	providers map[Algorithm]Provider
}

// NewRegistry creates an empty Registry.  Providers must be registered with
// [Registry.Register] before any derivation is attempted.
//
// Use [NewDefaultRegistry] for the variant backed by the standard library's
// SHA-2 implementations.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Algorithm]Provider)}
}

// NewDefaultRegistry creates a Registry with all four supported algorithms
// bound to crypto/sha256 and crypto/sha512.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(PBKDF2WithHmacSHA224, sha256.New224)
	_ = r.Register(PBKDF2WithHmacSHA256, sha256.New)
	_ = r.Register(PBKDF2WithHmacSHA384, sha512.New384)
	_ = r.Register(PBKDF2WithHmacSHA512, sha512.New)
	return r
}

var defaultRegistry = NewDefaultRegistry()

// Register adds or replaces the provider for alg.  It is safe to call
// Register while other goroutines derive keys through the Registry, which
// allows swapping in a hardware-backed or FIPS-validated hash.
func (r *Registry) Register(alg Algorithm, p Provider) error {
	if !alg.Supported() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	if p == nil {
		return ErrNilProvider
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[alg] = p
	return nil
}

// Provider returns the provider registered for alg, or an error matching
// [ErrInternal] when none is registered.
func (r *Registry) Provider(alg Algorithm) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[alg]
	if !ok {
		return nil, fmt.Errorf("%w: no key-derivation provider for %q", ErrInternal, alg)
	}
	return p, nil
}

// Has reports whether a provider is registered for alg.
func (r *Registry) Has(alg Algorithm) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[alg]
	return ok
}

// Derive runs PBKDF2 and returns keyLen bytes.  The output depends only on
// its arguments, so the same inputs always yield the same key.
func (r *Registry) Derive(password, salt []byte, alg Algorithm, iterations uint32, keyLen int) ([]byte, error) {
	p, err := r.Provider(alg)
	if err != nil {
		return nil, err
	}
	return pbkdf2.Key(password, salt, int(iterations), keyLen, p), nil
}
