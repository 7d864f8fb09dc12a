package hashing

import "time"

// Hasher is the interface satisfied by [*Engine].  Callers that only need
// to hash and verify should depend on it rather than on the concrete type.
//
// All implementations must be safe for concurrent use by multiple goroutines.
type Hasher interface {
	// Generate hashes password and returns the encoded hash string.
	// A fresh random salt is drawn for every call, so two calls with the
	// same password produce different outputs.
	Generate(password []byte) (string, error)

	// Verify reports whether password matches the encoded hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or
	// (false, err) if the hash cannot be decoded.
	//
	// Comparison is performed in constant time.
	Verify(password []byte, encoded string) (bool, error)

	// NeedsRehash returns true when the encoded hash was produced with
	// parameters that differ from the current configuration.
	NeedsRehash(encoded string) (bool, error)

	// Info extracts the parameters embedded in an encoded hash without
	// verifying it.
	Info(encoded string) (HashInfo, error)

	// Algorithm returns the algorithm used for new hashes.
	Algorithm() Algorithm
}

// HashInfo carries the parameters parsed from an encoded hash string.
type HashInfo struct {
	Algorithm     Algorithm
	Iterations    uint32
	SaltSizeBytes int
	KeySizeBytes  int
}

// Observer receives the outcome of every Generate and Verify call.  It is
// the hook used by the metrics package; implementations must be cheap and
// safe for concurrent use.
//
// alg is empty when Verify failed before the algorithm was known.
type Observer interface {
	ObserveGenerate(alg Algorithm, elapsed time.Duration, err error)
	ObserveVerify(alg Algorithm, elapsed time.Duration, matched bool, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveGenerate(Algorithm, time.Duration, error)      {}
func (nopObserver) ObserveVerify(Algorithm, time.Duration, bool, error) {}
