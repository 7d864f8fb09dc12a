package hashing

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Engine generates and verifies PBKDF2 password hashes.
//
// The live [ParameterSet] only governs new hashes.  Verification always uses
// the algorithm, iteration count, salt and key length embedded in the stored
// hash, so reconfiguring the engine never invalidates hashes already in
// storage.
//
// # Thread safety
//
// All Engine methods are safe for concurrent use.  The parameter set is
// immutable and replaced with an atomic pointer swap; each Generate call
// reads it exactly once and therefore never sees a partial update.
type Engine struct {
	params   *atomic.Pointer[ParameterSet]
	salts    SaltSource
	registry *Registry
	logger   *slog.Logger
	observer Observer

	maxVerifyIterations uint32
}

// Option customises an [Engine].
type Option func(*Engine)

// WithSaltSource replaces the default crypto/rand backed salt source.
func WithSaltSource(s SaltSource) Option {
	return func(e *Engine) { e.salts = s }
}

// WithRegistry replaces the default key-derivation provider registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the logger used for configuration changes and internal
// failures.  Passwords, salts and keys are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver registers an [Observer] for generate and verify outcomes.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithMaxVerifyIterations makes Verify reject stored hashes whose iteration
// count exceeds n with [ErrIterationLimit], before any key derivation.
// Zero, the default, disables the limit.
func WithMaxVerifyIterations(n uint32) Option {
	return func(e *Engine) { e.maxVerifyIterations = n }
}

// NewEngine creates an Engine that hashes new passwords with params.
// Returns a [*ConfigError] if params violates an invariant.
func NewEngine(params ParameterSet, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		params:   atomic.NewPointer(&params),
		salts:    defaultSaltSource,
		registry: defaultRegistry,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewDefaultEngine creates an Engine with [DefaultParameterSet].
//
//	e, err := hashing.NewDefaultEngine()
//	encoded, _ := e.Generate([]byte("secret"))
func NewDefaultEngine(opts ...Option) (*Engine, error) {
	return NewEngine(DefaultParameterSet(), opts...)
}

// Params returns the parameter set currently used for new hashes.
func (e *Engine) Params() ParameterSet { return *e.params.Load() }

// Algorithm returns the algorithm currently used for new hashes.
func (e *Engine) Algorithm() Algorithm { return e.params.Load().Algorithm }

// Configure applies options on top of the current parameter set and
// installs the result.  Validation is all-or-nothing: when any entry is
// rejected the error is returned and the live parameters are unchanged.
func (e *Engine) Configure(options map[string]string) (ParameterSet, error) {
	for {
		cur := e.params.Load()
		next, err := cur.Apply(options)
		if err != nil {
			return *cur, err
		}
		if e.params.CompareAndSwap(cur, &next) {
			e.logger.Info("pbkdf2 parameters updated",
				"algorithm", next.Algorithm,
				"iterations", next.Iterations,
				"salt_size_bytes", next.SaltSizeBytes,
				"key_size_bytes", next.KeySizeBytes,
			)
			return next, nil
		}
	}
}

// Generate hashes password with the current parameters and returns the
// encoded hash.  A fresh salt is drawn for every call.
//
// The only possible error matches [ErrInternal].
func (e *Engine) Generate(password []byte) (encoded string, err error) {
	p := e.params.Load()
	start := time.Now()
	defer func() { e.observer.ObserveGenerate(p.Algorithm, time.Since(start), err) }()

	salt, err := e.salts.NextSalt(p.SaltSizeBytes)
	if err != nil {
		e.logger.Error("pbkdf2 salt generation failed", "err", err)
		return "", err
	}
	key, err := e.registry.Derive(password, salt, p.Algorithm, p.Iterations, int(p.KeySizeBytes))
	if err != nil {
		e.logger.Error("pbkdf2 key derivation failed", "algorithm", p.Algorithm, "err", err)
		return "", err
	}
	return Encode(EncodedHash{
		algorithm:  p.Algorithm,
		iterations: p.Iterations,
		salt:       salt,
		derivedKey: key,
	}), nil
}

// Verify reports whether password matches encoded.
//
// A wrong password returns (false, nil).  An error is returned only when
// encoded cannot be used: it matches [ErrDecode] for corrupt or unsupported
// records and [ErrInternal] when the algorithm has no provider.
func (e *Engine) Verify(password []byte, encoded string) (matched bool, err error) {
	var alg Algorithm
	start := time.Now()
	defer func() { e.observer.ObserveVerify(alg, time.Since(start), matched, err) }()

	h, err := Decode(encoded)
	if err != nil {
		e.logger.Debug("pbkdf2 hash rejected", "err", err)
		return false, err
	}
	alg = h.algorithm

	if h.iterations == 0 {
		return false, fmt.Errorf("%w: iteration count must be positive", ErrMalformedEncoding)
	}
	if e.maxVerifyIterations > 0 && h.iterations > e.maxVerifyIterations {
		return false, fmt.Errorf("%w: %d > %d", ErrIterationLimit, h.iterations, e.maxVerifyIterations)
	}

	candidate, err := e.registry.Derive(password, h.salt, h.algorithm, h.iterations, len(h.derivedKey))
	if err != nil {
		e.logger.Error("pbkdf2 key derivation failed", "algorithm", h.algorithm, "err", err)
		return false, err
	}
	// ConstantTimeCompare returns 0 straight away on a length mismatch, which
	// cannot happen here: candidate is derived at the stored key's length.
	return subtle.ConstantTimeCompare(candidate, h.derivedKey) == 1, nil
}

// Make is [Engine.Generate] for string passwords.
func (e *Engine) Make(password string) (string, error) {
	return e.Generate([]byte(password))
}

// Check is [Engine.Verify] for string passwords.
func (e *Engine) Check(password, encoded string) (bool, error) {
	return e.Verify([]byte(password), encoded)
}

// NeedsRehash reports whether encoded was produced with an algorithm,
// iteration count, salt size or key size other than the current ones.
// Call it after a successful Verify and persist a fresh Generate result
// when it returns true.
func (e *Engine) NeedsRehash(encoded string) (bool, error) {
	h, err := Decode(encoded)
	if err != nil {
		return false, err
	}
	p := e.params.Load()
	return h.algorithm != p.Algorithm ||
		h.iterations != p.Iterations ||
		len(h.salt) != int(p.SaltSizeBytes) ||
		len(h.derivedKey) != int(p.KeySizeBytes), nil
}

// Info returns the parameters embedded in encoded.
func (e *Engine) Info(encoded string) (HashInfo, error) {
	return ParseInfo(encoded)
}

// ParseInfo decodes encoded and reports its parameters without verifying it.
func ParseInfo(encoded string) (HashInfo, error) {
	h, err := Decode(encoded)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Algorithm:     h.algorithm,
		Iterations:    h.iterations,
		SaltSizeBytes: len(h.salt),
		KeySizeBytes:  len(h.derivedKey),
	}, nil
}

// IsDecodeError reports whether err means the stored record is unusable,
// as opposed to a broken environment.
func IsDecodeError(err error) bool { return errors.Is(err, ErrDecode) }

var _ Hasher = (*Engine)(nil)
