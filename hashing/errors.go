package hashing

import (
	"errors"
	"fmt"
)

// Category errors.  Every error returned by this package matches exactly one
// of them through [errors.Is].
var (
	// ErrConfig is the category of errors returned while building or
	// updating a [ParameterSet].
	ErrConfig = errors.New("hashing: configuration error")

	// ErrDecode is the category of errors returned when an encoded hash
	// cannot be used for verification.  Callers should treat it as "credential
	// record corrupt", which is distinct from "password incorrect".
	ErrDecode = errors.New("hashing: decode error")

	// ErrInternal signals a broken environment: an algorithm that this
	// package accepts has no key-derivation provider, or the entropy source
	// failed.  It is never caused by user input and is never retried.
	ErrInternal = errors.New("hashing: internal error")
)

// Sentinel errors returned by hashing operations.
//
// Use [errors.Is] for comparisons:
//
//	ok, err := engine.Verify(password, stored)
//	if errors.Is(err, hashing.ErrMalformedEncoding) {
//	    // stored hash is corrupt
//	}
var (
	// ErrUnrecognizedParameter is returned when a configuration key is not
	// one of Algorithm, Iterations, SaltSizeBytes or KeySizeBytes.
	ErrUnrecognizedParameter = fmt.Errorf("%w: unrecognized parameter", ErrConfig)

	// ErrInvalidAlgorithm is returned when the Algorithm option is not one of
	// the supported PBKDF2 variants.
	ErrInvalidAlgorithm = fmt.Errorf("%w: invalid algorithm", ErrConfig)

	// ErrInvalidParameterValue is returned when a numeric option does not
	// parse or falls below its minimum.
	ErrInvalidParameterValue = fmt.Errorf("%w: invalid parameter value", ErrConfig)

	// ErrMalformedEncoding is returned when an encoded hash does not have the
	// <algorithm>:<iterations>:<salt>:<key> shape or carries bad fields.
	ErrMalformedEncoding = fmt.Errorf("%w: malformed encoding", ErrDecode)

	// ErrUnsupportedAlgorithm is returned when an encoded hash names an
	// algorithm outside the supported set.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported algorithm", ErrDecode)

	// ErrIterationLimit is returned by [Engine.Verify] when a stored hash
	// asks for more iterations than allowed by [WithMaxVerifyIterations].
	ErrIterationLimit = fmt.Errorf("%w: iteration count exceeds limit", ErrDecode)

	// ErrNilProvider is returned by [Registry.Register] when a nil hash
	// constructor is supplied.
	ErrNilProvider = errors.New("hashing: provider must not be nil")
)

// ConfigError describes a rejected configuration entry.
//
//	_, err := hashing.ParseParameterSet(map[string]string{"Iterations": "10"})
//	var cerr *hashing.ConfigError
//	if errors.As(err, &cerr) {
//	    fmt.Println(cerr.Key) // Iterations
//	}
type ConfigError struct {
	// Key is the option name as supplied by the caller.
	Key string
	// Value is the rejected option value.
	Value string
	// Err is one of ErrUnrecognizedParameter, ErrInvalidAlgorithm or
	// ErrInvalidParameterValue.
	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnrecognizedParameter):
		return fmt.Sprintf("%v %q", e.Err, e.Key)
	case e.Key == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%v for %s: %q", e.Err, e.Key, e.Value)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }
