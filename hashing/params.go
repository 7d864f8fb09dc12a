package hashing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	// DefaultAlgorithm is the PBKDF2 variant used when none is configured.
	DefaultAlgorithm = PBKDF2WithHmacSHA256

	// DefaultIterations is the PBKDF2 round count used when none is configured.
	DefaultIterations uint32 = 2048

	// DefaultSaltSizeBytes is the default random salt length (256 bits).
	DefaultSaltSizeBytes uint32 = 32

	// DefaultKeySizeBytes is the default derived key length (256 bits).
	DefaultKeySizeBytes uint32 = 32

	// MinIterations is the lowest accepted Iterations value.
	MinIterations uint32 = 1024

	// MinSaltSizeBytes is the lowest accepted SaltSizeBytes value (128 bits).
	MinSaltSizeBytes uint32 = 16

	// MinKeySizeBytes is the lowest accepted KeySizeBytes value (128 bits).
	MinKeySizeBytes uint32 = 16
)

// Option keys understood by [ParameterSet.Apply].
const (
	KeyAlgorithm     = "Algorithm"
	KeyIterations    = "Iterations"
	KeySaltSizeBytes = "SaltSizeBytes"
	KeyKeySizeBytes  = "KeySizeBytes"
)

// QualifiedKeyPrefix qualifies option keys in Java identity-store definitions,
// e.g. "Pbkdf2PasswordHash.Iterations".
const QualifiedKeyPrefix = "Pbkdf2PasswordHash."

// ParameterSet is the validated configuration that governs new hashes.
//
// The minima are declared as validation tags; the field names double as the
// option keys accepted by [ParameterSet.Apply].
type ParameterSet struct {
	Algorithm     Algorithm `validate:"pbkdf2alg"`
	Iterations    uint32    `validate:"gte=1024"`
	SaltSizeBytes uint32    `validate:"gte=16"`
	KeySizeBytes  uint32    `validate:"gte=16"`
}

// DefaultParameterSet returns the recommended parameters:
// PBKDF2WithHmacSHA256, 2048 iterations, 32-byte salt, 32-byte key.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{
		Algorithm:     DefaultAlgorithm,
		Iterations:    DefaultIterations,
		SaltSizeBytes: DefaultSaltSizeBytes,
		KeySizeBytes:  DefaultKeySizeBytes,
	}
}

// ParseParameterSet applies options on top of [DefaultParameterSet].
func ParseParameterSet(options map[string]string) (ParameterSet, error) {
	return DefaultParameterSet().Apply(options)
}

// Apply returns a copy of p with options applied and validated.
//
// Recognised keys are Algorithm, Iterations, SaltSizeBytes and KeySizeBytes,
// optionally qualified as "Pbkdf2PasswordHash.<key>".  Entries are processed
// in key order and the first rejected entry is returned as a [*ConfigError];
// p itself is never modified, so a failed call has no effect.
func (p ParameterSet) Apply(options map[string]string) (ParameterSet, error) {
	next := p
	keys := lo.Keys(options)
	sort.Strings(keys)
	for _, key := range keys {
		value := options[key]
		switch strings.TrimPrefix(key, QualifiedKeyPrefix) {
		case KeyAlgorithm:
			next.Algorithm = Algorithm(value)
			if !next.Algorithm.Supported() {
				return p, &ConfigError{Key: key, Value: value, Err: ErrInvalidAlgorithm}
			}
		case KeyIterations:
			if err := parseSize(key, value, MinIterations, &next.Iterations); err != nil {
				return p, err
			}
		case KeySaltSizeBytes:
			if err := parseSize(key, value, MinSaltSizeBytes, &next.SaltSizeBytes); err != nil {
				return p, err
			}
		case KeyKeySizeBytes:
			if err := parseSize(key, value, MinKeySizeBytes, &next.KeySizeBytes); err != nil {
				return p, err
			}
		default:
			return p, &ConfigError{Key: key, Value: value, Err: ErrUnrecognizedParameter}
		}
	}
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}

// Validate checks every invariant of p and reports the first violation as a
// [*ConfigError] keyed by the field name.
func (p ParameterSet) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	fe := fieldErrs[0]
	cerr := &ConfigError{Key: fe.Field(), Value: fmt.Sprint(fe.Value()), Err: ErrInvalidParameterValue}
	if fe.Field() == KeyAlgorithm {
		cerr.Err = ErrInvalidAlgorithm
	}
	return cerr
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("%s iterations=%d salt=%dB key=%dB",
		p.Algorithm, p.Iterations, p.SaltSizeBytes, p.KeySizeBytes)
}

func parseSize(key, value string, minimum uint32, dst *uint32) error {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil || uint32(n) < minimum {
		return &ConfigError{Key: key, Value: value, Err: ErrInvalidParameterValue}
	}
	*dst = uint32(n)
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("pbkdf2alg", func(fl validator.FieldLevel) bool {
		return Algorithm(fl.Field().String()).Supported()
	})
	if err != nil {
		panic("hashing: register pbkdf2alg validation: " + err.Error())
	}
	return v
}
