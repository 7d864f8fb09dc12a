package hashing

import (
	"strings"

	"github.com/samber/lo"
)

// Algorithm names a PBKDF2 variant.  The names are the standard JCA names so
// that hashes are interchangeable with Java identity stores.
type Algorithm string

const (
	// PBKDF2WithHmacSHA224 selects PBKDF2 with HMAC-SHA-224.
	PBKDF2WithHmacSHA224 Algorithm = "PBKDF2WithHmacSHA224"
	// PBKDF2WithHmacSHA256 selects PBKDF2 with HMAC-SHA-256 (the default).
	PBKDF2WithHmacSHA256 Algorithm = "PBKDF2WithHmacSHA256"
	// PBKDF2WithHmacSHA384 selects PBKDF2 with HMAC-SHA-384.
	PBKDF2WithHmacSHA384 Algorithm = "PBKDF2WithHmacSHA384"
	// PBKDF2WithHmacSHA512 selects PBKDF2 with HMAC-SHA-512.
	PBKDF2WithHmacSHA512 Algorithm = "PBKDF2WithHmacSHA512"
)

var supportedAlgorithms = []Algorithm{
	PBKDF2WithHmacSHA224,
	PBKDF2WithHmacSHA256,
	PBKDF2WithHmacSHA384,
	PBKDF2WithHmacSHA512,
}

// SupportedAlgorithms returns the algorithms accepted by configuration and
// by [Decode], in ascending digest size.
func SupportedAlgorithms() []Algorithm {
	return append([]Algorithm(nil), supportedAlgorithms...)
}

// Supported reports whether a is one of [SupportedAlgorithms].  The match
// is exact and case-sensitive.
func (a Algorithm) Supported() bool {
	return lo.Contains(supportedAlgorithms, a)
}

func (a Algorithm) String() string { return string(a) }

// DetectAlgorithm inspects the algorithm field of an encoded hash without
// decoding the rest of it.
//
// The second return value is false when the prefix is not a supported
// algorithm.
func DetectAlgorithm(encoded string) (Algorithm, bool) {
	name, _, found := strings.Cut(encoded, separator)
	if !found {
		return "", false
	}
	a := Algorithm(name)
	return a, a.Supported()
}
