package hashing

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// separator delimits the four fields of an encoded hash.
const separator = ":"

// EncodedHash is a derived key together with everything needed to derive it
// again: algorithm, iteration count and salt.
//
// The zero value is not useful; build one with [NewEncodedHash] or [Decode].
// An EncodedHash is immutable: accessors return copies of the byte fields.
type EncodedHash struct {
	algorithm  Algorithm
	iterations uint32
	salt       []byte
	derivedKey []byte
}

// NewEncodedHash copies salt and derivedKey into a new EncodedHash.
func NewEncodedHash(alg Algorithm, iterations uint32, salt, derivedKey []byte) EncodedHash {
	return EncodedHash{
		algorithm:  alg,
		iterations: iterations,
		salt:       clone(salt),
		derivedKey: clone(derivedKey),
	}
}

// Algorithm returns the PBKDF2 variant that produced the key.
func (h EncodedHash) Algorithm() Algorithm { return h.algorithm }

// Iterations returns the PBKDF2 round count that produced the key.
func (h EncodedHash) Iterations() uint32 { return h.iterations }

// Salt returns a copy of the salt.
func (h EncodedHash) Salt() []byte { return clone(h.salt) }

// DerivedKey returns a copy of the derived key.
func (h EncodedHash) DerivedKey() []byte { return clone(h.derivedKey) }

// String is equivalent to [Encode].
func (h EncodedHash) String() string { return Encode(h) }

// Encode serialises h as
//
//	<algorithm>:<iterations>:<base64(salt)>:<base64(derivedKey)>
//
// using the standard, padded base64 alphabet (RFC 4648 §4) without line
// breaks.  This is the format written by Java's Pbkdf2PasswordHash.
func Encode(h EncodedHash) string {
	var b strings.Builder
	b.WriteString(string(h.algorithm))
	b.WriteString(separator)
	b.WriteString(strconv.FormatUint(uint64(h.iterations), 10))
	b.WriteString(separator)
	b.WriteString(base64.StdEncoding.EncodeToString(h.salt))
	b.WriteString(separator)
	b.WriteString(base64.StdEncoding.EncodeToString(h.derivedKey))
	return b.String()
}

// Decode parses a string produced by [Encode].
//
// It returns an error matching [ErrMalformedEncoding] when the string does
// not have exactly four fields, the iteration field is not an unsigned
// 32-bit decimal, or the salt or key is empty or not valid base64.  An
// algorithm outside [SupportedAlgorithms] yields [ErrUnsupportedAlgorithm].
//
// The iteration count is not range-checked; deciding whether a stored count
// is reasonable is left to the caller (see [WithMaxVerifyIterations]).
func Decode(encoded string) (EncodedHash, error) {
	parts := strings.Split(encoded, separator)
	if len(parts) != 4 {
		return EncodedHash{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedEncoding, len(parts))
	}

	alg := Algorithm(parts[0])
	if !alg.Supported() {
		return EncodedHash{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, parts[0])
	}

	iterations, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return EncodedHash{}, fmt.Errorf("%w: invalid iteration count %q", ErrMalformedEncoding, parts[1])
	}

	salt, err := decodeField("salt", parts[2])
	if err != nil {
		return EncodedHash{}, err
	}
	key, err := decodeField("key", parts[3])
	if err != nil {
		return EncodedHash{}, err
	}

	return EncodedHash{
		algorithm:  alg,
		iterations: uint32(iterations),
		salt:       salt,
		derivedKey: key,
	}, nil
}

func decodeField(name, field string) ([]byte, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrMalformedEncoding, name)
	}
	// StdEncoding skips line breaks; the stored form must not contain any.
	if strings.ContainsAny(field, "\r\n") {
		return nil, fmt.Errorf("%w: line break in %s", ErrMalformedEncoding, name)
	}
	b, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s base64: %v", ErrMalformedEncoding, name, err)
	}
	return b, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
