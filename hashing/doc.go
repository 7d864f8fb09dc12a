// Package hashing derives and verifies self-describing PBKDF2 password
// hashes.
//
// # Architecture
//
// The central type is [Engine].  It holds the live [ParameterSet], draws
// salts from a [SaltSource], runs PBKDF2 through a [Registry] of HMAC
// providers, and serialises the result with [Encode].  [*Engine] satisfies
// [Hasher], so callers can depend on the interface.
//
// # Quick start
//
//	e, err := hashing.NewDefaultEngine() // PBKDF2WithHmacSHA256, 2048 rounds
//	if err != nil { log.Fatal(err) }
//
//	encoded, _ := e.Generate([]byte("my-secret-password"))
//	ok, _      := e.Verify([]byte("my-secret-password"), encoded) // true
//
// # Hash format
//
// Hashes are stored as four colon-separated fields:
//
//	PBKDF2WithHmacSHA256:2048:<base64-salt>:<base64-key>
//
// The base64 alphabet is the standard, padded one.  The format is the one
// used by Java identity stores (Pbkdf2PasswordHash), so hashes can move
// between the two.
//
// Because the algorithm, iteration count and salt travel with the key,
// [Engine.Verify] never consults the live configuration.  Raising the
// iteration count with [Engine.Configure] only affects new hashes; use
// [Engine.NeedsRehash] after a successful login to upgrade old ones:
//
//	ok, _ := e.Verify(password, stored)
//	if ok {
//	    if needs, _ := e.NeedsRehash(stored); needs {
//	        fresh, _ := e.Generate(password)
//	        persist(userID, fresh)
//	    }
//	}
//
// # Configuration
//
// Parameters come from a string map, typically loaded by the config
// package:
//
//	Algorithm      PBKDF2WithHmacSHA224 | SHA256 (default) | SHA384 | SHA512
//	Iterations     default 2048, minimum 1024
//	SaltSizeBytes  default 32, minimum 16
//	KeySizeBytes   default 32, minimum 16
//
// # Errors
//
// Configuration errors match [ErrConfig], unusable stored hashes match
// [ErrDecode], and environment failures match [ErrInternal].  A wrong
// password is not an error: Verify returns false.
package hashing
