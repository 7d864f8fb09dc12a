package hashing_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/hasbyte1/go-pbkdf2hash/hashing"
)

// PBKDF2-HMAC-SHA256, P="passwd", S="salt", c=1, dkLen=64 (RFC 7914 §11).
const rfc7914Vector = "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc" +
	"49ca9cccf179b645991664b39d77ef317c71b845b1e30bd509112041d3a19783"

func TestRegistry_Derive_KnownVector(t *testing.T) {
	r := hashing.NewDefaultRegistry()
	got, err := r.Derive([]byte("passwd"), []byte("salt"), hashing.PBKDF2WithHmacSHA256, 1, 64)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if hex.EncodeToString(got) != rfc7914Vector {
		t.Errorf("Derive = %x, want %s", got, rfc7914Vector)
	}
}

func TestRegistry_Derive_Deterministic(t *testing.T) {
	r := hashing.NewDefaultRegistry()
	for _, alg := range hashing.SupportedAlgorithms() {
		t.Run(string(alg), func(t *testing.T) {
			a, err := r.Derive([]byte("pw"), []byte("0123456789abcdef"), alg, 1024, 40)
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			b, _ := r.Derive([]byte("pw"), []byte("0123456789abcdef"), alg, 1024, 40)
			if len(a) != 40 {
				t.Errorf("len = %d, want 40", len(a))
			}
			if !bytes.Equal(a, b) {
				t.Error("same inputs must derive the same key")
			}
		})
	}
}

func TestRegistry_Derive_AlgorithmsDiffer(t *testing.T) {
	r := hashing.NewDefaultRegistry()
	seen := make(map[string]hashing.Algorithm)
	for _, alg := range hashing.SupportedAlgorithms() {
		k, _ := r.Derive([]byte("pw"), []byte("salt-salt-salt-s"), alg, 1024, 32)
		if prev, dup := seen[string(k)]; dup {
			t.Errorf("%s and %s derived the same key", prev, alg)
		}
		seen[string(k)] = alg
	}
}

func TestRegistry_Register_Unsupported(t *testing.T) {
	r := hashing.NewRegistry()
	err := r.Register("PBKDF2WithHmacSHA1", sha256.New)
	if !errors.Is(err, hashing.ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestRegistry_Register_Nil(t *testing.T) {
	r := hashing.NewRegistry()
	err := r.Register(hashing.PBKDF2WithHmacSHA256, nil)
	if !errors.Is(err, hashing.ErrNilProvider) {
		t.Errorf("expected ErrNilProvider, got %v", err)
	}
}

func TestRegistry_MissingProvider(t *testing.T) {
	r := hashing.NewRegistry()
	if r.Has(hashing.PBKDF2WithHmacSHA256) {
		t.Fatal("empty registry should not have providers")
	}
	_, err := r.Derive([]byte("pw"), []byte("salt"), hashing.PBKDF2WithHmacSHA256, 1024, 16)
	if !errors.Is(err, hashing.ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
}

func TestRegistry_ConcurrentRegisterAndDerive(t *testing.T) {
	r := hashing.NewDefaultRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(hashing.PBKDF2WithHmacSHA256, sha256.New)
		}()
		go func() {
			defer wg.Done()
			if _, err := r.Derive([]byte("pw"), []byte("salt"), hashing.PBKDF2WithHmacSHA256, 1, 16); err != nil {
				t.Errorf("Derive: %v", err)
			}
		}()
	}
	wg.Wait()
}

// ──────────────────────────────────────────────────────────────────────────────
// Engine ↔ registry
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_VerifyKnownVector(t *testing.T) {
	key, _ := hex.DecodeString(rfc7914Vector)
	encoded := "PBKDF2WithHmacSHA256:1:" +
		base64.StdEncoding.EncodeToString([]byte("salt")) + ":" +
		base64.StdEncoding.EncodeToString(key)

	e := newTestEngine(t, fastParams())
	ok, err := e.Verify([]byte("passwd"), encoded)
	if err != nil || !ok {
		t.Fatalf("Verify known vector: ok=%v err=%v", ok, err)
	}
}

func TestEngine_ProviderUnavailable(t *testing.T) {
	r := hashing.NewRegistry()
	_ = r.Register(hashing.PBKDF2WithHmacSHA256, sha256.New)

	p := fastParams()
	p.Algorithm = hashing.PBKDF2WithHmacSHA512
	e := newTestEngine(t, p, hashing.WithRegistry(r))

	if _, err := e.Generate([]byte("pw")); !errors.Is(err, hashing.ErrInternal) {
		t.Errorf("Generate: expected ErrInternal, got %v", err)
	}

	full := newTestEngine(t, p)
	stored, err := full.Generate([]byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := e.Verify([]byte("pw"), stored)
	if ok || !errors.Is(err, hashing.ErrInternal) {
		t.Errorf("Verify: expected ErrInternal, got ok=%v err=%v", ok, err)
	}
	if hashing.IsDecodeError(err) {
		t.Error("a missing provider must not look like a corrupt record")
	}
}
