package config_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hasbyte1/go-pbkdf2hash/config"
	"github.com/hasbyte1/go-pbkdf2hash/hashing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func newEngine(t *testing.T) *hashing.Engine {
	t.Helper()
	e, err := hashing.NewDefaultEngine(hashing.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewDefaultEngine: %v", err)
	}
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Loading
// ──────────────────────────────────────────────────────────────────────────────

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "hashing.yaml", `
pbkdf2:
  Algorithm: PBKDF2WithHmacSHA512
  Iterations: 10000
  SaltSizeBytes: 24
  KeySizeBytes: 64
`)
	l, err := config.Load(p, config.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{
		"Algorithm":     "PBKDF2WithHmacSHA512",
		"Iterations":    "10000",
		"SaltSizeBytes": "24",
		"KeySizeBytes":  "64",
	}
	got := l.Options()
	if len(got) != len(want) {
		t.Fatalf("Options = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Options[%q] = %q, want %q", k, got[k], v)
		}
	}

	ps, err := l.ParameterSet()
	if err != nil {
		t.Fatalf("ParameterSet: %v", err)
	}
	if ps.Algorithm != hashing.PBKDF2WithHmacSHA512 || ps.Iterations != 10000 {
		t.Errorf("ParameterSet = %v", ps)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoadBytes_JSON(t *testing.T) {
	l, err := config.LoadBytes("json", []byte(`{"pbkdf2": {"Iterations": 4096}}`))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	got := l.Options()
	if len(got) != 1 || got["Iterations"] != "4096" {
		t.Errorf("Options = %v", got)
	}
}

func TestLoadBytes_RequiresType(t *testing.T) {
	if _, err := config.LoadBytes(" ", []byte("{}")); err == nil {
		t.Error("expected error for empty config type")
	}
}

func TestLoadBytes_CustomSection(t *testing.T) {
	l, err := config.LoadBytes("yaml", []byte("security:\n  password:\n    Iterations: 3000\n"),
		config.WithSection("security.password"))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if got := l.Options()["Iterations"]; got != "3000" {
		t.Errorf("Iterations = %q, want 3000", got)
	}
}

func TestLoadBytes_MissingSection(t *testing.T) {
	l, err := config.LoadBytes("yaml", []byte("other:\n  key: value\n"))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if got := l.Options(); len(got) != 0 {
		t.Errorf("Options = %v, want empty", got)
	}
	ps, err := l.ParameterSet()
	if err != nil || ps != hashing.DefaultParameterSet() {
		t.Errorf("ParameterSet = %v, %v; want defaults", ps, err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PBKDF2HASH_PBKDF2_ITERATIONS", "5000")
	l := config.FromEnv()
	if got := l.Options()["Iterations"]; got != "5000" {
		t.Errorf("Iterations = %q, want 5000", got)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply / Watch
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_UpdatesEngine(t *testing.T) {
	l, _ := config.LoadBytes("yaml", []byte("pbkdf2:\n  Iterations: 4096\n"), config.WithLogger(quietLogger()))
	e := newEngine(t)
	if err := l.Apply(e); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Params().Iterations != 4096 {
		t.Errorf("Iterations = %d, want 4096", e.Params().Iterations)
	}
}

func TestApply_UnknownKeyRejected(t *testing.T) {
	l, _ := config.LoadBytes("yaml", []byte("pbkdf2:\n  Iterations: 4096\n  Memory: 65536\n"))
	e := newEngine(t)
	err := l.Apply(e)
	if !errors.Is(err, hashing.ErrUnrecognizedParameter) {
		t.Fatalf("expected ErrUnrecognizedParameter, got %v", err)
	}
	if e.Params() != hashing.DefaultParameterSet() {
		t.Errorf("rejected configuration changed the engine: %v", e.Params())
	}
}

func TestApply_InvalidValueRejected(t *testing.T) {
	l, _ := config.LoadBytes("yaml", []byte("pbkdf2:\n  Algorithm: PBKDF2WithHmacMD5\n"))
	e := newEngine(t)
	if err := l.Apply(e); !errors.Is(err, hashing.ErrInvalidAlgorithm) {
		t.Errorf("expected ErrInvalidAlgorithm, got %v", err)
	}
}

func TestWatch_RequiresFile(t *testing.T) {
	l, _ := config.LoadBytes("yaml", []byte("pbkdf2: {}\n"))
	if err := l.Watch(newEngine(t)); err == nil {
		t.Error("expected error when watching an in-memory loader")
	}
}

func TestLoad_QualifiedKeys(t *testing.T) {
	path := writeFile(t, "hashing.yaml", "pbkdf2:\n  Pbkdf2PasswordHash.Algorithm: PBKDF2WithHmacSHA384\n  Pbkdf2PasswordHash.Iterations: 4096\n")
	l, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := l.ParameterSet()
	if err != nil {
		t.Fatalf("ParameterSet: %v", err)
	}
	if p.Algorithm != hashing.PBKDF2WithHmacSHA384 || p.Iterations != 4096 {
		t.Errorf("qualified keys not applied: %v", p)
	}
}

func TestLoad_QualifiedUnknownKeyRejected(t *testing.T) {
	l, _ := config.LoadBytes("yaml", []byte("pbkdf2:\n  Pbkdf2PasswordHash.Memory: 1\n"))
	if _, err := l.ParameterSet(); !errors.Is(err, hashing.ErrUnrecognizedParameter) {
		t.Errorf("expected ErrUnrecognizedParameter, got %v", err)
	}
}

// syncBuffer lets the test read log output written by the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatch_Reload(t *testing.T) {
	path := writeFile(t, "hashing.yaml", "pbkdf2:\n  Iterations: 2048\n")
	var logs syncBuffer
	l, err := config.Load(path, config.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := newEngine(t)
	if err := l.Watch(e); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("pbkdf2:\n  Iterations: 5000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reload to 5000 iterations", func() bool { return e.Params().Iterations == 5000 })

	if err := os.WriteFile(path, []byte("pbkdf2:\n  Iterations: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "rejected reload", func() bool { return strings.Contains(logs.String(), "config reload rejected") })
	if got := e.Params().Iterations; got != 5000 {
		t.Errorf("rejected reload changed iterations to %d", got)
	}
}
