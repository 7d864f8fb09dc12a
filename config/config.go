// Package config loads PBKDF2 parameters from a configuration file and the
// environment and keeps an engine in sync with them.
//
// A file holds the options under one section, "pbkdf2" by default:
//
//	pbkdf2:
//	  Algorithm: PBKDF2WithHmacSHA512
//	  Iterations: 10000
//
// Environment variables override the file, e.g. PBKDF2HASH_PBKDF2_ITERATIONS.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hasbyte1/go-pbkdf2hash/hashing"
)

const (
	// DefaultSection is the key under which options are read.
	DefaultSection = "pbkdf2"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "PBKDF2HASH"
)

// viper lower-cases keys; these restore the case-sensitive option names.
var canonicalKeys = map[string]string{
	"algorithm":     hashing.KeyAlgorithm,
	"iterations":    hashing.KeyIterations,
	"saltsizebytes": hashing.KeySaltSizeBytes,
	"keysizebytes":  hashing.KeyKeySizeBytes,
}

var qualifiedPrefix = strings.ToLower(hashing.QualifiedKeyPrefix)

// Reconfigurer is implemented by [*hashing.Engine].
type Reconfigurer interface {
	Configure(options map[string]string) (hashing.ParameterSet, error)
}

// Loader reads hashing options through viper.
type Loader struct {
	v       *viper.Viper
	section string
	path    string
	logger  *slog.Logger
}

// Option customises a [Loader].
type Option func(*Loader)

// WithSection reads options from section instead of [DefaultSection].
func WithSection(section string) Option {
	return func(l *Loader) { l.section = section }
}

// WithLogger sets the logger used to report reloads.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// Load reads the configuration file at pathFile.  The file type is inferred
// from its extension.
func Load(pathFile string, opts ...Option) (*Loader, error) {
	l := newLoader(opts)
	l.path = pathFile
	l.v.SetConfigFile(pathFile)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", pathFile, err)
	}
	return l, nil
}

// LoadBytes reads configuration from memory.  configType is any format
// supported by viper ("yaml", "json", "toml", ...).
func LoadBytes(configType string, data []byte, opts ...Option) (*Loader, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: config type is required")
	}
	l := newLoader(opts)
	l.v.SetConfigType(configType)
	if err := l.v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configType, err)
	}
	return l, nil
}

// FromEnv returns a Loader backed only by environment variables.
func FromEnv(opts ...Option) *Loader {
	return newLoader(opts)
}

func newLoader(opts []Option) *Loader {
	l := &Loader{
		v:       viper.New(),
		section: DefaultSection,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	return l
}

// Options returns the configured hashing options keyed by their
// case-sensitive names.  Keys present in the section but unknown to the
// hashing package are passed through unchanged so that
// [hashing.ParameterSet.Apply] rejects them.
func (l *Loader) Options() map[string]string {
	out := make(map[string]string)
	for lower, canonical := range canonicalKeys {
		key := l.section + "." + lower
		if l.v.IsSet(key) {
			out[canonical] = l.v.GetString(key)
		}
	}
	if sub := l.v.Sub(l.section); sub != nil {
		for _, k := range sub.AllKeys() {
			if _, known := canonicalKeys[k]; known {
				continue
			}
			// viper nests "Pbkdf2PasswordHash.Iterations" under a lower-cased parent.
			if rest, ok := strings.CutPrefix(k, qualifiedPrefix); ok {
				if canonical, known := canonicalKeys[rest]; known {
					out[hashing.QualifiedKeyPrefix+canonical] = sub.GetString(k)
					continue
				}
			}
			out[k] = sub.GetString(k)
		}
	}
	return out
}

// ParameterSet builds a validated parameter set from [Loader.Options].
func (l *Loader) ParameterSet() (hashing.ParameterSet, error) {
	return hashing.ParseParameterSet(l.Options())
}

// Apply pushes the current options into target.  A rejected configuration
// leaves target's parameters untouched.
func (l *Loader) Apply(target Reconfigurer) error {
	p, err := target.Configure(l.Options())
	if err != nil {
		return err
	}
	l.logger.Debug("pbkdf2 configuration applied", "section", l.section, "params", p.String())
	return nil
}

// Watch re-applies the configuration to target whenever the file loaded by
// [Load] changes.  Reloads that fail validation are logged and ignored, so
// the previous parameters stay in force.
func (l *Loader) Watch(target Reconfigurer) error {
	if l.path == "" {
		return errors.New("config: watch requires a file-backed loader")
	}
	l.v.OnConfigChange(func(ev fsnotify.Event) {
		if err := l.Apply(target); err != nil {
			l.logger.Error("config reload rejected", "path", ev.Name, "op", ev.Op.String(), "err", err)
			return
		}
		l.logger.Info("config success reloaded", "path", ev.Name)
	})
	l.v.WatchConfig()
	return nil
}
