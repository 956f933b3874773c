// Package config loads collection settings from a YAML document and applies
// them to collcache.Options.
//
//	collectionKey: widgets
//	expiration: 1d12h
//	batchSize: 1000
//	useCompression: true
//	compressor: zstd
//	retry: { maxAttempts: 5, timeout: 10s, initialInterval: 50ms, maxInterval: 2s }
//
// Durations accept Go syntax plus days and weeks ("1w2d", "36h").
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/collcache"
	"github.com/unkn0wn-root/collcache/compress"
)

// Duration is a time.Duration that reads and writes str2duration strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := str2duration.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "line %d: invalid duration %q", n.Line, s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return str2duration.String(time.Duration(d)), nil
}

type Retry struct {
	MaxAttempts     uint     `yaml:"maxAttempts,omitempty"`
	Timeout         Duration `yaml:"timeout,omitempty"`
	InitialInterval Duration `yaml:"initialInterval,omitempty"`
	MaxInterval     Duration `yaml:"maxInterval,omitempty"`
}

// Settings is the file form of a collection's configuration. Absent fields
// leave the corresponding Options untouched.
type Settings struct {
	CollectionKey  string   `yaml:"collectionKey,omitempty"`
	Expiration     Duration `yaml:"expiration,omitempty"`
	BatchSize      int      `yaml:"batchSize,omitempty"`
	UseCompression *bool    `yaml:"useCompression,omitempty"`
	Compressor     string   `yaml:"compressor,omitempty"`
	Retry          Retry    `yaml:"retry,omitempty"`
}

// Parse decodes and validates a settings document. Unknown keys are errors.
func Parse(data []byte) (Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.Wrap(err, "config: decode settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads and parses the settings file at path.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "config: read %s", path)
	}
	return Parse(data)
}

func (s Settings) Validate() error {
	switch {
	case s.Expiration < 0:
		return errors.Newf("config: expiration must not be negative, got %s", time.Duration(s.Expiration))
	case s.BatchSize < 0:
		return errors.Newf("config: batchSize must not be negative, got %d", s.BatchSize)
	case s.Retry.Timeout < 0 || s.Retry.InitialInterval < 0 || s.Retry.MaxInterval < 0:
		return errors.New("config: retry durations must not be negative")
	}
	switch s.Compressor {
	case "", "lz4", "zstd":
	default:
		return errors.Newf("config: unknown compressor %q", s.Compressor)
	}
	return nil
}

// Marshal renders s as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Apply copies the configured fields of s onto opts. A compressor named in
// s replaces opts.Compressor; zstd compressors allocate and should be
// closed by the caller when the collection is discarded.
func Apply[T any](s Settings, opts *collcache.Options[T]) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.CollectionKey != "" {
		opts.CollectionKey = s.CollectionKey
	}
	if s.Expiration > 0 {
		opts.Expiration = time.Duration(s.Expiration)
	}
	if s.BatchSize > 0 {
		opts.BatchSize = s.BatchSize
	}
	if s.UseCompression != nil {
		opts.DisableCompression = !*s.UseCompression
	}
	if s.Compressor != "" && !opts.DisableCompression {
		c, err := compress.ByName(s.Compressor)
		if err != nil {
			return errors.Wrap(err, "config")
		}
		opts.Compressor = c
	}

	r := &opts.Retry
	if s.Retry.MaxAttempts > 0 {
		r.MaxAttempts = s.Retry.MaxAttempts
	}
	if s.Retry.Timeout > 0 {
		r.Timeout = time.Duration(s.Retry.Timeout)
	}
	if s.Retry.InitialInterval > 0 {
		r.InitialInterval = time.Duration(s.Retry.InitialInterval)
	}
	if s.Retry.MaxInterval > 0 {
		r.MaxInterval = time.Duration(s.Retry.MaxInterval)
	}
	return nil
}
