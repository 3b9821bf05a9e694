// Package config loads run settings from a YAML or CUE file.
//
// Values are layered: Default, then the file, then command-line flags
// (applied by the cli package). A file only needs the keys it changes:
//
//	timeout: 2s
//	format: json
//	color: never
//	database: .janus/history.db
//	filter: "Observed*"
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultTimeout matches the runner's async wait bound.
const DefaultTimeout = 5 * time.Second

// ErrUnsupportedFormat is returned by Load for a file extension other than
// .yaml, .yml or .cue.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

//go:embed schema.cue
var schemaCUE string

// Config holds the settings for one run.
type Config struct {
	// Timeout bounds the wait for an async spec.
	Timeout time.Duration

	// Format selects the report: "text" (console) or "json" (event stream).
	Format string

	// Color is auto, always or never; it only affects the text format.
	Color string

	// Database is the SQLite run history path. Empty disables persistence.
	Database string

	// Filter restricts the run to matching spec descriptions (doublestar glob).
	Filter string
}

// fileConfig is the on-disk shape. Timeout stays a string so YAML and CUE
// share the time.ParseDuration syntax.
type fileConfig struct {
	Timeout  string `yaml:"timeout" json:"timeout"`
	Format   string `yaml:"format" json:"format"`
	Color    string `yaml:"color" json:"color"`
	Database string `yaml:"database" json:"database"`
	Filter   string `yaml:"filter" json:"filter"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Timeout: DefaultTimeout,
		Format:  FormatText,
		Color:   "auto",
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		fc, err = decodeYAML(data)
	case ".cue":
		fc, err = decodeCUE(path, data)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Config{}, err
	}

	cfg, err := Default().merge(fc)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte) (fileConfig, error) {
	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&fc); err != nil {
		// An empty document decodes to io.EOF; treat it as "no overrides".
		if len(bytes.TrimSpace(data)) == 0 {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return fc, nil
}

func decodeCUE(path string, data []byte) (fileConfig, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fileConfig{}, fmt.Errorf("building config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse CUE: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fileConfig{}, fmt.Errorf("config does not match schema: %w", err)
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("decoding CUE config: %w", err)
	}
	return fc, nil
}

// merge overlays the non-empty file values on c.
func (c Config) merge(fc fileConfig) (Config, error) {
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if fc.Format != "" {
		c.Format = fc.Format
	}
	if fc.Color != "" {
		c.Color = fc.Color
	}
	if fc.Database != "" {
		c.Database = fc.Database
	}
	if fc.Filter != "" {
		c.Filter = fc.Filter
	}
	return c, nil
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	if c.Filter != "" && !doublestar.ValidatePattern(c.Filter) {
		return fmt.Errorf("filter %q is not a valid glob pattern", c.Filter)
	}
	return nil
}
