// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/binembed/internal/embed"
)

// ByteSize is an int that supports YAML unmarshaling from human-readable
// sizes like "64KiB", "1MiB" or plain byte counts.
type ByteSize int

var byteUnits = map[string]int{
	"":    1,
	"b":   1,
	"k":   1 << 10,
	"kb":  1 << 10,
	"kib": 1 << 10,
	"m":   1 << 20,
	"mb":  1 << 20,
	"mib": 1 << 20,
}

var byteSizeRe = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]*)$`)

// ParseByteSize parses strings accepted by ByteSize.UnmarshalYAML.
func ParseByteSize(s string) (ByteSize, error) {
	m := byteSizeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	unit, ok := byteUnits[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("invalid size unit %q", m[2])
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt/unit {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return ByteSize(n * unit), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported size format: %v", value.Kind)
	}
	parsed, err := ParseByteSize(value.Value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Config holds all binembed configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Read    ReadConfig    `yaml:"read"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig controls the generated artifact.
type OutputConfig struct {
	Path               string `yaml:"path"`
	IncludeDeclaration bool   `yaml:"include_declaration"`
	Symbol             string `yaml:"symbol"`
	Atomic             bool   `yaml:"atomic"`
	Verify             bool   `yaml:"verify"`
}

// ReadConfig controls how input files are consumed.
type ReadConfig struct {
	BufferSize     ByteSize `yaml:"buffer_size"`
	CheckFreeSpace bool     `yaml:"check_free_space"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const (
	minBufferSize = 1
	maxBufferSize = 64 << 20
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Path:               "Buffer.embed",
			IncludeDeclaration: true,
			Symbol:             embed.DefaultSymbol,
		},
		Read: ReadConfig{
			BufferSize:     embed.DefaultBufferSize,
			CheckFreeSpace: true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Nil pointers and empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	Symbol             string
	LogLevel           string
	IncludeDeclaration *bool
	Atomic             *bool
	Verify             *bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > YAML file > defaults.
//
// An optional configPath argument controls file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no file)
//
// An explicitly named file that does not exist is an error; a discovered
// one that vanished is not.
func LoadLayered(cli CLIOverrides, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := len(configPath) > 0
	var filePath string
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Symbol != "" {
		cfg.Output.Symbol = cli.Symbol
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.IncludeDeclaration != nil {
		cfg.Output.IncludeDeclaration = *cli.IncludeDeclaration
	}
	if cli.Atomic != nil {
		cfg.Output.Atomic = *cli.Atomic
	}
	if cli.Verify != nil {
		cfg.Output.Verify = *cli.Verify
	}

	return cfg, nil
}

// applyEnvOverrides applies BINEMBED_* environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BINEMBED_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("BINEMBED_SYMBOL"); v != "" {
		cfg.Output.Symbol = v
	}
	if v := os.Getenv("BINEMBED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BINEMBED_BUFFER_SIZE"); v != "" {
		size, err := ParseByteSize(v)
		if err != nil {
			return fmt.Errorf("BINEMBED_BUFFER_SIZE: %w", err)
		}
		cfg.Read.BufferSize = size
	}
	for name, dst := range map[string]*bool{
		"BINEMBED_DECLARATION": &cfg.Output.IncludeDeclaration,
		"BINEMBED_ATOMIC":      &cfg.Output.Atomic,
		"BINEMBED_VERIFY":      &cfg.Output.Verify,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the configuration can produce a compilable artifact.
func (c *Config) Validate() error {
	if c.Output.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Output.IncludeDeclaration && !identRe.MatchString(c.Output.Symbol) {
		return fmt.Errorf("symbol %q is not a valid C identifier", c.Output.Symbol)
	}
	if c.Read.BufferSize < minBufferSize || c.Read.BufferSize > maxBufferSize {
		return fmt.Errorf("buffer size %d out of range [%d, %d]", c.Read.BufferSize, minBufferSize, maxBufferSize)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// EmbedOptions converts the configuration into embed.Options.
func (c *Config) EmbedOptions() embed.Options {
	return embed.Options{
		IncludeDeclaration: c.Output.IncludeDeclaration,
		Symbol:             c.Output.Symbol,
		Atomic:             c.Output.Atomic,
		CheckFreeSpace:     c.Read.CheckFreeSpace,
		BufferSize:         int(c.Read.BufferSize),
	}
}
