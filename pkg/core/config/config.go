// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     config
// Description: Configuration for all structlint components. TOML is the
//              primary format, YAML is accepted; STRUCTLINT_* environment
//              variables override file values.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/msto63/structlint/internal/parser"
	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

// Environment variables
const (
	EnvConfig     = "STRUCTLINT_CONFIG"
	EnvIndentStep = "STRUCTLINT_INDENT_STEP"
	EnvTabWidth   = "STRUCTLINT_TAB_WIDTH"
	EnvLogLevel   = "STRUCTLINT_LOG_LEVEL"
)

// Config holds the complete application configuration
type Config struct {
	Format FormatConfig `toml:"format" yaml:"format"`
	Parser ParserConfig `toml:"parser" yaml:"parser"`
	Log    LogConfig    `toml:"log" yaml:"log"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Watch  WatchConfig  `toml:"watch" yaml:"watch"`
	Lint   LintConfig   `toml:"lint" yaml:"lint"`

	// path the configuration was loaded from, empty for defaults
	source string
}

// FormatConfig holds indentation settings shared by validator and formatter
type FormatConfig struct {
	IndentStep int `toml:"indent_step" yaml:"indent_step"`
	TabWidth   int `toml:"tab_width" yaml:"tab_width"`
}

// ParserConfig holds the look-ahead and recovery windows
type ParserConfig struct {
	ParamLookahead  int `toml:"param_lookahead" yaml:"param_lookahead"`
	ParamBlockLines int `toml:"param_block_lines" yaml:"param_block_lines"`
	RecoveryWindow  int `toml:"recovery_window" yaml:"recovery_window"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ServerConfig holds the language service endpoints
type ServerConfig struct {
	Host     string `toml:"host" yaml:"host"`
	WSPort   int    `toml:"ws_port" yaml:"ws_port"`
	GRPCPort int    `toml:"grpc_port" yaml:"grpc_port"`
}

// StoreConfig holds the run history settings
type StoreConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// LintConfig holds file discovery settings
type LintConfig struct {
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is found
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file on the OS filesystem
func Load(path string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), path)
}

// LoadFS loads configuration from fs. Files ending in .yaml or .yml are
// decoded as YAML, everything else as TOML.
func LoadFS(fs afero.Fs, path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mdwerrors.Wrap(err, "config file not found").
				WithCode(mdwerrors.CodeConfigError).WithOperation("config.Load").WithDetail("path", path)
		}
		return nil, mdwerrors.Wrap(err, "cannot read config").
			WithCode(mdwerrors.CodeIOError).WithOperation("config.Load").WithDetail("path", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, mdwerrors.Wrap(err, "failed to parse config").
				WithCode(mdwerrors.CodeConfigError).WithOperation("config.Load").WithDetail("path", path)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, mdwerrors.Wrap(err, "failed to parse config").
				WithCode(mdwerrors.CodeConfigError).WithOperation("config.Load").WithDetail("path", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, mdwerrors.Newf("unknown config key %q", undecoded[0].String()).
				WithCode(mdwerrors.CodeConfigError).WithOperation("config.Load").WithDetail("path", path)
		}
	}

	cfg.source = path
	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve finds the configuration file: explicit path, then $STRUCTLINT_CONFIG,
// then ./structlint.toml, then ~/.config/structlint/config.toml. If none
// exists the defaults are returned with environment overrides applied.
func Resolve(fs afero.Fs, explicit string) (*Config, error) {
	if explicit != "" {
		return LoadFS(fs, explicit)
	}
	if path := os.Getenv(EnvConfig); path != "" {
		return LoadFS(fs, path)
	}

	candidates := []string{"./structlint.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "structlint", "config.toml"))
	}
	for _, p := range candidates {
		if ok, _ := afero.Exists(fs, p); ok {
			return LoadFS(fs, p)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source returns the file the configuration came from, empty for defaults
func (c *Config) Source() string {
	return c.source
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Format
	if c.Format.IndentStep == 0 {
		c.Format.IndentStep = validator.DefaultIndentStep
	}
	if c.Format.TabWidth == 0 {
		c.Format.TabWidth = parser.DefaultTabWidth
	}

	// Parser
	if c.Parser.ParamLookahead == 0 {
		c.Parser.ParamLookahead = parser.DefaultParamLookahead
	}
	if c.Parser.ParamBlockLines == 0 {
		c.Parser.ParamBlockLines = parser.DefaultParamBlockLines
	}
	if c.Parser.RecoveryWindow == 0 {
		c.Parser.RecoveryWindow = parser.DefaultRecoveryWindow
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.WSPort == 0 {
		c.Server.WSPort = 7410
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 7411
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = "./data/structlint.db"
	}

	// Watch
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = 200 * time.Millisecond
	}

	// Lint
	if len(c.Lint.Extensions) == 0 {
		c.Lint.Extensions = []string{".cfg", ".struct"}
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// applyEnv applies the STRUCTLINT_* overrides
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvIndentStep); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return mdwerrors.Wrap(err, "invalid "+EnvIndentStep).WithCode(mdwerrors.CodeConfigError)
		}
		c.Format.IndentStep = n
	}
	if v := os.Getenv(EnvTabWidth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return mdwerrors.Wrap(err, "invalid "+EnvTabWidth).WithCode(mdwerrors.CodeConfigError)
		}
		c.Format.TabWidth = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	invalid := func(key string, value interface{}) error {
		return mdwerrors.Newf("%s must be positive", key).
			WithCode(mdwerrors.CodeConfigError).WithOperation("config.Validate").WithDetail("value", value)
	}
	switch {
	case c.Format.IndentStep <= 0:
		return invalid("format.indent_step", c.Format.IndentStep)
	case c.Format.TabWidth <= 0:
		return invalid("format.tab_width", c.Format.TabWidth)
	case c.Parser.ParamLookahead < 0:
		return invalid("parser.param_lookahead", c.Parser.ParamLookahead)
	case c.Parser.ParamBlockLines < 0:
		return invalid("parser.param_block_lines", c.Parser.ParamBlockLines)
	case c.Parser.RecoveryWindow < 0:
		return invalid("parser.recovery_window", c.Parser.RecoveryWindow)
	case c.Watch.Debounce.Duration < 0:
		return invalid("watch.debounce", c.Watch.Debounce.String())
	}
	for _, ext := range c.Lint.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return mdwerrors.Newf("lint.extensions entry %q must start with a dot", ext).
				WithCode(mdwerrors.CodeConfigError).WithOperation("config.Validate")
		}
	}
	return nil
}

// AnalysisOptions returns the options every parser, validator and formatter
// call uses
func (c *Config) AnalysisOptions() validator.Options {
	return validator.Options{
		Parser: parser.Options{
			TabWidth:        c.Format.TabWidth,
			ParamLookahead:  c.Parser.ParamLookahead,
			ParamBlockLines: c.Parser.ParamBlockLines,
			RecoveryWindow:  c.Parser.RecoveryWindow,
		},
		IndentStep: c.Format.IndentStep,
	}
}

// WSAddress returns the WebSocket listen address
func (c *Config) WSAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.WSPort)
}

// GRPCAddress returns the gRPC listen address
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// HasExtension reports whether path has one of the configured extensions
func (c *Config) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Lint.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
