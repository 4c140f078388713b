// Package config loads host settings for the gocalc command and its sandbox
// from a YAML file.
//
// Every key is optional; a missing key keeps its default. Unknown keys are
// rejected so that typos do not go unnoticed.
//
//	timeout: 2s
//	max_depth: 5000
//	strict: true
//	cache_size: 128
//	debug: false
//	repl:
//	  prompt: "calc> "
//	  history_file: ~/.gocalc_history
//	prelude:
//	  pi: 3.141592653589793
//	sandbox:
//	  module: ./gocalc.wasm
//	  memory_limit_pages: 256
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "GOCALC_CONFIG"

// FileName is the config file looked up in the working and home directories.
const FileName = ".gocalc.yaml"

// maxMemoryPages is the 32-bit WebAssembly limit of 4 GiB in 64 KiB pages.
const maxMemoryPages = 65536

// Config holds host settings.
type Config struct {
	Timeout   time.Duration      `yaml:"timeout"`
	MaxDepth  int                `yaml:"max_depth"`
	Strict    bool               `yaml:"strict"`
	CacheSize int                `yaml:"cache_size"`
	Debug     bool               `yaml:"debug"`
	REPL      REPL               `yaml:"repl"`
	Prelude   map[string]float64 `yaml:"prelude"`
	Sandbox   Sandbox            `yaml:"sandbox"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `yaml:"-"`
}

// REPL holds interactive shell settings.
type REPL struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
}

// Sandbox holds settings for running programs inside the WebAssembly sandbox.
type Sandbox struct {
	Module           string `yaml:"module"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": invalid configuration")
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		CacheSize: 128,
		REPL: REPL{
			Prompt:      "calc> ",
			HistoryFile: "~/.gocalc_history",
		},
		Sandbox: Sandbox{
			Module:           "gocalc.wasm",
			MemoryLimitPages: 256,
		},
	}
}

// Load reads the config file at path on top of the defaults.
// A relative sandbox module path is resolved against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = absPath
			return nil, verr
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	if cfg.Sandbox.Module != "" && !filepath.IsAbs(cfg.Sandbox.Module) && !strings.HasPrefix(cfg.Sandbox.Module, "~") {
		cfg.Sandbox.Module = filepath.Join(filepath.Dir(absPath), cfg.Sandbox.Module)
	}
	return cfg, nil
}

// Decode reads YAML from r on top of the defaults. An empty document yields
// the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find loads the first config file found in $GOCALC_CONFIG, ./.gocalc.yaml
// and $HOME/.gocalc.yaml. When none exists it returns the defaults. A file
// named by $GOCALC_CONFIG must exist.
func Find() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}

	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, FileName))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	return Default(), nil
}

func (c *Config) validate() error {
	var errs ValidationError
	if c.Timeout < 0 {
		errs.Issues = append(errs.Issues, "timeout must not be negative")
	}
	if c.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, "max_depth must not be negative")
	}
	if c.CacheSize < 0 {
		errs.Issues = append(errs.Issues, "cache_size must not be negative")
	}
	if c.Sandbox.MemoryLimitPages > maxMemoryPages {
		errs.Issues = append(errs.Issues, fmt.Sprintf("sandbox.memory_limit_pages must be at most %d", maxMemoryPages))
	}
	for name := range c.Prelude {
		if !validName(name) {
			errs.Issues = append(errs.Issues, fmt.Sprintf("prelude name %q is not an identifier", name))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// validName reports whether name lexes as a single identifier.
func validName(name string) bool {
	tokens, err := parser.Tokenize(name)
	return err == nil && len(tokens) == 1 && tokens[0].Type == parser.TokenIdentifier && tokens[0].Name == name
}

// EvalOptions translates the settings into evaluator options.
// Zero max_depth keeps the evaluator default; zero cache_size disables caching.
func (c *Config) EvalOptions() []evaluator.EvalOption {
	opts := []evaluator.EvalOption{
		evaluator.WithTimeout(c.Timeout),
		evaluator.WithDebug(c.Debug),
		evaluator.WithCompileOptions(parser.WithStrict(c.Strict)),
	}
	if c.MaxDepth > 0 {
		opts = append(opts, evaluator.WithMaxDepth(c.MaxDepth))
	}
	if c.CacheSize > 0 {
		opts = append(opts, evaluator.WithCaching(true), evaluator.WithCacheSize(c.CacheSize))
	}
	return opts
}

// Environment returns a fresh environment holding the prelude bindings.
func (c *Config) Environment() types.Environment {
	env := types.NewEnvironment()
	for name, v := range c.Prelude {
		env.Set(name, types.Number(v))
	}
	return env
}

// HistoryPath returns the REPL history file with a leading ~ expanded, or
// "" when history is disabled.
func (c *Config) HistoryPath() string {
	return expandHome(c.REPL.HistoryFile)
}

// ModulePath returns the sandbox module path with a leading ~ expanded.
func (c *Config) ModulePath() string {
	return expandHome(c.Sandbox.Module)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
