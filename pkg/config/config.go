// Package config loads stackc settings from stackc.yaml, a .env file and
// STACKC_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stackc/pkg/compiler"
	"stackc/pkg/diag"
)

// FileName is the project configuration file looked up from the working
// directory upward.
const FileName = "stackc.yaml"

const (
	EnvTarget    = "STACKC_TARGET"
	EnvOutputDir = "STACKC_OUTPUT_DIR"
	EnvColor     = "STACKC_COLOR"
	EnvVerbose   = "STACKC_VERBOSE"
	EnvMaxSteps  = "STACKC_MAX_STEPS"
)

// DefaultMaxSteps bounds a vm run when nothing else is configured.
const DefaultMaxSteps = 10_000_000

type Config struct {
	Target    string `yaml:"target,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`
	Color     string `yaml:"color,omitempty"`
	Verbose   bool   `yaml:"verbose,omitempty"`
	Comments  bool   `yaml:"comments,omitempty"`
	MaxSteps  int    `yaml:"max_steps,omitempty"`

	// Path is the file the settings were read from, if any.
	Path string `yaml:"-"`
}

// Default returns the settings used when no file or variable overrides them.
func Default() *Config {
	return &Config{
		Target:   compiler.LinuxARM64.String(),
		Color:    string(diag.ColorAuto),
		MaxSteps: DefaultMaxSteps,
	}
}

// Parse reads YAML from data on top of the defaults. path is used only in
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find searches for stackc.yaml starting from dir and walking up to the
// filesystem root. It returns "" if there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load builds the effective configuration for a run started in dir.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if cfg, err = Parse(data, path); err != nil {
			return nil, err
		}
	}

	env, err := readDotEnv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	for _, key := range []string{EnvTarget, EnvOutputDir, EnvColor, EnvVerbose, EnvMaxSteps} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	if err := cfg.apply(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return env, nil
}

func (c *Config) apply(env map[string]string) error {
	if v, ok := env[EnvTarget]; ok && v != "" {
		c.Target = v
	}
	if v, ok := env[EnvOutputDir]; ok {
		c.OutputDir = v
	}
	if v, ok := env[EnvColor]; ok && v != "" {
		c.Color = v
	}
	if v, ok := env[EnvVerbose]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerbose, err)
		}
		c.Verbose = b
	}
	if v, ok := env[EnvMaxSteps]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSteps, err)
		}
		c.MaxSteps = n
	}
	return c.Validate()
}

// Validate checks that the target and colour mode are known.
func (c *Config) Validate() error {
	if _, err := compiler.ParseTarget(c.Target); err != nil {
		return err
	}
	if _, err := diag.ParseColorMode(c.Color); err != nil {
		return err
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}

// CompileTarget returns the configured target. Validate has already checked it.
func (c *Config) CompileTarget() compiler.Target {
	t, _ := compiler.ParseTarget(c.Target)
	return t
}

// ColorMode returns the configured colour mode.
func (c *Config) ColorMode() diag.ColorMode {
	m, _ := diag.ParseColorMode(c.Color)
	return m
}
