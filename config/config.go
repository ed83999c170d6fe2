// Package config loads bridge settings from a TOML file and the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// FileName is the conventional config file name.
const FileName = "bfbridge.toml"

// Environment variables that override file settings.
const (
	EnvBackend    = "BFBRIDGE_BACKEND"
	EnvClassPath  = "BFBRIDGE_CLASSPATH"
	EnvCacheDir   = "BFBRIDGE_CACHEDIR"
	EnvBufferSize = "BFBRIDGE_BUFFER_SIZE"
	EnvLogLevel   = "BFBRIDGE_LOG_LEVEL"
)

// Config holds everything needed to start a VM and bind instances.
type Config struct {
	Backend    string   `toml:"backend"`
	ClassPath  string   `toml:"classpath"`
	CacheDir   string   `toml:"cachedir"`
	BufferSize int      `toml:"buffer-size"`
	LogLevel   string   `toml:"log-level"`
	JVMOptions []string `toml:"jvm-options"`
}

// Default returns the settings used when nothing is configured. The backend
// is jni when it is compiled in and wasm otherwise.
func Default() *Config {
	return &Config{
		Backend:    jvm.Default(),
		BufferSize: bfbridge.DefaultBufferSize,
		LogLevel:   "info",
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot read "+path)
		}
		if err := cfg.decode(data, path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data, "config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, name string) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse error in "+name)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.InvalidInput(errors.PhaseConfig, "unknown keys in %s: %s", name, strings.Join(names, ", "))
	}
	return nil
}

// ApplyEnv overrides fields from BFBRIDGE_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvBackend); ok {
		c.Backend = v
	}
	if v, ok := os.LookupEnv(EnvClassPath); ok {
		c.ClassPath = v
	}
	if v, ok := os.LookupEnv(EnvCacheDir); ok {
		c.CacheDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvBufferSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, EnvBufferSize+" is not an integer")
		}
		c.BufferSize = n
	}
	return nil
}

// Validate checks that the configuration can start a VM.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClassPath) == "" {
		return errors.InvalidInput(errors.PhaseConfig, "classpath is required")
	}
	if c.Backend == "" {
		return errors.InvalidInput(errors.PhaseConfig, "backend is required")
	}
	if c.BufferSize <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "buffer-size must be positive, got %d", c.BufferSize)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses LogLevel.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid log-level")
	}
	return lvl, nil
}

// VMOptions returns the bridge options described by c.
func (c *Config) VMOptions() bridge.Options {
	return bridge.Options{
		ClassPath:  c.ClassPath,
		CacheDir:   c.CacheDir,
		JVMOptions: append([]string(nil), c.JVMOptions...),
	}
}
