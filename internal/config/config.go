// Package config loads the command line configuration using Viper.
//
// Values come, in decreasing priority, from command line flags bound to the
// Viper instance, RUSTACHE_* environment variables (RUSTACHE_RENDER_MAX_DEPTH
// for render.max_depth) and a .rustache.yml file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/loader"
	"github.com/lovasoa/rustache/logging"
	"github.com/lovasoa/rustache/scanner"
)

// EnvPrefix prefixes every environment variable read by the tool.
const EnvPrefix = "RUSTACHE"

// Config is the full tool configuration.
type Config struct {
	Partials PartialsConfig `mapstructure:"partials"`
	Render   RenderConfig   `mapstructure:"render"`
	Log      LogConfig      `mapstructure:"log"`
	Serve    ServeConfig    `mapstructure:"serve"`
}

type PartialsConfig struct {
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"`
}

type RenderConfig struct {
	MaxDepth   int    `mapstructure:"max_depth"`
	Delimiters string `mapstructure:"delimiters"`
	Escape     string `mapstructure:"escape"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("partials.dir", "")
	v.SetDefault("partials.extension", loader.DefaultExtension)
	v.SetDefault("render.max_depth", rustache.DefaultMaxDepth)
	v.SetDefault("render.delimiters", scanner.DefaultDelimiters().String())
	v.SetDefault("render.escape", "html")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8080)
}

// New creates a Viper instance with defaults and environment binding. If
// configFile is empty, .rustache.yml is searched in the working directory
// and may be absent; an explicit file must exist.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".rustache")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every value for correctness.
func (c *Config) Validate() error {
	if ext := c.Partials.Extension; ext != "" && ext != "." {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("partials.extension %q must start with a dot and name no directory", ext)
		}
	}
	if _, err := c.Delimiters(); err != nil {
		return fmt.Errorf("render.delimiters: %w", err)
	}
	switch c.Render.Escape {
	case "html", "none":
	default:
		return fmt.Errorf("render.escape must be html or none, got %q", c.Render.Escape)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port %d out of range", c.Serve.Port)
	}
	if strings.ContainsAny(c.Serve.Host, " /") {
		return fmt.Errorf("serve.host %q is not a host name", c.Serve.Host)
	}
	return nil
}

// Delimiters parses render.delimiters.
func (c *Config) Delimiters() (scanner.Delimiters, error) {
	if strings.TrimSpace(c.Render.Delimiters) == "" {
		return scanner.DefaultDelimiters(), nil
	}
	d, err := scanner.ParseDelimiters(c.Render.Delimiters)
	if err != nil {
		return d, err
	}
	return d, d.Validate()
}

// EscapeFunc returns the escaping selected by render.escape.
func (c *Config) EscapeFunc() rustache.EscapeFunc {
	if c.Render.Escape == "none" {
		return rustache.NoEscape
	}
	return rustache.EscapeHTML
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(out io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.NewLogger(&logging.Config{
		Level:  level,
		Format: c.Log.Format,
		Output: out,
	})
}

// Environment builds a rendering environment with every render setting
// applied. The loader is left to the caller.
func (c *Config) Environment(logger logging.Logger) (*rustache.Environment, error) {
	env := rustache.NewEnvironment()
	d, err := c.Delimiters()
	if err != nil {
		return nil, err
	}
	if err := env.SetDelimiters(d.Open, d.Close); err != nil {
		return nil, err
	}
	env.SetMaxDepth(c.Render.MaxDepth)
	env.SetEscapeFunc(c.EscapeFunc())
	env.SetLogger(logger)
	return env, nil
}
