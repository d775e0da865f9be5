// Package config loads process configuration for the policyforge binary from
// an optional YAML file and POLICYFORGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

const (
	// EnvPrefix namespaces environment overrides, e.g.
	// POLICYFORGE_SERVER_ADDR.
	EnvPrefix = "policyforge"
	// DefaultFileName is looked up in the home directory when no file is
	// given.
	DefaultFileName = ".policyforge"
)

// Config represents the complete process configuration.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Countries Countries `mapstructure:"countries"`
	Wizard    Wizard    `mapstructure:"wizard"`
	Policy    Policy    `mapstructure:"policy"`
	Log       Log       `mapstructure:"log"`
}

// Server configures the web wizard.
type Server struct {
	Addr         string        `mapstructure:"addr"`
	TemplatesDir string        `mapstructure:"templates_dir"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
}

// Countries configures the reference list fetch.
type Countries struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// Wizard configures step definitions and generation.
type Wizard struct {
	Definition      string        `mapstructure:"definition"`
	GenerationDelay time.Duration `mapstructure:"generation_delay"`
}

// Policy configures the assembled document.
type Policy struct {
	Brand string `mapstructure:"brand"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.templates_dir", "")
	v.SetDefault("server.session_ttl", 2*time.Hour)
	v.SetDefault("server.cookie_name", "policyforge_session")
	v.SetDefault("countries.url", countries.DefaultURL)
	v.SetDefault("countries.timeout", 10*time.Second)
	v.SetDefault("countries.retries", 2)
	v.SetDefault("wizard.definition", "")
	v.SetDefault("wizard.generation_delay", wizard.DefaultGenerationDelay)
	v.SetDefault("policy.brand", policy.DefaultBrand)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding in
// place. configFile may be empty, in which case ~/.policyforge.yaml is used
// when it exists.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return v, nil
}

// Load reads configFile (see New) and decodes it.
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the components cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	if strings.TrimSpace(c.Countries.URL) == "" {
		return errors.New("config: countries.url is required")
	}
	if c.Countries.Timeout <= 0 {
		return fmt.Errorf("config: countries.timeout must be positive, got %s", c.Countries.Timeout)
	}
	if c.Countries.Retries < 0 {
		return fmt.Errorf("config: countries.retries must not be negative, got %d", c.Countries.Retries)
	}
	if c.Wizard.GenerationDelay < 0 {
		return fmt.Errorf("config: wizard.generation_delay must not be negative, got %s", c.Wizard.GenerationDelay)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("config: server.session_ttl must be positive, got %s", c.Server.SessionTTL)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
