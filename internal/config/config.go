package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/meltforce/paceline/internal/plan"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Zones     ZonesConfig     `yaml:"zones"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ZonesConfig carries the default zone scheme handed to athletes without
// a personal one. It is validated at load time, so a scheme with
// mismatched power/HR lists never reaches the mapper.
type ZonesConfig struct {
	Default plan.ZoneScheme `yaml:"default"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix PACELINE_ and underscore-separated
// paths:
//
//	PACELINE_SERVER_HOST, PACELINE_SERVER_PORT,
//	PACELINE_DB_HOST, PACELINE_DB_PORT, PACELINE_DB_NAME,
//	PACELINE_DB_USER, PACELINE_DB_PASSWORD, PACELINE_DB_SSLMODE,
//	PACELINE_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PACELINE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PACELINE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PACELINE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PACELINE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PACELINE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PACELINE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PACELINE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PACELINE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PACELINE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if len(c.Zones.Default.Power) > 0 {
		if err := c.Zones.Default.Validate(); err != nil {
			return fmt.Errorf("zones.default: %w", err)
		}
	}
	return nil
}

// DefaultScheme returns the configured default zone scheme, or the
// built-in one when the config omits it.
func (c *Config) DefaultScheme() plan.ZoneScheme {
	if len(c.Zones.Default.Power) > 0 {
		return c.Zones.Default
	}
	return BuiltinScheme()
}

// BuiltinScheme is a coarse endurance/tempo/threshold split used when no
// scheme is configured anywhere.
func BuiltinScheme() plan.ZoneScheme {
	bound := func(v float64) *float64 { return &v }
	return plan.ZoneScheme{
		Power: []plan.ZoneBand{
			{Name: "Endurance", Min: 0, Max: bound(55)},
			{Name: "Tempo", Min: 55, Max: bound(75)},
			{Name: "Threshold", Min: 75},
		},
		HeartRate: []plan.ZoneBand{
			{Name: "Endurance", Min: 0, Max: bound(120)},
			{Name: "Tempo", Min: 121, Max: bound(150)},
			{Name: "Threshold", Min: 151},
		},
	}
}
