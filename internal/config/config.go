// Package config loads redline settings.
//
// Precedence, lowest first: built-in defaults, the YAML config file, then
// RL_* environment variables. Command-line flags are applied on top by the
// CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default locations, relative to the working directory.
const (
	DefaultDir        = ".redline"
	DefaultConfigPath = DefaultDir + "/config.yaml"
	DefaultSQLitePath = DefaultDir + "/redline.db"
)

// Supported storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Config is the resolved configuration.
type Config struct {
	Storage Storage      `mapstructure:"storage" yaml:"storage" json:"storage"`
	Actor   string       `mapstructure:"actor" yaml:"actor" json:"actor"`
	Import  ImportConfig `mapstructure:"import" yaml:"import" json:"import"`
	Output  OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	fileUsed string
}

// Storage selects and configures the storage backend.
type Storage struct {
	Backend string       `mapstructure:"backend" yaml:"backend" json:"backend"`
	SQLite  SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite" json:"sqlite"`
	MySQL   MySQLConfig  `mapstructure:"mysql" yaml:"mysql" json:"mysql"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// MySQLConfig configures the mysql backend (MySQL or a Dolt sql-server).
type MySQLConfig struct {
	Host     string `mapstructure:"host" yaml:"host" json:"host"`
	Port     int    `mapstructure:"port" yaml:"port" json:"port"`
	User     string `mapstructure:"user" yaml:"user" json:"user"`
	Password string `mapstructure:"password" yaml:"password" json:"-"`
	Database string `mapstructure:"database" yaml:"database" json:"database"`
	TLS      bool   `mapstructure:"tls" yaml:"tls" json:"tls"`
}

// ImportConfig holds import defaults.
type ImportConfig struct {
	// Lenient accepts JSON with comments and trailing commas.
	Lenient bool `mapstructure:"lenient" yaml:"lenient" json:"lenient"`
}

// OutputConfig holds CLI output defaults.
type OutputConfig struct {
	JSON bool `mapstructure:"json" yaml:"json" json:"json"`
}

// TelemetryConfig controls OpenTelemetry export. Everything is off by
// default.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// Stdout prints spans and metrics to stderr.
	Stdout bool `mapstructure:"stdout" yaml:"stdout" json:"stdout"`
	// Endpoint receives metrics over OTLP/HTTP.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
}

// FileUsed returns the config file that was read, or "" when none was.
func (c *Config) FileUsed() string {
	return c.fileUsed
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: DefaultSQLitePath},
			MySQL:   MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Database: "redline"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.sqlite.path", d.Storage.SQLite.Path)
	v.SetDefault("storage.mysql.host", d.Storage.MySQL.Host)
	v.SetDefault("storage.mysql.port", d.Storage.MySQL.Port)
	v.SetDefault("storage.mysql.user", d.Storage.MySQL.User)
	v.SetDefault("storage.mysql.password", d.Storage.MySQL.Password)
	v.SetDefault("storage.mysql.database", d.Storage.MySQL.Database)
	v.SetDefault("storage.mysql.tls", d.Storage.MySQL.TLS)
	v.SetDefault("actor", d.Actor)
	v.SetDefault("import.lenient", d.Import.Lenient)
	v.SetDefault("output.json", d.Output.JSON)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.stdout", d.Telemetry.Stdout)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
}

// Load resolves the configuration. An explicit path must exist; with an
// empty path DefaultConfigPath is read when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short aliases for the settings people override most.
	_ = v.BindEnv("storage.backend", "RL_STORAGE_BACKEND", "RL_BACKEND")
	_ = v.BindEnv("storage.sqlite.path", "RL_STORAGE_SQLITE_PATH", "RL_DB")
	_ = v.BindEnv("telemetry.enabled", "RL_TELEMETRY_ENABLED", "RL_OTEL_ENABLED")
	_ = v.BindEnv("telemetry.stdout", "RL_TELEMETRY_STDOUT", "RL_OTEL_STDOUT")
	_ = v.BindEnv("telemetry.endpoint", "RL_TELEMETRY_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	fileUsed := ""
	switch {
	case path != "":
		fileUsed = path
	default:
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			fileUsed = DefaultConfigPath
		}
	}
	if fileUsed != "" {
		v.SetConfigFile(fileUsed)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", fileUsed, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fileUsed = fileUsed
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	return cfg, nil
}

// Validate checks that the selected backend is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required for the sqlite backend")
		}
	case BackendMySQL:
		m := c.Storage.MySQL
		if m.Host == "" || m.Database == "" {
			return errors.New("storage.mysql.host and storage.mysql.database are required for the mysql backend")
		}
		if m.Port < 0 || m.Port > 65535 {
			return fmt.Errorf("storage.mysql.port out of range: %d", m.Port)
		}
	default:
		return fmt.Errorf("unknown storage backend: %q (supported: %s, %s)", c.Storage.Backend, BackendSQLite, BackendMySQL)
	}
	return nil
}

const defaultHeader = `# redline configuration
#
# Every key can be overridden by an RL_* environment variable, e.g.
# RL_STORAGE_BACKEND=mysql or RL_STORAGE_MYSQL_HOST=db.internal.
# storage.backend is "sqlite" or "mysql" (MySQL or a Dolt sql-server).

`

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault writes a commented default config file to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	body, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, strings.NewReader(defaultHeader+string(body))); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Chmod(path, 0o600)
}
