package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// MailServerConfig holds the IMAP connection parameters supplied to
// every connector invocation. The core passes these through; it never
// caches them between requests.
type MailServerConfig struct {
	// Host is the IMAP server hostname.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the IMAP server port (993 for implicit TLS).
	Port int `mapstructure:"port" yaml:"port"`

	// Encryption selects the transport security mode: "ssl" for
	// implicit TLS, "tls" or empty for STARTTLS.
	Encryption string `mapstructure:"encryption" yaml:"encryption"`

	// ValidateCert controls server certificate verification.
	ValidateCert bool `mapstructure:"validate_cert" yaml:"validate_cert"`

	// ConnectTimeoutSec bounds the dial plus handshake phase.
	ConnectTimeoutSec int `mapstructure:"connect_timeout_sec" yaml:"connect_timeout_sec"`

	// ReadTimeoutSec bounds individual protocol round trips.
	ReadTimeoutSec int `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
}

// Addr returns the host:port dial address.
func (c MailServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnectTimeout returns the configured connect timeout as a duration.
func (c MailServerConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// ReadTimeout returns the configured per-round-trip timeout.
func (c MailServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// SessionConfig holds session binding settings.
type SessionConfig struct {
	// Backend selects the session store: "memory" (server side) or
	// "token" (stateless signed tokens).
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Secret signs token-backend session tokens. Required when the
	// token backend is selected.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// TTLSec is the session (and credential cache) lifetime.
	TTLSec int `mapstructure:"ttl_sec" yaml:"ttl_sec"`
}

// TTL returns the session lifetime as a duration.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// HTTPConfig holds the listen settings of the JSON API.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	TLS         bool   `mapstructure:"tls" yaml:"tls"`
	TLSCertFile string `mapstructure:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file" yaml:"tls_key_file"`
}

// AppConfig is the top-level daemon configuration.
type AppConfig struct {
	Mail    MailServerConfig `mapstructure:"mail" yaml:"mail"`
	Session SessionConfig    `mapstructure:"session" yaml:"session"`
	HTTP    HTTPConfig       `mapstructure:"http" yaml:"http"`

	// DBPath locates the identity database.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// MessageLimit caps how many messages a listing returns.
	MessageLimit int `mapstructure:"message_limit" yaml:"message_limit"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/webmaild/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "webmaild", "config.yaml")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailServerConfig{
			Port:              993,
			Encryption:        "ssl",
			ValidateCert:      true,
			ConnectTimeoutSec: 30,
			ReadTimeoutSec:    60,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTLSec:  3600,
		},
		HTTP: HTTPConfig{
			Addr: ":8143",
		},
		DBPath:       "webmail.db",
		MessageLimit: 10,
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// WEBMAILD_* environment variables override file values.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("webmaild")
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mail.port", 993)
	v.SetDefault("mail.encryption", "ssl")
	v.SetDefault("mail.validate_cert", true)
	v.SetDefault("mail.connect_timeout_sec", 30)
	v.SetDefault("mail.read_timeout_sec", 60)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl_sec", 3600)
	v.SetDefault("http.addr", ":8143")
	v.SetDefault("db_path", "webmail.db")
	v.SetDefault("message_limit", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Mail.Host == "" {
		return fmt.Errorf("mail.host is required")
	}
	switch c.Mail.Encryption {
	case "ssl", "tls", "":
	default:
		return fmt.Errorf("mail.encryption must be \"ssl\", \"tls\" or empty, got %q", c.Mail.Encryption)
	}
	if c.Session.Backend == "token" && c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required for the token backend")
	}
	if c.MessageLimit <= 0 {
		c.MessageLimit = 10
	}
	return nil
}
