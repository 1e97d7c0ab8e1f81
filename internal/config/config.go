package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("lumina version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Adobe   AdobeConfig   `mapstructure:"adobe"`
	Session SessionConfig `mapstructure:"session"`
	Gallery GalleryConfig `mapstructure:"gallery"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// AdobeConfig holds the Adobe IMS application credentials and endpoints.
// ClientID doubles as the x-api-key value Adobe requires on both token and
// Lightroom API requests.
type AdobeConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	Scopes       string        `mapstructure:"scopes"`
	Timeout      time.Duration `mapstructure:"timeout"`      // per outbound provider call
	RefreshSkew  time.Duration `mapstructure:"refresh_skew"` // refresh this close to expiry
	AuthURL      string        `mapstructure:"auth_url"`
	TokenURL     string        `mapstructure:"token_url"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
}

type SessionConfig struct {
	// Secret signs the session cookie. Required at boot.
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	StateTTL   time.Duration `mapstructure:"state_ttl"`
}

type GalleryConfig struct {
	AlbumsPerPage int `mapstructure:"albums_per_page"`
	PhotosPerPage int `mapstructure:"photos_per_page"`
}

// ConfigError reports a missing or invalid startup setting. It is fatal: the
// process refuses to serve when Load returns one.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Adobe IMS defaults, per the Lightroom partner API documentation.
const (
	defaultAuthURL    = "https://ims-na1.adobelogin.com/ims/authorize/v2"
	defaultTokenURL   = "https://ims-na1.adobelogin.com/ims/token/v3"
	defaultAPIBaseURL = "https://lr.adobe.io/v2"

	// IMS expects comma-separated scopes rather than the space-separated form
	// most providers use.
	defaultScopes = "offline_access,AdobeID,lr_partner_rendition_apis,openid,lr_partner_apis"
)

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("config", "", "Path to an additional config file")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("LUMINA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	setDefaults()

	// Load ./config.yaml if present
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/lumina")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// An explicit --config file overrides overlapping keys
	if extra := viper.GetString("config"); extra != "" {
		viper.SetConfigFile(extra)
		if err := viper.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8443)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	// Empty defaults register the secret-bearing keys so AutomaticEnv can
	// populate them during Unmarshal
	viper.SetDefault("adobe.client_id", "")
	viper.SetDefault("adobe.client_secret", "")
	viper.SetDefault("adobe.redirect_uri", "")
	viper.SetDefault("session.secret", "")

	viper.SetDefault("adobe.scopes", defaultScopes)
	viper.SetDefault("adobe.timeout", 30*time.Second)
	viper.SetDefault("adobe.refresh_skew", 60*time.Second)
	viper.SetDefault("adobe.auth_url", defaultAuthURL)
	viper.SetDefault("adobe.token_url", defaultTokenURL)
	viper.SetDefault("adobe.api_base_url", defaultAPIBaseURL)

	viper.SetDefault("session.cookie_name", "lumina_session")
	viper.SetDefault("session.state_ttl", 10*time.Minute)

	viper.SetDefault("gallery.albums_per_page", 8)
	viper.SetDefault("gallery.photos_per_page", 20)
}

func validate(cfg *Config) error {
	switch {
	case cfg.Adobe.ClientID == "":
		return &ConfigError{Key: "adobe.client_id", Reason: "required, set LUMINA_ADOBE_CLIENT_ID"}
	case cfg.Adobe.ClientSecret == "":
		return &ConfigError{Key: "adobe.client_secret", Reason: "required, set LUMINA_ADOBE_CLIENT_SECRET"}
	case cfg.Adobe.RedirectURI == "":
		return &ConfigError{Key: "adobe.redirect_uri", Reason: "required, must match the Adobe Console configuration"}
	case cfg.Session.Secret == "":
		return &ConfigError{Key: "session.secret", Reason: "required, set LUMINA_SESSION_SECRET"}
	}
	if cfg.Gallery.AlbumsPerPage <= 0 || cfg.Gallery.PhotosPerPage <= 0 {
		return &ConfigError{Key: "gallery", Reason: "page sizes must be positive"}
	}
	return nil
}
