// Package config loads rbrowse settings from defaults, an optional YAML file,
// RBROWSE_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RBROWSE_SERVER_BASE_URL.
const EnvPrefix = "RBROWSE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	UI        UIConfig        `mapstructure:"ui"`
	Devserver DevserverConfig `mapstructure:"devserver"`
}

// ServerConfig locates the remote file API.
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig is the handle issued by the connection service.
type SessionConfig struct {
	ConnectionID string `mapstructure:"connection_id"`
	Token        string `mapstructure:"token"`
}

type BrowserConfig struct {
	StartPath   string `mapstructure:"start_path"`
	DownloadDir string `mapstructure:"download_dir"`
}

// UploadConfig mirrors the server-side quotas so batches are rejected early.
type UploadConfig struct {
	MaxFiles     int   `mapstructure:"max_files"`
	MaxFileSize  int64 `mapstructure:"max_file_size"`
	MaxTotalSize int64 `mapstructure:"max_total_size"`
}

type SearchConfig struct {
	Debounce   time.Duration `mapstructure:"debounce"`
	MaxResults int           `mapstructure:"max_results"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "console" or "json"
	Path       string `mapstructure:"path"`   // directory for log files
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type UIConfig struct {
	NoticeTTL time.Duration `mapstructure:"notice_ttl"`
	Editor    string        `mapstructure:"editor"`
}

// DevserverConfig configures the reference file API server.
type DevserverConfig struct {
	Listen string   `mapstructure:"listen"`
	Root   string   `mapstructure:"root"`
	Tokens []string `mapstructure:"tokens"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8787",
			Timeout: 60 * time.Second,
		},
		Browser: BrowserConfig{
			StartPath: "/",
		},
		Upload: UploadConfig{
			MaxFiles:     10,
			MaxFileSize:  100 << 20,
			MaxTotalSize: 500 << 20,
		},
		Search: SearchConfig{
			Debounce:   300 * time.Millisecond,
			MaxResults: 50,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Path:       defaultLogDir(),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
		UI: UIConfig{
			NoticeTTL: 4 * time.Second,
		},
		Devserver: DevserverConfig{
			Listen: "127.0.0.1:8787",
			Root:   ".",
		},
	}
}

// Flags returns the command-line flags shared by both binaries.
func Flags(name string) *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a config file")
	fs.String("server-base-url", d.Server.BaseURL, "file API base URL")
	fs.Duration("server-timeout", d.Server.Timeout, "metadata request timeout; transfers only wait this long for headers")
	fs.String("session-connection-id", "", "connection id issued by the connection service")
	fs.String("session-token", "", "session token issued by the connection service")
	fs.StringP("browser-start-path", "p", d.Browser.StartPath, "remote directory to open")
	fs.String("browser-download-dir", "", "local directory downloads are written to")
	fs.String("logging-level", d.Logging.Level, "log level (trace, debug, info, warn, error)")
	fs.String("logging-format", d.Logging.Format, "log format (console, json)")
	fs.String("logging-path", d.Logging.Path, "log directory; empty disables the log file")
	fs.String("ui-editor", "", "editor command overriding $VISUAL and $EDITOR")
	fs.String("devserver-listen", d.Devserver.Listen, "devserver listen address")
	fs.String("devserver-root", d.Devserver.Root, "directory served by the devserver")
	fs.StringSlice("devserver-tokens", nil, "accepted session tokens; one is generated when empty")
	return fs
}

// Load loads configuration from file, environment and flags. configPath may
// be empty; flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" && flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rbrowse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "rbrowse"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Timeout < 0:
		return errors.New("server.timeout must not be negative")
	case c.Upload.MaxFiles < 1:
		return errors.New("upload.max_files must be at least 1")
	case c.Upload.MaxFileSize < 1 || c.Upload.MaxTotalSize < 1:
		return errors.New("upload size limits must be positive")
	case c.Upload.MaxFileSize > c.Upload.MaxTotalSize:
		return errors.New("upload.max_file_size exceeds upload.max_total_size")
	case c.Search.MaxResults < 1:
		return errors.New("search.max_results must be at least 1")
	case c.Search.Debounce < 0:
		return errors.New("search.debounce must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// bindFlags binds every known flag to its config key; --config is read directly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if bindErr != nil || !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Wrapf(err, "bind flag %s", f.Name)
		}
	})
	return bindErr
}

var flagKeys = map[string]string{
	"server-base-url":       "server.base_url",
	"server-timeout":        "server.timeout",
	"session-connection-id": "session.connection_id",
	"session-token":         "session.token",
	"browser-start-path":    "browser.start_path",
	"browser-download-dir":  "browser.download_dir",
	"logging-level":         "logging.level",
	"logging-format":        "logging.format",
	"logging-path":          "logging.path",
	"ui-editor":             "ui.editor",
	"devserver-listen":      "devserver.listen",
	"devserver-root":        "devserver.root",
	"devserver-tokens":      "devserver.tokens",
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout", d.Server.Timeout)

	v.SetDefault("session.connection_id", d.Session.ConnectionID)
	v.SetDefault("session.token", d.Session.Token)

	v.SetDefault("browser.start_path", d.Browser.StartPath)
	v.SetDefault("browser.download_dir", d.Browser.DownloadDir)

	v.SetDefault("upload.max_files", d.Upload.MaxFiles)
	v.SetDefault("upload.max_file_size", d.Upload.MaxFileSize)
	v.SetDefault("upload.max_total_size", d.Upload.MaxTotalSize)

	v.SetDefault("search.debounce", d.Search.Debounce)
	v.SetDefault("search.max_results", d.Search.MaxResults)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("ui.notice_ttl", d.UI.NoticeTTL)
	v.SetDefault("ui.editor", d.UI.Editor)

	v.SetDefault("devserver.listen", d.Devserver.Listen)
	v.SetDefault("devserver.root", d.Devserver.Root)
	v.SetDefault("devserver.tokens", []string{})
}

func defaultLogDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rbrowse")
}
