package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Constants
const (
	AppName       = "feed-export"
	ConfigEnv     = "FEED_EXPORT_CONFIG"
	ConfigFile    = "config.toml"
	SchemaVersion = 1

	FilenameLength = 10 // title chars kept in media/sidecar file names
	FolderLength   = 50 // title chars kept in folder names

	CSVFileName     = "tiktok_export.csv"
	ArchiveFileName = "downloaded.txt"
	CSVHeader       = "Name,Release date,Download date,Description,Video URL,Views,Likes,Comments"

	DefaultExportRoot  = "TikTok Export"
	DefaultProfileURL  = "https://www.tiktok.com/@%s"
	DefaultMergeFormat = "mp4"
	DefaultListen      = "localhost:8080"
)

// Config holds the user-tunable settings, loaded from TOML
type Config struct {
	ConfigSchema    int      `toml:"config_schema" validate:"eq=1"`
	ExportRoot      string   `toml:"export_root" validate:"required"`
	ProfileURL      string   `toml:"profile_url" validate:"required,contains=%s"`
	MergeFormat     string   `toml:"merge_output_format" validate:"required,alphanum"`
	UpdateYtdlp     bool     `toml:"update_ytdlp"`
	DownloadArchive bool     `toml:"download_archive"`
	Remux           bool     `toml:"remux"`
	ExtraArgs       []string `toml:"extra_args,omitempty"`
	Log             Logging  `toml:"log"`
	Server          Server   `toml:"server"`
}

// Logging configures the logrus output
type Logging struct {
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" validate:"oneof=text json"`
	File       string `toml:"file,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
}

// Server configures the optional status server
type Server struct {
	Listen string `toml:"listen" validate:"required,hostname_port"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		ConfigSchema: SchemaVersion,
		ExportRoot:   DefaultExportRoot,
		ProfileURL:   DefaultProfileURL,
		MergeFormat:  DefaultMergeFormat,
		UpdateYtdlp:  true,
		Log: Logging{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  1,
			MaxBackups: 2,
		},
		Server: Server{
			Listen: DefaultListen,
		},
	}
}

// DefaultPath returns the config path from the environment or the XDG config dir
func DefaultPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFile)
}

// Load reads the config at path on top of the defaults. A missing file is
// not an error: the defaults are returned as is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config as TOML, creating the parent directory
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the config values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// BaseDir returns the export directory of a user
func (c *Config) BaseDir(username string) string {
	return filepath.Join(c.ExportRoot, username)
}

// ProfileURLFor returns the feed URL of a user
func (c *Config) ProfileURLFor(username string) string {
	return fmt.Sprintf(c.ProfileURL, username)
}
