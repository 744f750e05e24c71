package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"evcal/internal/fsutil"
	"evcal/internal/model"
)

// ICSConfig describes a single ICS subscription used to seed events.
type ICSConfig struct {
	// URL is the ICS endpoint. file:// paths are not supported; use SeedFile.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the headless-browser PNG capture of /calendar.
type CaptureConfig struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	TimeoutSec int    `yaml:"timeout_sec" json:"timeout_sec"`
	Output     string `yaml:"output" json:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timezone is only used to decide which date "today" is when the
	// calendar starts. Events themselves are zone-less dates.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultView is the granularity shown at start-up: month, week or day.
	DefaultView string `yaml:"default_view" json:"default_view"`

	// SeedFile is a YAML event file loaded when no snapshot exists yet.
	SeedFile string `yaml:"seed_file" json:"seed_file"`

	// SnapshotFile receives the event collection periodically and on
	// shutdown. Empty disables persistence.
	SnapshotFile string `yaml:"snapshot_file" json:"snapshot_file"`

	// SnapshotCron is a cron spec (e.g. "*/5 * * * *") for snapshot writes.
	SnapshotCron string `yaml:"snapshot_cron" json:"snapshot_cron"`

	// ICS sources are imported when neither snapshot nor seed file exist.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// ICSCacheDir stores ETag/Last-Modified metadata and bodies.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "UTC"
	defaultSnapshotCron = "*/5 * * * *"
	defaultICSCacheDir  = "/var/lib/evcal/ics-cache"
	defaultCaptureOut   = "/var/lib/evcal/preview.png"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		LogLevel:     "info",
		Timezone:     defaultTimezone,
		DefaultView:  string(model.Month),
		SnapshotFile: "/var/lib/evcal/events.yaml",
		SnapshotCron: defaultSnapshotCron,
		ICS:          []ICSConfig{},
		ICSCacheDir:  defaultICSCacheDir,
		Capture: CaptureConfig{
			Width:      1304,
			Height:     984,
			TimeoutSec: 30,
			Output:     defaultCaptureOut,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	// Unknown view; fall back to month to avoid surprising layouts.
	if g, err := model.ParseGranularity(c.DefaultView); err != nil {
		c.DefaultView = string(model.Month)
	} else {
		c.DefaultView = string(g)
	}
	if c.SnapshotCron == "" {
		c.SnapshotCron = defaultSnapshotCron
	} else if _, err := cron.ParseStandard(c.SnapshotCron); err != nil {
		c.SnapshotCron = defaultSnapshotCron
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = 1304
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 984
	}
	if c.Capture.TimeoutSec <= 0 {
		c.Capture.TimeoutSec = 30
	}
	if c.Capture.Output == "" {
		c.Capture.Output = defaultCaptureOut
	}
}

// Granularity returns DefaultView as a model value.
func (c *Config) Granularity() model.Granularity {
	g, err := model.ParseGranularity(c.DefaultView)
	if err != nil {
		return model.Month
	}
	return g
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The file is written atomically with 0600 permissions; the parent
// directory is created (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, ".evcal-config-*.tmp")
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
