package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings mirrors the optional YAML config file. Every field can be
// overridden by its VIDSTEGO_* environment variable.
type Settings struct {
	ListenAddr   string   `yaml:"listen_addr"`
	DataDir      string   `yaml:"data_dir"`
	StorageDir   string   `yaml:"storage_dir"`
	Workers      int      `yaml:"workers"`
	FallbackFPS  float64  `yaml:"fallback_fps"`
	MaxUploadMB  int      `yaml:"max_upload_mb"`
	QueueTimeout Duration `yaml:"queue_timeout"`
	FFmpeg       string   `yaml:"ffmpeg"`
	FFprobe      string   `yaml:"ffprobe"`

	Retention struct {
		MaxAge   Duration `yaml:"max_age"`
		Interval Duration `yaml:"interval"`
	} `yaml:"retention"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Auth struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`

	Publish []PublishTarget `yaml:"publish"`
}

// PublishTarget is one destination processed outputs are mirrored to.
// Type is one of directServe, s3, gcs, sftp; Options carries the
// backend-specific credentials and locations.
type PublishTarget struct {
	Type    string            `yaml:"type"`
	Options map[string]string `yaml:"options"`
}

// Duration accepts Go duration strings ("90s", "168h") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

var (
	settings   Settings
	settingsMu sync.RWMutex
)

func current() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

// Load reads the YAML config file at path. An empty path falls back to
// VIDSTEGO_CONFIG; if that is unset too, only environment and defaults apply.
func Load(path string) error {
	if path == "" {
		path = os.Getenv("VIDSTEGO_CONFIG")
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
	return nil
}

// Reset drops any loaded file settings.
func Reset() {
	settingsMu.Lock()
	settings = Settings{}
	settingsMu.Unlock()
}
