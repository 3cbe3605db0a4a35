package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and output-file configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	PhotosDir   string `toml:"photos_dir"`
	AudioDir    string `toml:"audio_dir"`
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
	DatasetFile string `toml:"dataset_file"`
}

// HTTP contains settings shared by every outbound request.
type HTTP struct {
	UserAgent         string  `toml:"user_agent"`
	RequestTimeout    int     `toml:"request_timeout"`
	MaxRetries        int     `toml:"max_retries"`
	RetryDelaySeconds int     `toml:"retry_delay_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ChunkSize         int     `toml:"chunk_size"`
}

// XenoCanto contains configuration for the xeno-canto recordings API.
type XenoCanto struct {
	APIKey        string   `toml:"api_key"`
	BaseURL       string   `toml:"base_url"`
	QualityGrades []string `toml:"quality_grades"`
	MaxRecordings int      `toml:"max_recordings"`
	MinRecordings int      `toml:"min_recordings"`
	MinAudioBytes int64    `toml:"min_audio_bytes"`
}

// Wikipedia contains configuration for the summary lookup API.
type Wikipedia struct {
	BaseURL string `toml:"base_url"`
}

// Photos contains photo collection limits and filtering knobs shared by all
// photo sources.
type Photos struct {
	Source       string   `toml:"source"`
	MaxPhotos    int      `toml:"max_photos"`
	MinPhotos    int      `toml:"min_photos"`
	MinBytes     int64    `toml:"min_bytes"`
	MaxBytes     int64    `toml:"max_bytes"`
	SkipKeywords []string `toml:"skip_keywords"`
}

// INaturalist contains configuration for the iNaturalist observations API.
type INaturalist struct {
	BaseURL string `toml:"base_url"`
}

// Wikimedia contains configuration for the Wikimedia Commons API.
type Wikimedia struct {
	BaseURL string `toml:"base_url"`
}

// Cache contains API response cache settings.
type Cache struct {
	Enabled    bool `toml:"enabled"`
	ExpiryDays int  `toml:"expiry_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// PhotoSourceTags enumerates the photo providers the collector can be
// configured with. Selection happens at startup; an unknown tag is a
// configuration error, not a runtime lookup failure.
var PhotoSourceTags = []string{"inaturalist", "wikimedia"}

// Config encapsulates all configuration values for the collector.
//
// Configuration sections by subsystem:
//   - Paths: data/cache/log directories and the dataset output file
//   - HTTP: user agent, timeout, retry, and rate-limit settings
//   - XenoCanto: recordings API and quality filtering
//   - Wikipedia: summary lookup endpoint
//   - Photos: shared photo limits, size screening, and source selection
//   - INaturalist / Wikimedia: per-source endpoints
//   - Cache: API response cache expiry
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	HTTP        HTTP        `toml:"http"`
	XenoCanto   XenoCanto   `toml:"xeno_canto"`
	Wikipedia   Wikipedia   `toml:"wikipedia"`
	Photos      Photos      `toml:"photos"`
	INaturalist INaturalist `toml:"inaturalist"`
	Wikimedia   Wikimedia   `toml:"wikimedia"`
	Cache       Cache       `toml:"cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/warbler/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("warbler.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a collection run needs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.PhotosDir,
		c.Paths.AudioDir,
		c.Paths.CacheDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.DatasetFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
