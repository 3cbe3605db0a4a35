package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateXenoCanto(); err != nil {
		return err
	}
	if err := c.validatePhotos(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateXenoCanto() error {
	if strings.TrimSpace(c.XenoCanto.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/warbler/config.toml"
		}
		return fmt.Errorf("xeno_canto.api_key is required. Edit %s (create with 'warbler config init')", defaultPath)
	}
	if c.XenoCanto.MaxRecordings <= 0 {
		return errors.New("xeno_canto.max_recordings must be positive")
	}
	if c.XenoCanto.MinRecordings < 0 {
		return errors.New("xeno_canto.min_recordings must not be negative")
	}
	if c.XenoCanto.MinRecordings > c.XenoCanto.MaxRecordings {
		return errors.New("xeno_canto.min_recordings must not exceed xeno_canto.max_recordings")
	}
	return nil
}

func (c *Config) validatePhotos() error {
	known := false
	for _, tag := range PhotoSourceTags {
		if c.Photos.Source == tag {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("photos.source: unknown photo source %q (valid: %s)",
			c.Photos.Source, strings.Join(PhotoSourceTags, ", "))
	}
	if c.Photos.MaxPhotos <= 0 {
		return errors.New("photos.max_photos must be positive")
	}
	if c.Photos.MinPhotos < 0 {
		return errors.New("photos.min_photos must not be negative")
	}
	if c.Photos.MinPhotos > c.Photos.MaxPhotos {
		return errors.New("photos.min_photos must not exceed photos.max_photos")
	}
	if c.Photos.MaxBytes > 0 && c.Photos.MinBytes > c.Photos.MaxBytes {
		return errors.New("photos.min_bytes must not exceed photos.max_bytes")
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("http.request_timeout must be positive")
	}
	if c.HTTP.MaxRetries < 1 {
		return errors.New("http.max_retries must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
