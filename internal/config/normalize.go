package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHTTP()
	c.normalizeProviders()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PhotosDir) == "" {
		c.Paths.PhotosDir = filepath.Join(c.Paths.DataDir, "photos")
	}
	if c.Paths.PhotosDir, err = expandPath(c.Paths.PhotosDir); err != nil {
		return fmt.Errorf("paths.photos_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AudioDir) == "" {
		c.Paths.AudioDir = filepath.Join(c.Paths.DataDir, "audio")
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = filepath.Join(c.Paths.DataDir, "cache")
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatasetFile) == "" {
		c.Paths.DatasetFile = filepath.Join(c.Paths.DataDir, "dataset.json")
	}
	if c.Paths.DatasetFile, err = expandPath(c.Paths.DatasetFile); err != nil {
		return fmt.Errorf("paths.dataset_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeHTTP() {
	if strings.TrimSpace(c.HTTP.UserAgent) == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = defaultRequestTimeout
	}
	if c.HTTP.MaxRetries <= 0 {
		c.HTTP.MaxRetries = defaultMaxRetries
	}
	if c.HTTP.RetryDelaySeconds <= 0 {
		c.HTTP.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.HTTP.RequestsPerSecond <= 0 {
		c.HTTP.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.HTTP.ChunkSize <= 0 {
		c.HTTP.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeProviders() {
	c.XenoCanto.BaseURL = strings.TrimRight(strings.TrimSpace(c.XenoCanto.BaseURL), "/")
	if c.XenoCanto.BaseURL == "" {
		c.XenoCanto.BaseURL = defaultXenoCantoURL
	}
	if len(c.XenoCanto.QualityGrades) == 0 {
		c.XenoCanto.QualityGrades = append([]string{}, defaultQualityGrades...)
	}
	c.Wikipedia.BaseURL = strings.TrimRight(strings.TrimSpace(c.Wikipedia.BaseURL), "/")
	if c.Wikipedia.BaseURL == "" {
		c.Wikipedia.BaseURL = defaultWikipediaURL
	}
	c.INaturalist.BaseURL = strings.TrimRight(strings.TrimSpace(c.INaturalist.BaseURL), "/")
	if c.INaturalist.BaseURL == "" {
		c.INaturalist.BaseURL = defaultINaturalistURL
	}
	c.Wikimedia.BaseURL = strings.TrimSpace(c.Wikimedia.BaseURL)
	if c.Wikimedia.BaseURL == "" {
		c.Wikimedia.BaseURL = defaultWikimediaURL
	}
	c.Photos.Source = strings.ToLower(strings.TrimSpace(c.Photos.Source))
	if c.Photos.Source == "" {
		c.Photos.Source = defaultPhotoSource
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.ExpiryDays <= 0 {
		c.Cache.ExpiryDays = defaultCacheExpiryDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
