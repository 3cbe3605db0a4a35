package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"warbler/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[xeno_canto]
api_key = "secret"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.HTTP.RequestTimeout != 30 {
		t.Fatalf("request timeout default = %d, want 30", cfg.HTTP.RequestTimeout)
	}
	if cfg.Photos.Source != "inaturalist" {
		t.Fatalf("photo source default = %q", cfg.Photos.Source)
	}
	if cfg.Cache.ExpiryDays != 7 {
		t.Fatalf("cache expiry default = %d, want 7", cfg.Cache.ExpiryDays)
	}
	if len(cfg.XenoCanto.QualityGrades) == 0 {
		t.Fatal("expected default quality grades")
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "./data"

[xeno_canto]
api_key = "secret"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.PhotosDir != filepath.Join(cfg.Paths.DataDir, "photos") {
		t.Fatalf("photos dir not derived from data dir: %q", cfg.Paths.PhotosDir)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "./data"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error when api key missing")
	}
	if !strings.Contains(err.Error(), "xeno_canto.api_key") {
		t.Fatalf("error should name the missing key, got %v", err)
	}
}

func TestLoadRejectsUnknownPhotoSource(t *testing.T) {
	path := writeConfig(t, `
[xeno_canto]
api_key = "secret"

[photos]
source = "flickr"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown photo source")
	}
	if !strings.Contains(err.Error(), "flickr") {
		t.Fatalf("error should name the bad tag, got %v", err)
	}
}

func TestLoadRejectsInvertedBounds(t *testing.T) {
	path := writeConfig(t, `
[xeno_canto]
api_key = "secret"
min_recordings = 20
max_recordings = 5
`)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when min exceeds max")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.PhotosDir = filepath.Join(base, "photos")
	cfg.Paths.AudioDir = filepath.Join(base, "audio")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DatasetFile = filepath.Join(base, "out", "dataset.json")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"photos", "audio", "cache", "logs", "out"} {
		if _, err := os.Stat(filepath.Join(base, dir)); err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
