package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse.
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[xeno_canto]")
	requireContains(t, out, "<set>")
	if strings.Contains(out, "test-key") {
		t.Fatal("api key must not appear in config show output")
	}
}

func TestCacheStatsEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries")
}

func TestCacheCleanupEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "cleanup"}, env.configPath)
	if err != nil {
		t.Fatalf("cache cleanup: %v", err)
	}
	requireContains(t, out, "Removed 0 expired cache entries")
}

func TestCacheClear(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cache cleared")
}

func TestProgressShowEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"progress", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("progress show: %v", err)
	}
	requireContains(t, out, "No completed species recorded")
}

func TestProgressClear(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"progress", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("progress clear: %v", err)
	}
	requireContains(t, out, "Progress cleared")
}

func TestCollectRequiresSpeciesFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"collect"}, env.configPath); err == nil {
		t.Fatal("expected error when --species is missing")
	}
}
