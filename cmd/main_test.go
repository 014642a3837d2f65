package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/upstreamlab/poolwatch/internal/config"
)

func TestEmbeddedConfigLoads(t *testing.T) {
	data, err := getEmbeddedConfig("config")
	if err != nil {
		t.Fatalf("embedded config missing: %v", err)
	}

	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		t.Fatalf("embedded config invalid: %v", err)
	}
	if cfg.Alerts.WindowSize != 200 {
		t.Errorf("window_size = %d, want 200", cfg.Alerts.WindowSize)
	}
	if cfg.Alerts.ErrorRateThreshold != 2.0 {
		t.Errorf("error_rate_threshold = %g, want 2.0", cfg.Alerts.ErrorRateThreshold)
	}
	if cfg.StatusAPI.Enabled {
		t.Error("status API should be off by default")
	}
}

func TestResolveWatchConfigUserPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("alerts:\n  window_size: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, source, err := resolveWatchConfig(path)
	if err != nil {
		t.Fatalf("resolveWatchConfig: %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Alerts.WindowSize != 9 {
		t.Errorf("window_size = %d, want 9", cfg.Alerts.WindowSize)
	}

	if _, _, err := resolveWatchConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicitly named missing config should error")
	}
}

func TestResolveWatchConfigFallsBackToEmbedded(t *testing.T) {
	// Run from a directory without configs/ so the filesystem search misses.
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, source, err := resolveWatchConfig("")
	if err != nil {
		t.Fatalf("expected embedded fallback, got error: %v", err)
	}
	if source != "(embedded) config.yaml" {
		t.Errorf("source = %q, want embedded", source)
	}
}

func TestResolveLogFormat(t *testing.T) {
	got := resolveLogFormat(config.LogConfig{Level: "info", Format: "auto", Output: "stdout"}, false)
	if got.Format == "auto" {
		t.Error("auto format was not resolved")
	}
	if got.Level != "info" {
		t.Errorf("level = %q, want info", got.Level)
	}

	got = resolveLogFormat(config.LogConfig{Level: "info", Format: "console", Output: "stdout"}, true)
	if got.Level != "debug" {
		t.Errorf("debug flag: level = %q, want debug", got.Level)
	}
	if got.Format != "console" {
		t.Errorf("explicit format changed to %q", got.Format)
	}
}

func TestBuildSinks(t *testing.T) {
	sinks, err := buildSinks(config.NotifyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 0 {
		t.Errorf("no URLs configured, got %d sinks", len(sinks))
	}

	sinks, err = buildSinks(config.NotifyConfig{
		SlackWebhookURL: "https://hooks.slack.example/T0/B0",
		WebhookURL:      "https://alerts.example/hook",
		WebhookTemplate: `{"text":""}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 2 {
		t.Fatalf("got %d sinks, want 2", len(sinks))
	}
	if sinks[0].Name() != "slack" || sinks[1].Name() != "webhook" {
		t.Errorf("sinks = %s, %s; want slack, webhook", sinks[0].Name(), sinks[1].Name())
	}

	if _, err := buildSinks(config.NotifyConfig{
		WebhookURL:      "https://alerts.example/hook",
		WebhookTemplate: `[]`,
	}); err == nil {
		t.Error("array template should be rejected")
	}
}
