package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "cfg.yaml", `
logging:
  level: debug
notifications:
  sound_enabled: false
  sound_file: /tmp/own.wav
serve:
  chimes:
    - spec: "0 * * * *"
      title: Hourly
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Notifications.Sound() {
		t.Fatalf("explicit sound_enabled=false ignored")
	}
	if !cfg.Notifications.Push() {
		t.Fatalf("omitted push_enabled must default to true")
	}
	if cfg.Serve == nil || len(cfg.Serve.Chimes) != 1 || cfg.Serve.Chimes[0].Spec != "0 * * * *" {
		t.Fatalf("chimes not parsed: %+v", cfg.Serve)
	}
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "cfg.json", `{"notifications":{"push_enabled":false}}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notifications.Push() {
		t.Fatalf("explicit push_enabled=false ignored")
	}
	if !cfg.Notifications.Sound() {
		t.Fatalf("omitted sound_enabled must default to true")
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "cfg.yaml", "notifcations:\n  sound_enabled: true\n")
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatalf("typo'd section must be rejected")
	}
}

func TestTrailingDataRejected(t *testing.T) {
	path := writeConfig(t, "cfg.json", `{"logging":{}}{"logging":{}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatalf("concatenated JSON must be rejected")
	}
}

func TestHashStableAcrossRedundantCommits(t *testing.T) {
	path := writeConfig(t, "cfg.json", `{"logging":{"level":"info"}}`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if hashConfig(cfg) != m.lastHash {
		t.Fatalf("committed hash mismatch")
	}
	if hashConfig(nil) != 0 {
		t.Fatalf("nil config must hash to 0")
	}
}
