package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LARAPUSH_PANEL_URL", "https://panel.example.com/")
	t.Setenv("LARAPUSH_NAMESPACE", "com.example.app")
	t.Setenv("LARAPUSH_DEBUG", "true")
	t.Setenv("LARAPUSH_STORE_PATH", filepath.Join(t.TempDir(), "p.db"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PanelURL != "https://panel.example.com/" {
		t.Errorf("PanelURL = %q", cfg.PanelURL)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.NATS.Subject != "larapush" {
		t.Errorf("NATS.Subject = %q, want larapush", cfg.NATS.Subject)
	}

	pc := cfg.Push()
	if pc.Namespace != "com.example.app" || !pc.Debug {
		t.Errorf("Push() = %+v", pc)
	}
	if !cfg.Logger(os.Stderr).Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug logger should enable debug level")
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "larapush.yaml")
	yaml := `panel_url: https://panel.example.com/
namespace: com.example.app
timeout: 2s
store:
  backend: memory
http:
  addr: 127.0.0.1:8089
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.HTTP.Addr != "127.0.0.1:8089" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path should default to the home directory")
	}
	if cfg.Logger(os.Stderr).Enabled(t.Context(), slog.LevelDebug) {
		t.Error("non-debug logger should not enable debug level")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing panel", map[string]string{"LARAPUSH_NAMESPACE": "ns"}, "PanelURL"},
		{"missing namespace", map[string]string{"LARAPUSH_PANEL_URL": "https://p.example/"}, "Namespace"},
		{"bad backend", map[string]string{
			"LARAPUSH_PANEL_URL": "https://p.example/", "LARAPUSH_NAMESPACE": "ns", "LARAPUSH_STORE": "etcd",
		}, "Backend"},
		{"redis without addr", map[string]string{
			"LARAPUSH_PANEL_URL": "https://p.example/", "LARAPUSH_NAMESPACE": "ns", "LARAPUSH_STORE": "redis",
		}, "RedisAddr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"LARAPUSH_PANEL_URL", "LARAPUSH_NAMESPACE", "LARAPUSH_STORE"} {
				t.Setenv(k, "")
			}
			t.Setenv("LARAPUSH_STORE_PATH", filepath.Join(t.TempDir(), "p.db"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}
