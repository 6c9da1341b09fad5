package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  address: 0.0.0.0
  port: 9999
storage:
  db_path: /var/lib/draftsync
remote:
  content_url: https://api.example.com
  media_url: https://media.example.com
  timeout: 30s
  max_upload_bytes: 10MB
sync:
  auto_resolve: "off"
  periodic:
    enabled: true
    cron: "*/5 * * * *"
network:
  probe:
    enabled: true
    interval: 45s
security:
  api_keys: [k1, k2]
  rate_limit:
    rps: 7
    burst: 3
validation:
  require_title: true
  max_caption_len: 2200
logging:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9999" {
		t.Fatalf("addr: %s", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/var/lib/draftsync" {
		t.Fatalf("db path: %s", cfg.Storage.DBPath)
	}
	if time.Duration(cfg.Remote.Timeout) != 30*time.Second {
		t.Fatalf("timeout: %v", cfg.Remote.Timeout)
	}
	if int64(cfg.Remote.MaxUploadBytes) != 10*1000*1000 {
		t.Fatalf("max upload: %d", cfg.Remote.MaxUploadBytes)
	}
	if cfg.Sync.AutoResolve != "off" || !cfg.Sync.Periodic.Enabled {
		t.Fatalf("sync block: %+v", cfg.Sync)
	}
	if time.Duration(cfg.Network.Probe.Interval) != 45*time.Second {
		t.Fatalf("probe interval: %v", cfg.Network.Probe.Interval)
	}
	if len(cfg.Security.APIKeys) != 2 || cfg.Security.RateLimit.RPS != 7 {
		t.Fatalf("security block: %+v", cfg.Security)
	}
	if !cfg.Validation.RequireTitle || cfg.Validation.MaxCaptionLen != 2200 {
		t.Fatalf("validation block: %+v", cfg.Validation)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level: %s", cfg.Logging.Level)
	}
}

func TestDefaultAddr(t *testing.T) {
	var cfg Config
	if cfg.Addr() != "127.0.0.1:8390" {
		t.Fatalf("default addr: %s", cfg.Addr())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRAFTSYNC_ADDR", "10.0.0.5:9000")
	t.Setenv("DRAFTSYNC_DB_PATH", "/tmp/drafts")
	t.Setenv("DRAFTSYNC_CONTENT_URL", "https://env.example.com")
	t.Setenv("DRAFTSYNC_AUTO_RESOLVE", "OFF")
	t.Setenv("DRAFTSYNC_API_KEYS", "a, b ,c")
	t.Setenv("DRAFTSYNC_RATE_RPS", "2.5")

	var cfg Config
	if !LoadEnvOverrides(&cfg) {
		t.Fatalf("env overrides not detected")
	}
	if cfg.Addr() != "10.0.0.5:9000" {
		t.Fatalf("addr override: %s", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/tmp/drafts" {
		t.Fatalf("db override: %s", cfg.Storage.DBPath)
	}
	if cfg.Remote.ContentURL != "https://env.example.com" {
		t.Fatalf("content url override: %s", cfg.Remote.ContentURL)
	}
	if cfg.Sync.AutoResolve != "off" {
		t.Fatalf("auto resolve not normalized: %q", cfg.Sync.AutoResolve)
	}
	if len(cfg.Security.APIKeys) != 3 || cfg.Security.APIKeys[1] != "b" {
		t.Fatalf("api keys: %+v", cfg.Security.APIKeys)
	}
	if cfg.Security.RateLimit.RPS != 2.5 {
		t.Fatalf("rps: %v", cfg.Security.RateLimit.RPS)
	}
}

func TestLoadEffectiveMissingFile(t *testing.T) {
	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg == nil || envUsed {
		t.Fatalf("unexpected result: cfg=%v env=%v", cfg, envUsed)
	}
}
