package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Remote     RemoteConfig     `yaml:"remote"`
	Sync       SyncConfig       `yaml:"sync"`
	Network    NetworkConfig    `yaml:"network"`
	Security   SecurityConfig   `yaml:"security"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds http and tls settings for the local control API.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// StorageConfig holds the embedded draft database location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// RemoteConfig holds the external content and media service endpoints.
type RemoteConfig struct {
	ContentURL     string    `yaml:"content_url"`
	MediaURL       string    `yaml:"media_url"`
	APIToken       string    `yaml:"api_token"`
	Timeout        Duration  `yaml:"timeout"`
	MaxUploadBytes SizeBytes `yaml:"max_upload_bytes"`
}

// SyncConfig controls conflict policy and the periodic sync schedule.
type SyncConfig struct {
	// AutoResolve selects the auto-resolution policy: "caption_only"
	// (default) or "off".
	AutoResolve string         `yaml:"auto_resolve"`
	Periodic    PeriodicConfig `yaml:"periodic"`
}

// PeriodicConfig holds the cron-driven background sync settings.
type PeriodicConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// NetworkConfig controls the connectivity monitor.
type NetworkConfig struct {
	Probe struct {
		Enabled  bool     `yaml:"enabled"`
		Interval Duration `yaml:"interval"`
	} `yaml:"probe"`
	// TriggerRPS/TriggerBurst damp the reconnect-triggered sync so a
	// flapping link does not hammer the engine.
	TriggerRPS   float64 `yaml:"trigger_rps"`
	TriggerBurst int     `yaml:"trigger_burst"`
}

// SecurityConfig holds control API access settings.
type SecurityConfig struct {
	APIKeys []string `yaml:"api_keys"`
	CORS    struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// ValidationConfig holds draft payload validation rules. Zero values
// disable a check.
type ValidationConfig struct {
	RequireTitle  bool     `yaml:"require_title"`
	MaxTitleLen   int      `yaml:"max_title_len"`
	MaxCaptionLen int      `yaml:"max_caption_len"`
	ContentTypes  []string `yaml:"content_types"`
	Platforms     []string `yaml:"platforms"`
	MaxMediaItems int      `yaml:"max_media_items"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Addr returns host:port for the control API server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "127.0.0.1"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8390
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// EffectiveConfigResult bundles the merged config with the values main
// resolved from flags/env and a note about where they came from.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string
}

// Load reads and parses the yaml config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", "127.0.0.1:8390", "control API listen address")
	dbPtr := flag.String("db", "./.drafts", "draft database path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// LoadEnvOverrides applies DRAFTSYNC_* environment overrides onto the
// provided cfg and reports whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("DRAFTSYNC_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("DRAFTSYNC_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("DRAFTSYNC_CONTENT_URL"); v != "" {
		envUsed = true
		cfg.Remote.ContentURL = v
	}
	if v := os.Getenv("DRAFTSYNC_MEDIA_URL"); v != "" {
		envUsed = true
		cfg.Remote.MediaURL = v
	}
	if v := os.Getenv("DRAFTSYNC_API_TOKEN"); v != "" {
		envUsed = true
		cfg.Remote.APIToken = v
	}
	if v := os.Getenv("DRAFTSYNC_AUTO_RESOLVE"); v != "" {
		envUsed = true
		cfg.Sync.AutoResolve = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DRAFTSYNC_SYNC_CRON"); v != "" {
		envUsed = true
		cfg.Sync.Periodic.Enabled = true
		cfg.Sync.Periodic.Cron = v
	}
	if v := os.Getenv("DRAFTSYNC_API_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys = parseList(v)
	}
	if v := os.Getenv("DRAFTSYNC_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("DRAFTSYNC_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("DRAFTSYNC_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if c := os.Getenv("DRAFTSYNC_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("DRAFTSYNC_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	if v := os.Getenv("DRAFTSYNC_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	return envUsed
}

// LoadEffective loads config from the given path (file) and applies
// environment overrides. A missing file is not an error; env and flags
// can fully describe a deployment.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and DRAFTSYNC_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("DRAFTSYNC_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
