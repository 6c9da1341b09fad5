package app

import (
	"fmt"
	"os"

	"draftsync/pkg/config"
	"draftsync/pkg/engine"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks
// light so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, DRAFTSYNC_DB_PATH env, or storage.db_path in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if ar := eff.Config.Sync.AutoResolve; ar != "" && ar != engine.AutoResolveOff && ar != engine.AutoResolveCaptionOnly {
		return fmt.Errorf("invalid sync.auto_resolve %q: use %q or %q", ar, engine.AutoResolveCaptionOnly, engine.AutoResolveOff)
	}

	if eff.Config.Sync.Periodic.Enabled && eff.Config.Remote.ContentURL == "" {
		return fmt.Errorf("periodic sync enabled but remote.content_url is not set")
	}

	return nil
}
