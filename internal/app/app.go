package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"draftsync/internal/scheduler"
	"draftsync/pkg/config"
	"draftsync/pkg/engine"
	"draftsync/pkg/logger"
	"draftsync/pkg/netmon"
	"draftsync/pkg/remote"
	"draftsync/pkg/state"
	"draftsync/pkg/store"
	"draftsync/pkg/validation"
)

// App encapsulates the daemon components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	store   *store.Store
	content *remote.ContentClient
	media   *remote.MediaClient
	monitor *netmon.Monitor
	engine  *engine.Engine

	srv *http.Server
}

// New initializes resources that do not require a running context
// (state dirs, DB, validation rules, clients). It does not start the
// monitor, scheduler or HTTP server; call Run to start those and block
// until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	initValidation(eff)

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("state layout: %w", err)
	}
	st, err := store.Open(filepath.Join(eff.DBPath, "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open draft db at %s: %w", eff.DBPath, err)
	}

	rc := eff.Config.Remote
	content := remote.NewContentClient(rc.ContentURL, rc.APIToken, time.Duration(rc.Timeout))
	media := remote.NewMediaClient(rc.MediaURL, rc.APIToken, time.Duration(rc.Timeout), int64(rc.MaxUploadBytes))

	nc := eff.Config.Network
	var prober netmon.Prober
	if nc.Probe.Enabled {
		prober = content
	}
	monitor := netmon.New(netmon.Options{
		InitialOnline: true,
		TriggerRPS:    nc.TriggerRPS,
		TriggerBurst:  nc.TriggerBurst,
		Prober:        prober,
		ProbeInterval: time.Duration(nc.Probe.Interval),
	})

	eng := engine.New(engine.Options{
		Store:       st,
		Content:     content,
		Media:       media,
		Online:      monitor,
		AutoResolve: autoResolvePolicy(eff.Config.Sync.AutoResolve),
	})

	// Reconnects drain the backlog automatically.
	monitor.OnRegainedConnectivity(func() {
		res := eng.SyncPendingDrafts(context.Background())
		logger.Info("reconnect_sync_run",
			"success", res.Success,
			"synced", res.SyncedCount,
			"failed", res.FailedCount,
			"conflicts", res.ConflictCount)
	})

	return &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		store:     st,
		content:   content,
		media:     media,
		monitor:   monitor,
		engine:    eng,
	}, nil
}

// Run starts the network probe, the periodic sync scheduler and the
// HTTP server, and blocks until ctx is canceled or a fatal server error
// occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	if a.eff.Config.Network.Probe.Enabled {
		go a.monitor.Start(ctx)
	}

	cancelSched, err := scheduler.Start(ctx, a.eff.Config.Sync.Periodic, a.engine)
	if err != nil {
		return err
	}
	defer cancelSched()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(sctx)
	}
	if err := a.store.Close(); err != nil {
		logger.Error("draft_db_close_failed", "error", err)
	}
}

func autoResolvePolicy(v string) string {
	if v == engine.AutoResolveOff {
		return engine.AutoResolveOff
	}
	return engine.AutoResolveCaptionOnly
}

// initValidation builds validation rules from config and sets them globally.
func initValidation(eff config.EffectiveConfigResult) {
	v := eff.Config.Validation
	validation.SetRules(validation.Rules{
		RequireTitle:  v.RequireTitle,
		MaxTitleLen:   v.MaxTitleLen,
		MaxCaptionLen: v.MaxCaptionLen,
		ContentTypes:  append([]string{}, v.ContentTypes...),
		Platforms:     append([]string{}, v.Platforms...),
		MaxMediaItems: v.MaxMediaItems,
	})
}
