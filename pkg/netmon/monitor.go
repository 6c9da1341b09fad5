// Package netmon tracks connectivity and triggers recovery sync when the
// device regains a connection.
package netmon

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"draftsync/pkg/logger"
	"draftsync/pkg/metrics"
)

// Prober checks reachability of the remote service. The content client's
// Ping satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor maintains the online flag and fires the registered trigger on
// offline-to-online transitions. Events arrive either from the platform
// connectivity layer via SetOnline or from the optional probe loop.
type Monitor struct {
	mu      sync.RWMutex
	online  bool
	trigger func()

	// limiter damps the reconnect trigger so a flapping link cannot
	// start sync storms.
	limiter *rate.Limiter

	prober        Prober
	probeInterval time.Duration
}

// Options configures a Monitor.
type Options struct {
	// InitialOnline seeds the flag from the platform's current state.
	InitialOnline bool
	// TriggerRPS/TriggerBurst configure trigger damping; zero values get
	// conservative defaults (one trigger per 10s, burst 1).
	TriggerRPS   float64
	TriggerBurst int

	Prober        Prober
	ProbeInterval time.Duration
}

// New creates a Monitor. The trigger is fire-and-forget: it runs in its
// own goroutine and its result is not awaited.
func New(opts Options) *Monitor {
	rps := opts.TriggerRPS
	if rps <= 0 {
		rps = 0.1
	}
	burst := opts.TriggerBurst
	if burst <= 0 {
		burst = 1
	}
	iv := opts.ProbeInterval
	if iv <= 0 {
		iv = 30 * time.Second
	}
	m := &Monitor{
		online:        opts.InitialOnline,
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		prober:        opts.Prober,
		probeInterval: iv,
	}
	if m.online {
		metrics.Online.Set(1)
	}
	return m
}

// OnRegainedConnectivity registers the function invoked when the monitor
// sees an offline-to-online transition.
func (m *Monitor) OnRegainedConnectivity(fn func()) {
	m.mu.Lock()
	m.trigger = fn
	m.mu.Unlock()
}

// IsOnlineStatus exposes the current flag for UI display and for the
// sync engine's offline guard.
func (m *Monitor) IsOnlineStatus() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline ingests a connectivity-change event. On an offline-to-online
// transition the registered trigger fires in a goroutine, subject to
// damping.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	trigger := m.trigger
	m.mu.Unlock()

	if online {
		metrics.Online.Set(1)
	} else {
		metrics.Online.Set(0)
	}
	if was == online {
		return
	}
	logger.Info("connectivity_changed", "was_online", was, "online", online)
	if !was && online && trigger != nil {
		if !m.limiter.Allow() {
			logger.Debug("reconnect_trigger_damped")
			return
		}
		go trigger()
	}
}

// Start runs the active probe loop until ctx is canceled. It is optional;
// deployments where the platform pushes connectivity events can skip it.
// The loop follows a simple poll cycle: probe, fold the result into the
// flag, sleep.
func (m *Monitor) Start(ctx context.Context) {
	if m.prober == nil {
		return
	}
	logger.Info("netmon_probe_started", "interval", m.probeInterval.String())
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("netmon_probe_stopping")
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, m.probeInterval)
			err := m.prober.Ping(probeCtx)
			cancel()
			m.SetOnline(err == nil)
		}
	}
}
