// Package metrics exposes prometheus instruments for sync activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts completed sync runs by outcome ("success",
	// "partial", "rejected").
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftsync_sync_runs_total",
		Help: "Completed sync runs by outcome.",
	}, []string{"outcome"})

	// DraftsSynced counts drafts successfully reconciled with the server.
	DraftsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftsync_drafts_synced_total",
		Help: "Drafts successfully synced to the content service.",
	})

	// DraftsFailed counts per-draft sync failures by error kind.
	DraftsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftsync_drafts_failed_total",
		Help: "Per-draft sync failures by error kind.",
	}, []string{"kind"})

	// ConflictsDetected counts conflicts flagged during sync runs.
	ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftsync_conflicts_detected_total",
		Help: "Conflicts detected against the server during sync.",
	})

	// ConflictsResolved counts resolutions by strategy.
	ConflictsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftsync_conflicts_resolved_total",
		Help: "Conflicts resolved by strategy.",
	}, []string{"strategy"})

	// MediaUploads counts media upload attempts by result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftsync_media_uploads_total",
		Help: "Media upload attempts by result.",
	}, []string{"result"})

	// PendingDrafts tracks the pending+failed backlog after each run.
	PendingDrafts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "draftsync_pending_drafts",
		Help: "Drafts awaiting sync (pending or failed).",
	})

	// Online reflects the network monitor's current view (1 online, 0 offline).
	Online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "draftsync_network_online",
		Help: "Connectivity as seen by the network monitor.",
	})
)
