// Package engine implements the draft sync loop: it drains pending
// drafts to the content service, uploads local media first, and flags
// conflicts instead of overwriting newer server edits.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"draftsync/pkg/logger"
	"draftsync/pkg/metrics"
	"draftsync/pkg/models"
	"draftsync/pkg/remote"
	"draftsync/pkg/store"
)

// ContentService is the slice of the content client the engine needs.
type ContentService interface {
	Create(ctx context.Context, p models.ContentPayload) (*models.RemoteContent, error)
	Update(ctx context.Context, id string, p models.ContentPayload) (*models.RemoteContent, error)
	Fetch(ctx context.Context, id string) (*models.RemoteContent, error)
}

// MediaService uploads one local file and returns its remote URL.
type MediaService interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// OnlineChecker reports current connectivity. The network monitor
// satisfies it.
type OnlineChecker interface {
	IsOnlineStatus() bool
}

// AutoResolvePolicy selects which conflicts the engine may resolve
// without user input.
const (
	AutoResolveOff         = "off"
	AutoResolveCaptionOnly = "caption_only"
)

// Engine drains pending drafts to the remote services. Runs are
// serialized: a run that starts while another is in flight is rejected,
// not queued.
type Engine struct {
	store   *store.Store
	content ContentService
	media   MediaService
	online  OnlineChecker

	autoResolve string

	// syncing is the re-entrancy guard for sync runs.
	syncing atomic.Bool
}

// Options configures an Engine.
type Options struct {
	Store   *store.Store
	Content ContentService
	Media   MediaService
	Online  OnlineChecker
	// AutoResolve is "caption_only" or "off"; anything else means off.
	AutoResolve string
}

// New creates an Engine.
func New(opts Options) *Engine {
	return &Engine{
		store:       opts.Store,
		content:     opts.Content,
		media:       opts.Media,
		online:      opts.Online,
		autoResolve: opts.AutoResolve,
	}
}

// IsSyncing reports whether a sync run is currently in flight.
func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// SyncPendingDrafts runs one sync pass over every pending and failed
// draft, in insertion order. If a run is already in flight, or the
// device is offline, the pass is rejected with a result describing why;
// rejection is a result value, not an error, because it is an expected
// outcome the UI renders rather than a fault.
func (e *Engine) SyncPendingDrafts(ctx context.Context) models.SyncResult {
	if !e.syncing.CompareAndSwap(false, true) {
		logger.Debug("sync_run_rejected", "reason", "already_syncing")
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return models.SyncResult{
			Success: false,
			Errors: []models.SyncError{{
				Kind:   models.SyncErrGuardBusy,
				Detail: "a sync run is already in progress",
			}},
		}
	}
	defer e.syncing.Store(false)

	if e.online != nil && !e.online.IsOnlineStatus() {
		logger.Info("sync_run_rejected", "reason", "offline")
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return models.SyncResult{
			Success: false,
			Errors: []models.SyncError{{
				Kind:   models.SyncErrOffline,
				Detail: "device is offline",
			}},
		}
	}

	pending := e.store.GetPendingDrafts()
	logger.Info("sync_run_started", "pending", len(pending))
	res := models.SyncResult{Success: true, Errors: []models.SyncError{}}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync_run_canceled", "synced", res.SyncedCount)
			break
		}
		e.syncOne(ctx, &pending[i], &res)
	}
	if res.FailedCount > 0 || res.ConflictCount > 0 {
		res.Success = false
	}
	e.finishRun(&res)
	return res
}

// ForceSync is a thin alias for SyncPendingDrafts. Failed drafts are
// already part of the pending view, so a forced run retries them
// without touching the store outside the guard.
func (e *Engine) ForceSync(ctx context.Context) models.SyncResult {
	return e.SyncPendingDrafts(ctx)
}

// SyncDraft syncs a single draft by localId, subject to the same guard
// and offline checks as a full run.
func (e *Engine) SyncDraft(ctx context.Context, localID string) models.SyncResult {
	if !e.syncing.CompareAndSwap(false, true) {
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return models.SyncResult{
			Success: false,
			Errors: []models.SyncError{{
				Kind:   models.SyncErrGuardBusy,
				Detail: "a sync run is already in progress",
			}},
		}
	}
	defer e.syncing.Store(false)

	if e.online != nil && !e.online.IsOnlineStatus() {
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return models.SyncResult{
			Success: false,
			Errors: []models.SyncError{{
				Kind:    models.SyncErrOffline,
				DraftID: localID,
				Detail:  "device is offline",
			}},
		}
	}

	d := e.store.GetDraftByID(localID)
	if d == nil {
		return models.SyncResult{
			Success: false,
			Errors: []models.SyncError{{
				Kind:    models.SyncErrDraftNotFound,
				DraftID: localID,
				Detail:  "no draft with that localId",
			}},
		}
	}
	res := models.SyncResult{Success: true, Errors: []models.SyncError{}}
	e.syncOne(ctx, d, &res)
	if res.FailedCount > 0 || res.ConflictCount > 0 {
		res.Success = false
	}
	e.finishRun(&res)
	return res
}

func (e *Engine) finishRun(res *models.SyncResult) {
	outcome := "success"
	if !res.Success {
		outcome = "partial"
	}
	metrics.SyncRuns.WithLabelValues(outcome).Inc()
	st := e.store.GetSyncStats()
	metrics.PendingDrafts.Set(float64(st.PendingDrafts + st.FailedDrafts))
	logger.Info("sync_run_finished",
		"success", res.Success,
		"synced", res.SyncedCount,
		"failed", res.FailedCount,
		"conflicts", res.ConflictCount)
}

// syncOne pushes a single draft through the per-draft pipeline:
// mark syncing, conflict check, media upload, create-or-update,
// writeback. Each step's failure mode folds into res.
func (e *Engine) syncOne(ctx context.Context, d *models.Draft, res *models.SyncResult) {
	d.SyncStatus = models.SyncStatusSyncing
	if err := e.store.PutDraft(*d); err != nil {
		e.fail(d, res, models.SyncErrSubmitFailed, fmt.Sprintf("mark syncing: %v", err))
		return
	}

	if d.ID != "" {
		rc, err := e.content.Fetch(ctx, d.ID)
		switch {
		case errors.Is(err, remote.ErrNotFound):
			// Server record is gone; fall through and recreate. The
			// stale id is kept until the create succeeds so a failed
			// run can re-check.
			logger.Warn("server_record_missing", "local_id", d.LocalID, "id", d.ID)
			d.ID = ""
		case err != nil:
			e.fail(d, res, models.SyncErrConflictCheck, err.Error())
			return
		case rc.UpdatedAt > d.LastModified:
			d.SyncStatus = models.SyncStatusConflict
			d.ServerVersion = rc
			if werr := e.store.PutDraft(*d); werr != nil {
				logger.Error("conflict_writeback_failed", "local_id", d.LocalID, "error", werr)
			}
			res.ConflictCount++
			metrics.ConflictsDetected.Inc()
			logger.Warn("conflict_detected",
				"local_id", d.LocalID,
				"server_updated_at", rc.UpdatedAt,
				"last_modified", d.LastModified)
			return
		}
	}

	if len(d.MediaLocalPaths) > 0 {
		if err := e.uploadMedia(ctx, d); err != nil {
			e.fail(d, res, models.SyncErrUploadFailed, err.Error())
			return
		}
	}

	var (
		rc  *models.RemoteContent
		err error
	)
	if d.ID == "" {
		rc, err = e.content.Create(ctx, d.ContentPayload)
	} else {
		rc, err = e.content.Update(ctx, d.ID, d.ContentPayload)
		if errors.Is(err, remote.ErrNotFound) {
			rc, err = e.content.Create(ctx, d.ContentPayload)
		}
	}
	if err != nil {
		e.fail(d, res, models.SyncErrSubmitFailed, err.Error())
		return
	}

	d.ID = rc.ID
	d.IsOffline = false
	d.SyncStatus = models.SyncStatusSynced
	d.MediaLocalPaths = nil
	d.ServerVersion = nil
	if werr := e.store.PutDraft(*d); werr != nil {
		e.fail(d, res, models.SyncErrSubmitFailed, fmt.Sprintf("writeback: %v", werr))
		return
	}
	res.SyncedCount++
	metrics.DraftsSynced.Inc()
	logger.Info("draft_synced", "local_id", d.LocalID, "id", d.ID)
}

// uploadMedia uploads each local path in order and moves the resulting
// URLs onto the draft. On a mid-list failure the URLs uploaded so far
// are persisted, so a retry only uploads the remainder.
func (e *Engine) uploadMedia(ctx context.Context, d *models.Draft) error {
	remaining := append([]string{}, d.MediaLocalPaths...)
	for len(remaining) > 0 {
		path := remaining[0]
		url, err := e.media.Upload(ctx, path)
		if err != nil {
			metrics.MediaUploads.WithLabelValues("failure").Inc()
			d.MediaLocalPaths = remaining
			if werr := e.store.PutDraft(*d); werr != nil {
				logger.Error("media_progress_writeback_failed", "local_id", d.LocalID, "error", werr)
			}
			return fmt.Errorf("upload %s: %w", path, err)
		}
		metrics.MediaUploads.WithLabelValues("success").Inc()
		d.MediaURLs = append(d.MediaURLs, url)
		remaining = remaining[1:]
	}
	d.MediaLocalPaths = nil
	return nil
}

// fail records a per-draft failure in both the store and the run result.
func (e *Engine) fail(d *models.Draft, res *models.SyncResult, kind models.SyncErrorKind, detail string) {
	d.SyncStatus = models.SyncStatusFailed
	if err := e.store.PutDraft(*d); err != nil {
		logger.Error("failed_status_writeback_failed", "local_id", d.LocalID, "error", err)
	}
	res.FailedCount++
	res.Errors = append(res.Errors, models.SyncError{
		Kind:       kind,
		DraftID:    d.LocalID,
		DraftTitle: d.Title,
		Detail:     detail,
	})
	metrics.DraftsFailed.WithLabelValues(string(kind)).Inc()
	logger.Error("draft_sync_failed", "local_id", d.LocalID, "kind", string(kind), "detail", detail)
}
