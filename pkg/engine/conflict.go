package engine

import (
	"context"
	"fmt"
	"reflect"

	"draftsync/pkg/logger"
	"draftsync/pkg/metrics"
	"draftsync/pkg/models"
	"draftsync/pkg/utils"
)

// ResolveConflict applies the chosen strategy to a conflicted draft.
// keep_local re-pushes the local payload, use_server replaces local
// content with the server snapshot, merge pushes a caller-supplied
// merged payload. Failures are reported as *models.SyncError so the API
// layer can map kinds to status codes.
func (e *Engine) ResolveConflict(ctx context.Context, localID string, strategy models.ResolutionStrategy, merged *models.ContentPayload) *models.SyncError {
	d := e.store.GetDraftByID(localID)
	if d == nil {
		return &models.SyncError{Kind: models.SyncErrDraftNotFound, DraftID: localID, Detail: "no draft with that localId"}
	}
	if d.SyncStatus != models.SyncStatusConflict || d.ServerVersion == nil {
		return &models.SyncError{Kind: models.SyncErrInvalidResolution, DraftID: localID, Detail: "draft is not in conflict"}
	}

	switch strategy {
	case models.ResolveKeepLocal:
		return e.pushResolution(ctx, d, d.ContentPayload, strategy)

	case models.ResolveUseServer:
		sv := d.ServerVersion
		d.ContentPayload = sv.Payload()
		d.ID = sv.ID
		// Adopt the server's clock so a later local edit compares
		// against the version we just accepted.
		d.LastModified = sv.UpdatedAt
		d.IsOffline = false
		d.SyncStatus = models.SyncStatusSynced
		d.ServerVersion = nil
		d.MediaLocalPaths = nil
		if err := e.store.PutDraft(*d); err != nil {
			return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: localID, Detail: err.Error()}
		}
		metrics.ConflictsResolved.WithLabelValues(string(strategy)).Inc()
		logger.Info("conflict_resolved", "local_id", localID, "strategy", string(strategy))
		return nil

	case models.ResolveMerge:
		if merged == nil {
			return &models.SyncError{Kind: models.SyncErrInvalidResolution, DraftID: localID, Detail: "merge resolution requires a merged payload"}
		}
		// The merge was built against the server snapshot, so the draft
		// adopts that snapshot's clock and goes back through the normal
		// single-draft sync path. A server edit made after the snapshot
		// re-flags the conflict instead of being clobbered.
		sv := d.ServerVersion
		d.ContentPayload = *merged
		d.SyncStatus = models.SyncStatusPending
		d.ServerVersion = nil
		d.LastModified = sv.UpdatedAt
		if err := e.store.PutDraft(*d); err != nil {
			return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: localID, Detail: err.Error()}
		}
		res := e.SyncDraft(ctx, localID)
		if res.Success {
			metrics.ConflictsResolved.WithLabelValues(string(strategy)).Inc()
			logger.Info("conflict_resolved", "local_id", localID, "strategy", string(strategy))
			return nil
		}
		if res.ConflictCount > 0 {
			return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: localID, Detail: "server changed during resolution; conflict re-flagged"}
		}
		if len(res.Errors) > 0 {
			serr := res.Errors[0]
			return &serr
		}
		return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: localID, Detail: "merged draft did not sync"}

	default:
		return &models.SyncError{Kind: models.SyncErrInvalidResolution, DraftID: localID, Detail: fmt.Sprintf("unknown strategy %q", strategy)}
	}
}

// pushResolution submits the winning payload to the server and writes
// the synced draft back. The draft stays conflicted if the push fails,
// so the user can retry or pick another strategy.
func (e *Engine) pushResolution(ctx context.Context, d *models.Draft, p models.ContentPayload, strategy models.ResolutionStrategy) *models.SyncError {
	rc, err := e.content.Update(ctx, d.ID, p)
	if err != nil {
		return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: d.LocalID, Detail: err.Error()}
	}
	d.ID = rc.ID
	d.IsOffline = false
	d.SyncStatus = models.SyncStatusSynced
	d.ServerVersion = nil
	d.LastModified = utils.NowMillis()
	if werr := e.store.PutDraft(*d); werr != nil {
		return &models.SyncError{Kind: models.SyncErrResolutionRejected, DraftID: d.LocalID, Detail: werr.Error()}
	}
	metrics.ConflictsResolved.WithLabelValues(string(strategy)).Inc()
	logger.Info("conflict_resolved", "local_id", d.LocalID, "strategy", string(strategy))
	return nil
}

// GetConflictSuggestions describes every flagged conflict: which fields
// diverge between the local draft and the server snapshot, and whether
// the configured policy allows resolving it automatically.
func (e *Engine) GetConflictSuggestions() []models.ConflictSuggestion {
	out := []models.ConflictSuggestion{}
	for _, d := range e.store.GetConflictDrafts() {
		if d.ServerVersion == nil {
			continue
		}
		changed := changedFields(d.ContentPayload, d.ServerVersion.Payload())
		s := models.ConflictSuggestion{
			LocalID:       d.LocalID,
			Title:         d.Title,
			ChangedFields: changed,
			ManualMerge:   true,
		}
		if e.autoResolve == AutoResolveCaptionOnly && captionOnly(changed) {
			s.CanAutoResolve = true
			s.Suggestion = models.ResolveKeepLocal
			s.ManualMerge = false
		}
		out = append(out, s)
	}
	return out
}

// AutoResolveConflicts resolves every conflict the policy marks safe and
// returns how many were resolved. With auto-resolve off it is a no-op.
func (e *Engine) AutoResolveConflicts(ctx context.Context) int {
	resolved := 0
	for _, s := range e.GetConflictSuggestions() {
		if !s.CanAutoResolve {
			continue
		}
		if err := e.ResolveConflict(ctx, s.LocalID, s.Suggestion, nil); err != nil {
			logger.Warn("auto_resolve_failed", "local_id", s.LocalID, "error", err.Error())
			continue
		}
		resolved++
	}
	if resolved > 0 {
		logger.Info("conflicts_auto_resolved", "resolved", resolved)
	}
	return resolved
}

func changedFields(local, server models.ContentPayload) []string {
	fields := []string{}
	if local.Title != server.Title {
		fields = append(fields, "title")
	}
	if local.Caption != server.Caption {
		fields = append(fields, "caption")
	}
	if local.ContentType != server.ContentType {
		fields = append(fields, "content_type")
	}
	if !reflect.DeepEqual(normalize(local.MediaURLs), normalize(server.MediaURLs)) {
		fields = append(fields, "media_urls")
	}
	if !reflect.DeepEqual(normalize(local.Platforms), normalize(server.Platforms)) {
		fields = append(fields, "platforms")
	}
	if local.ScheduledTime != server.ScheduledTime {
		fields = append(fields, "scheduled_time")
	}
	return fields
}

func normalize(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func captionOnly(changed []string) bool {
	return len(changed) == 1 && changed[0] == "caption"
}
