package models

import "fmt"

// SyncErrorKind classifies a sync failure so callers can branch on kind
// rather than parse message strings.
type SyncErrorKind string

const (
	SyncErrGuardBusy          SyncErrorKind = "guard_busy"
	SyncErrOffline            SyncErrorKind = "offline"
	SyncErrUploadFailed       SyncErrorKind = "upload_failed"
	SyncErrSubmitFailed       SyncErrorKind = "submit_failed"
	SyncErrConflictCheck      SyncErrorKind = "conflict_check_failed"
	SyncErrDraftNotFound      SyncErrorKind = "draft_not_found"
	SyncErrInvalidResolution  SyncErrorKind = "invalid_resolution"
	SyncErrResolutionRejected SyncErrorKind = "resolution_rejected"
)

// SyncError is a single per-draft failure recorded during a sync run.
type SyncError struct {
	Kind       SyncErrorKind `json:"kind"`
	DraftID    string        `json:"draftId,omitempty"`
	DraftTitle string        `json:"draftTitle,omitempty"`
	Detail     string        `json:"detail"`
}

func (e SyncError) Error() string {
	if e.DraftTitle != "" {
		return fmt.Sprintf("%s: draft %q: %s", e.Kind, e.DraftTitle, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Success       bool        `json:"success"`
	SyncedCount   int         `json:"syncedCount"`
	FailedCount   int         `json:"failedCount"`
	ConflictCount int         `json:"conflictCount"`
	Errors        []SyncError `json:"errors"`
}

// SyncStats are aggregate draft counts computed fresh from the store.
type SyncStats struct {
	TotalDrafts    int `json:"totalDrafts"`
	PendingDrafts  int `json:"pendingDrafts"`
	SyncedDrafts   int `json:"syncedDrafts"`
	FailedDrafts   int `json:"failedDrafts"`
	ConflictDrafts int `json:"conflictDrafts"`
}

// ResolutionStrategy selects how a flagged conflict is resolved.
type ResolutionStrategy string

const (
	ResolveKeepLocal ResolutionStrategy = "keep_local"
	ResolveUseServer ResolutionStrategy = "use_server"
	ResolveMerge     ResolutionStrategy = "merge"
)

// ConflictSuggestion describes a flagged conflict and whether policy
// considers it safe to auto-resolve.
type ConflictSuggestion struct {
	LocalID        string             `json:"localId"`
	Title          string             `json:"title"`
	ChangedFields  []string           `json:"changedFields"`
	CanAutoResolve bool               `json:"canAutoResolve"`
	Suggestion     ResolutionStrategy `json:"suggestion,omitempty"`
	ManualMerge    bool               `json:"manualMerge"`
}
