package models

// SyncStatus is the per-draft sync state machine.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusSyncing  SyncStatus = "syncing"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusFailed   SyncStatus = "failed"
	SyncStatusConflict SyncStatus = "conflict"
)

// ContentPayload is the content body mirrored to and from the remote
// content service.
type ContentPayload struct {
	Title         string   `json:"title"`
	Caption       string   `json:"caption"`
	ContentType   string   `json:"content_type"`
	MediaURLs     []string `json:"media_urls"`
	Platforms     []string `json:"platforms"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
}

// Draft is a locally persisted content draft. JSON field names match the
// on-disk row format, which doubles as the export/import format.
type Draft struct {
	// LocalID is client-generated at save time and immutable for the
	// draft's local lifetime.
	LocalID string `json:"localId"`
	// ID is the server-assigned identifier; empty until first successful sync.
	ID string `json:"id"`

	ContentPayload

	// MediaLocalPaths holds local file references not yet uploaded.
	MediaLocalPaths []string `json:"mediaLocalPaths,omitempty"`

	// Timestamp is the creation time, LastModified the last local mutation
	// time (both epoch millis). LastModified is the conflict-detection clock.
	Timestamp    int64 `json:"timestamp"`
	LastModified int64 `json:"lastModified"`

	// IsOffline is true until the draft has a confirmed server counterpart.
	IsOffline  bool       `json:"isOffline"`
	SyncStatus SyncStatus `json:"syncStatus"`

	// ServerVersion snapshots the server record when a conflict is
	// detected; cleared once resolved.
	ServerVersion *RemoteContent `json:"serverVersion,omitempty"`
}

// RemoteContent is the content service's record representation.
type RemoteContent struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Caption       string   `json:"caption"`
	ContentType   string   `json:"content_type"`
	MediaURLs     []string `json:"media_urls"`
	Platforms     []string `json:"platforms"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
	// UpdatedAt is the server's last-modified clock (epoch millis).
	UpdatedAt int64 `json:"updated_at"`
}

// Payload returns the content fields of the remote record.
func (rc *RemoteContent) Payload() ContentPayload {
	return ContentPayload{
		Title:         rc.Title,
		Caption:       rc.Caption,
		ContentType:   rc.ContentType,
		MediaURLs:     append([]string{}, rc.MediaURLs...),
		Platforms:     append([]string{}, rc.Platforms...),
		ScheduledTime: rc.ScheduledTime,
	}
}

// DraftUpdate is a partial update applied to a stored draft. Nil fields
// are left untouched.
type DraftUpdate struct {
	Title           *string     `json:"title,omitempty"`
	Caption         *string     `json:"caption,omitempty"`
	ContentType     *string     `json:"content_type,omitempty"`
	MediaURLs       *[]string   `json:"media_urls,omitempty"`
	Platforms       *[]string   `json:"platforms,omitempty"`
	ScheduledTime   *string     `json:"scheduled_time,omitempty"`
	MediaLocalPaths *[]string   `json:"mediaLocalPaths,omitempty"`
	SyncStatus      *SyncStatus `json:"syncStatus,omitempty"`
}

// Apply merges the update into d and reports whether any field changed.
func (u DraftUpdate) Apply(d *Draft) bool {
	changed := false
	if u.Title != nil && *u.Title != d.Title {
		d.Title = *u.Title
		changed = true
	}
	if u.Caption != nil && *u.Caption != d.Caption {
		d.Caption = *u.Caption
		changed = true
	}
	if u.ContentType != nil && *u.ContentType != d.ContentType {
		d.ContentType = *u.ContentType
		changed = true
	}
	if u.MediaURLs != nil {
		d.MediaURLs = append([]string{}, (*u.MediaURLs)...)
		changed = true
	}
	if u.Platforms != nil {
		d.Platforms = append([]string{}, (*u.Platforms)...)
		changed = true
	}
	if u.ScheduledTime != nil && *u.ScheduledTime != d.ScheduledTime {
		d.ScheduledTime = *u.ScheduledTime
		changed = true
	}
	if u.MediaLocalPaths != nil {
		d.MediaLocalPaths = append([]string{}, (*u.MediaLocalPaths)...)
		changed = true
	}
	if u.SyncStatus != nil {
		d.SyncStatus = *u.SyncStatus
		changed = true
	}
	return changed
}
