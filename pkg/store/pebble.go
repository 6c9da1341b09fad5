package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"draftsync/pkg/logger"
	"draftsync/pkg/models"
	"draftsync/pkg/utils"
)

// Row key layout:
//   draft:<unix_nano_padded>-<seq>  -> draft JSON (insertion-ordered)
//   idx:draft:<localId>            -> primary row key
// Iterating the draft: prefix therefore yields insertion order without a
// separate index structure.

const (
	draftPrefix = "draft:"
	idxPrefix   = "idx:draft:"
)

// Store is a durable draft collection backed by an embedded pebble DB.
type Store struct {
	db  *pebble.DB
	seq uint64
	// mu serializes read-modify-write mutations across the row + index pair.
	mu sync.Mutex
}

// Open opens (or creates) a pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_draft_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("draft_db_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("draft_db_opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying pebble DB.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("draft_db_closed")
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

func (s *Store) rowKey(createdMillis int64) []byte {
	n := atomic.AddUint64(&s.seq, 1)
	return []byte(fmt.Sprintf("%s%020d-%06d", draftPrefix, createdMillis*int64(time.Millisecond), n))
}

func idxKey(localID string) []byte {
	return []byte(idxPrefix + localID)
}

// SaveDraftOffline persists a new draft from the given content payload and
// optional local media paths. It generates the localId, stamps timestamps
// and returns the localId. A persistence failure is returned as an error;
// callers must treat it as non-retryable without user intervention.
func (s *Store) SaveDraftOffline(payload models.ContentPayload, mediaLocalPaths []string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("draft store not opened; call store.Open first")
	}
	now := utils.NowMillis()
	d := models.Draft{
		LocalID:         utils.GenDraftID(),
		ContentPayload:  payload,
		MediaLocalPaths: append([]string{}, mediaLocalPaths...),
		Timestamp:       now,
		LastModified:    now,
		IsOffline:       true,
		SyncStatus:      models.SyncStatusPending,
	}
	if d.MediaURLs == nil {
		d.MediaURLs = []string{}
	}
	if d.Platforms == nil {
		d.Platforms = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insert(d); err != nil {
		logger.Error("save_draft_failed", "local_id", d.LocalID, "error", err)
		return "", err
	}
	logger.Info("draft_saved", "local_id", d.LocalID, "title", d.Title)
	return d.LocalID, nil
}

// insert appends the draft row and its localId index entry. Caller holds mu.
func (s *Store) insert(d models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	key := s.rowKey(d.Timestamp)
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return err
	}
	if err := s.db.Set(idxKey(d.LocalID), key, pebble.Sync); err != nil {
		return err
	}
	return nil
}

// lookup resolves a localId to its primary row key and decoded draft.
// Caller holds mu (or tolerates a stale read).
func (s *Store) lookup(localID string) ([]byte, *models.Draft) {
	if s.db == nil {
		return nil, nil
	}
	kv, closer, err := s.db.Get(idxKey(localID))
	if err != nil {
		return nil, nil
	}
	key := append([]byte(nil), kv...)
	_ = closer.Close()

	v, closer, err := s.db.Get(key)
	if err != nil {
		return nil, nil
	}
	defer closer.Close()
	var d models.Draft
	if err := json.Unmarshal(v, &d); err != nil {
		logger.Warn("draft_row_corrupt", "local_id", localID, "error", err)
		return nil, nil
	}
	return key, &d
}

// UpdateDraftOffline merges the partial update into the matching draft,
// bumps lastModified and demotes a synced draft back to pending so the
// edit is picked up by the next sync run. It returns false when no draft
// matches the localId.
func (s *Store) UpdateDraftOffline(localID string, upd models.DraftUpdate) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("draft store not opened; call store.Open first")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, d := s.lookup(localID)
	if d == nil {
		return false, nil
	}
	explicitStatus := upd.SyncStatus != nil
	upd.Apply(d)
	d.LastModified = utils.NowMillis()
	if !explicitStatus && d.SyncStatus == models.SyncStatusSynced {
		d.SyncStatus = models.SyncStatusPending
	}
	if err := s.writeRow(key, d); err != nil {
		logger.Error("update_draft_failed", "local_id", localID, "error", err)
		return false, err
	}
	logger.Debug("draft_updated", "local_id", localID, "status", string(d.SyncStatus))
	return true, nil
}

// PutDraft overwrites the stored draft identified by d.LocalID without
// touching lastModified. The sync engine uses it for status transitions
// and server-side field writebacks, which must not look like local edits
// to the conflict-detection clock.
func (s *Store) PutDraft(d models.Draft) error {
	if s.db == nil {
		return fmt.Errorf("draft store not opened; call store.Open first")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, cur := s.lookup(d.LocalID)
	if cur == nil {
		return fmt.Errorf("draft not found: %s", d.LocalID)
	}
	return s.writeRow(key, &d)
}

func (s *Store) writeRow(key []byte, d *models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return s.db.Set(key, data, pebble.Sync)
}

// DeleteDraft removes the matching draft row and index entry; returns
// whether a match existed.
func (s *Store) DeleteDraft(localID string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("draft store not opened; call store.Open first")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, d := s.lookup(localID)
	if d == nil {
		return false, nil
	}
	if err := s.db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_draft_failed", "local_id", localID, "error", err)
		return false, err
	}
	if err := s.db.Delete(idxKey(localID), pebble.Sync); err != nil {
		logger.Error("delete_draft_index_failed", "local_id", localID, "error", err)
		return false, err
	}
	logger.Info("draft_deleted", "local_id", localID)
	return true, nil
}

// GetAllDrafts returns the full collection in insertion order. Read
// failures and corrupt rows degrade to an empty/partial result rather
// than an error so a bad row can never take the UI down.
func (s *Store) GetAllDrafts() []models.Draft {
	out := []models.Draft{}
	if s.db == nil {
		return out
	}
	prefix := []byte(draftPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		logger.Error("draft_iter_failed", "error", err)
		return out
	}
	defer iter.Close()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		var d models.Draft
		if err := json.Unmarshal(v, &d); err != nil {
			logger.Warn("draft_row_corrupt", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, d)
	}
	if err := iter.Error(); err != nil {
		logger.Error("draft_iter_error", "error", err)
	}
	return out
}

// GetPendingDrafts returns drafts with status pending or failed, in
// insertion order. These are the drafts a sync run picks up.
func (s *Store) GetPendingDrafts() []models.Draft {
	all := s.GetAllDrafts()
	out := []models.Draft{}
	for _, d := range all {
		if d.SyncStatus == models.SyncStatusPending || d.SyncStatus == models.SyncStatusFailed {
			out = append(out, d)
		}
	}
	return out
}

// GetConflictDrafts returns drafts flagged as conflicted, in insertion order.
func (s *Store) GetConflictDrafts() []models.Draft {
	all := s.GetAllDrafts()
	out := []models.Draft{}
	for _, d := range all {
		if d.SyncStatus == models.SyncStatusConflict {
			out = append(out, d)
		}
	}
	return out
}

// GetDraftByID returns the draft with the given localId, or nil.
func (s *Store) GetDraftByID(localID string) *models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d := s.lookup(localID)
	return d
}

// GetSyncStats computes aggregate counts fresh from the collection.
func (s *Store) GetSyncStats() models.SyncStats {
	var st models.SyncStats
	for _, d := range s.GetAllDrafts() {
		st.TotalDrafts++
		switch d.SyncStatus {
		case models.SyncStatusPending:
			st.PendingDrafts++
		case models.SyncStatusSynced:
			st.SyncedDrafts++
		case models.SyncStatusFailed:
			st.FailedDrafts++
		case models.SyncStatusConflict:
			st.ConflictDrafts++
		}
	}
	return st
}
