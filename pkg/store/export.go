package store

import (
	"encoding/json"

	"draftsync/pkg/logger"
	"draftsync/pkg/models"
)

// ExportDrafts serializes the whole collection as a JSON array. The output
// uses the same shape as the stored rows, so it is valid ImportDrafts input.
func (s *Store) ExportDrafts() ([]byte, error) {
	return json.Marshal(s.GetAllDrafts())
}

// ImportDrafts merges a previously exported collection into the store.
// Entries whose localId already exists locally are skipped (local always
// wins on duplicates). Returns false, with no changes applied, when the
// input does not parse as a draft collection.
func (s *Store) ImportDrafts(data []byte) bool {
	if s.db == nil {
		return false
	}
	var drafts []models.Draft
	if err := json.Unmarshal(data, &drafts); err != nil {
		logger.Warn("draft_import_rejected", "error", err)
		return false
	}
	for _, d := range drafts {
		if d.LocalID == "" {
			logger.Warn("draft_import_rejected", "error", "entry missing localId")
			return false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	imported := 0
	for _, d := range drafts {
		if _, existing := s.lookup(d.LocalID); existing != nil {
			continue
		}
		if err := s.insert(d); err != nil {
			logger.Error("draft_import_write_failed", "local_id", d.LocalID, "error", err)
			return false
		}
		imported++
	}
	logger.Info("drafts_imported", "imported", imported, "skipped", len(drafts)-imported)
	return true
}

// ClearSyncedDrafts removes every draft whose status is synced and
// returns the number removed. Everything else is kept.
func (s *Store) ClearSyncedDrafts() int {
	removed := 0
	for _, d := range s.GetAllDrafts() {
		if d.SyncStatus != models.SyncStatusSynced {
			continue
		}
		ok, err := s.DeleteDraft(d.LocalID)
		if err != nil {
			logger.Error("clear_synced_failed", "local_id", d.LocalID, "error", err)
			continue
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		logger.Info("synced_drafts_cleared", "removed", removed)
	}
	return removed
}
