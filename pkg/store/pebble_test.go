package store

import (
	"testing"

	"draftsync/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveDraftOffline(t *testing.T) {
	s := newTestStore(t)
	id, err := s.SaveDraftOffline(models.ContentPayload{Title: "hello", Caption: "first"}, nil)
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a generated localId")
	}
	d := s.GetDraftByID(id)
	if d == nil {
		t.Fatalf("draft not found after save")
	}
	if d.SyncStatus != models.SyncStatusPending {
		t.Fatalf("expected pending status, got %s", d.SyncStatus)
	}
	if !d.IsOffline {
		t.Fatalf("new draft must be offline")
	}
	if d.Timestamp == 0 || d.LastModified != d.Timestamp {
		t.Fatalf("bad timestamps: ts=%d lm=%d", d.Timestamp, d.LastModified)
	}

	st := s.GetSyncStats()
	if st.TotalDrafts != 1 || st.PendingDrafts != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestGetAllDraftsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	titles := []string{"a", "b", "c"}
	for _, title := range titles {
		if _, err := s.SaveDraftOffline(models.ContentPayload{Title: title}, nil); err != nil {
			t.Fatalf("save %s: %v", title, err)
		}
	}
	all := s.GetAllDrafts()
	if len(all) != len(titles) {
		t.Fatalf("expected %d drafts, got %d", len(titles), len(all))
	}
	for i, title := range titles {
		if all[i].Title != title {
			t.Fatalf("order broken at %d: want %s got %s", i, title, all[i].Title)
		}
	}
}

func TestUpdateDraftOffline(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.SaveDraftOffline(models.ContentPayload{Title: "orig", Caption: "c"}, nil)
	before := s.GetDraftByID(id)

	newTitle := "edited"
	ok, err := s.UpdateDraftOffline(id, models.DraftUpdate{Title: &newTitle})
	if err != nil || !ok {
		t.Fatalf("update failed: ok=%v err=%v", ok, err)
	}
	after := s.GetDraftByID(id)
	if after.Title != "edited" || after.Caption != "c" {
		t.Fatalf("partial update applied wrong: %+v", after)
	}
	if after.LastModified < before.LastModified {
		t.Fatalf("lastModified must not go backwards")
	}

	if ok, _ := s.UpdateDraftOffline("draft_0_nope", models.DraftUpdate{Title: &newTitle}); ok {
		t.Fatalf("update of missing draft must return false")
	}
}

func TestUpdateDemotesSyncedToPending(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.SaveDraftOffline(models.ContentPayload{Title: "t"}, nil)
	d := s.GetDraftByID(id)
	d.SyncStatus = models.SyncStatusSynced
	d.ID = "server_1"
	if err := s.PutDraft(*d); err != nil {
		t.Fatalf("put: %v", err)
	}

	title := "local edit"
	if ok, err := s.UpdateDraftOffline(id, models.DraftUpdate{Title: &title}); err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	after := s.GetDraftByID(id)
	if after.SyncStatus != models.SyncStatusPending {
		t.Fatalf("edit of synced draft must demote to pending, got %s", after.SyncStatus)
	}
	if after.ID != "server_1" {
		t.Fatalf("server id must survive local edits")
	}
}

func TestPutDraftKeepsLastModified(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.SaveDraftOffline(models.ContentPayload{Title: "t"}, nil)
	before := s.GetDraftByID(id)

	d := *before
	d.SyncStatus = models.SyncStatusSyncing
	if err := s.PutDraft(d); err != nil {
		t.Fatalf("put: %v", err)
	}
	after := s.GetDraftByID(id)
	if after.LastModified != before.LastModified {
		t.Fatalf("status transition changed lastModified: %d != %d", after.LastModified, before.LastModified)
	}
	if after.SyncStatus != models.SyncStatusSyncing {
		t.Fatalf("status not written")
	}
}

func TestDeleteDraft(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.SaveDraftOffline(models.ContentPayload{Title: "t"}, nil)

	ok, err := s.DeleteDraft(id)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if d := s.GetDraftByID(id); d != nil {
		t.Fatalf("draft still present after delete")
	}
	if ok, _ := s.DeleteDraft(id); ok {
		t.Fatalf("second delete must report no match")
	}
}

func TestGetPendingDraftsIncludesFailed(t *testing.T) {
	s := newTestStore(t)
	id1, _ := s.SaveDraftOffline(models.ContentPayload{Title: "p"}, nil)
	id2, _ := s.SaveDraftOffline(models.ContentPayload{Title: "f"}, nil)
	id3, _ := s.SaveDraftOffline(models.ContentPayload{Title: "s"}, nil)

	d2 := s.GetDraftByID(id2)
	d2.SyncStatus = models.SyncStatusFailed
	_ = s.PutDraft(*d2)
	d3 := s.GetDraftByID(id3)
	d3.SyncStatus = models.SyncStatusSynced
	_ = s.PutDraft(*d3)

	pending := s.GetPendingDrafts()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].LocalID != id1 || pending[1].LocalID != id2 {
		t.Fatalf("pending order wrong: %s, %s", pending[0].LocalID, pending[1].LocalID)
	}

	st := s.GetSyncStats()
	if st.PendingDrafts != 1 || st.FailedDrafts != 1 || st.SyncedDrafts != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestReadsDegradeWhenClosed(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.SaveDraftOffline(models.ContentPayload{Title: "t"}, nil)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := s.GetAllDrafts(); len(got) != 0 {
		t.Fatalf("closed store must read as empty, got %d", len(got))
	}
	if _, err := s.SaveDraftOffline(models.ContentPayload{Title: "x"}, nil); err == nil {
		t.Fatalf("writes to a closed store must error")
	}
}
