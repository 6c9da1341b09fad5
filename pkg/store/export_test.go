package store

import (
	"encoding/json"
	"testing"

	"draftsync/pkg/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	id1, _ := src.SaveDraftOffline(models.ContentPayload{Title: "one"}, nil)
	id2, _ := src.SaveDraftOffline(models.ContentPayload{Title: "two"}, []string{"/tmp/a.jpg"})

	data, err := src.ExportDrafts()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported []models.Draft
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export not valid json: %v", err)
	}
	if len(exported) != 2 {
		t.Fatalf("expected 2 exported drafts, got %d", len(exported))
	}

	dst := newTestStore(t)
	if !dst.ImportDrafts(data) {
		t.Fatalf("import of valid export failed")
	}
	if dst.GetDraftByID(id1) == nil || dst.GetDraftByID(id2) == nil {
		t.Fatalf("imported drafts missing")
	}
	got := dst.GetDraftByID(id2)
	if len(got.MediaLocalPaths) != 1 || got.MediaLocalPaths[0] != "/tmp/a.jpg" {
		t.Fatalf("media paths lost on import: %+v", got.MediaLocalPaths)
	}
}

func TestImportLocalWinsOnDuplicate(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.SaveDraftOffline(models.ContentPayload{Title: "local version"}, nil)

	dup := []models.Draft{{
		LocalID:        id,
		ContentPayload: models.ContentPayload{Title: "imported version"},
		SyncStatus:     models.SyncStatusPending,
	}}
	data, _ := json.Marshal(dup)

	if !s.ImportDrafts(data) {
		t.Fatalf("import failed")
	}
	got := s.GetDraftByID(id)
	if got.Title != "local version" {
		t.Fatalf("existing draft was overwritten by import: %q", got.Title)
	}
	if len(s.GetAllDrafts()) != 1 {
		t.Fatalf("duplicate import created extra rows")
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.SaveDraftOffline(models.ContentPayload{Title: "keep"}, nil)

	if s.ImportDrafts([]byte("not json at all")) {
		t.Fatalf("garbage input must be rejected")
	}
	if s.ImportDrafts([]byte(`[{"title":"no local id"}]`)) {
		t.Fatalf("entry without localId must be rejected")
	}
	if n := len(s.GetAllDrafts()); n != 1 {
		t.Fatalf("rejected import changed the store: %d drafts", n)
	}
}

func TestClearSyncedDrafts(t *testing.T) {
	s := newTestStore(t)
	idSynced, _ := s.SaveDraftOffline(models.ContentPayload{Title: "done"}, nil)
	idPending, _ := s.SaveDraftOffline(models.ContentPayload{Title: "todo"}, nil)

	d := s.GetDraftByID(idSynced)
	d.SyncStatus = models.SyncStatusSynced
	_ = s.PutDraft(*d)

	if removed := s.ClearSyncedDrafts(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if s.GetDraftByID(idSynced) != nil {
		t.Fatalf("synced draft still present")
	}
	if s.GetDraftByID(idPending) == nil {
		t.Fatalf("pending draft was removed")
	}
}
