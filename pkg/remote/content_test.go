package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"draftsync/pkg/models"
)

func newContentBackend(t *testing.T) (*httptest.Server, *ContentClient) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/content", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer sekret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var p models.ContentPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		_ = json.NewEncoder(w).Encode(models.RemoteContent{ID: "c_1", Title: p.Title, UpdatedAt: 42})
	})
	mux.HandleFunc("/content/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/content/"):]
		if id == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(models.RemoteContent{ID: id, Title: "stored", UpdatedAt: 42})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewContentClient(srv.URL, "sekret", 5*time.Second)
}

func TestContentCreate(t *testing.T) {
	_, c := newContentBackend(t)
	rc, err := c.Create(context.Background(), models.ContentPayload{Title: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rc.ID != "c_1" || rc.Title != "hello" {
		t.Fatalf("unexpected record: %+v", rc)
	}
}

func TestContentFetchNotFound(t *testing.T) {
	_, c := newContentBackend(t)
	if _, err := c.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rc, err := c.Fetch(context.Background(), "c_7")
	if err != nil || rc.ID != "c_7" {
		t.Fatalf("fetch: %v %+v", err, rc)
	}
}

func TestContentUpdateNotFound(t *testing.T) {
	_, c := newContentBackend(t)
	if _, err := c.Update(context.Background(), "missing", models.ContentPayload{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContentPing(t *testing.T) {
	_, c := newContentBackend(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(down.Close)
	dc := NewContentClient(down.URL, "", time.Second)
	if err := dc.Ping(context.Background()); err == nil {
		t.Fatalf("ping of unhealthy backend must fail")
	}
}

func TestContentCreateRejectsBadToken(t *testing.T) {
	srv, _ := newContentBackend(t)
	c := NewContentClient(srv.URL, "wrong", time.Second)
	if _, err := c.Create(context.Background(), models.ContentPayload{Title: "x"}); err == nil {
		t.Fatalf("expected auth failure")
	}
}
