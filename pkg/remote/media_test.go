package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMediaUpload(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example.com/" + hdr.Filename})
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c := NewMediaClient(srv.URL, "", 5*time.Second, 0)
	url, err := c.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/photo.jpg" || gotName != "photo.jpg" {
		t.Fatalf("unexpected upload: url=%s name=%s", url, gotName)
	}
}

func TestMediaUploadSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.mp4")
	if err := os.WriteFile(path, make([]byte, 1024), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	c := NewMediaClient("http://127.0.0.1:1", "", time.Second, 100)
	if _, err := c.Upload(context.Background(), path); err == nil {
		t.Fatalf("oversized file must be rejected before any request")
	}
}

func TestMediaUploadMissingFile(t *testing.T) {
	c := NewMediaClient("http://127.0.0.1:1", "", time.Second, 0)
	if _, err := c.Upload(context.Background(), "/nope/missing.png"); err == nil {
		t.Fatalf("missing file must error")
	}
}
