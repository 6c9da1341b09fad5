package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"draftsync/pkg/logger"
)

// MediaClient uploads local media files to the remote upload endpoint,
// one file per request as multipart form data.
type MediaClient struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	// MaxUploadBytes rejects oversized files before any network traffic.
	// Zero disables the check.
	MaxUploadBytes int64

	HTTP *fasthttp.Client
}

// NewMediaClient returns a client for the media upload service at baseURL.
func NewMediaClient(baseURL, apiToken string, timeout time.Duration, maxUploadBytes int64) *MediaClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &MediaClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIToken:       apiToken,
		Timeout:        timeout,
		MaxUploadBytes: maxUploadBytes,
		HTTP:           &fasthttp.Client{},
	}
}

// Upload sends the file at localPath and returns the URL of the stored
// asset.
func (c *MediaClient) Upload(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	if c.MaxUploadBytes > 0 {
		if fi, err := f.Stat(); err == nil && fi.Size() > c.MaxUploadBytes {
			return "", fmt.Errorf("media file %s exceeds upload limit (%d > %d bytes)", filepath.Base(localPath), fi.Size(), c.MaxUploadBytes)
		}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read media file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.BaseURL + "/upload")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(mw.FormDataContentType())
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
	req.SetBody(buf.Bytes())

	dl := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(dl) {
		dl = d
	}
	if err := c.HTTP.DoDeadline(req, resp, dl); err != nil {
		return "", err
	}
	if s := resp.StatusCode(); s < 200 || s >= 300 {
		return "", fmt.Errorf("media upload failed: status %d", s)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("invalid upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	logger.Debug("media_uploaded", "path", localPath, "url", out.URL)
	return out.URL, nil
}
