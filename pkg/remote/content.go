// Package remote implements the HTTP clients for the two external
// collaborators of the sync engine: the content service and the media
// upload service.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"draftsync/pkg/logger"
	"draftsync/pkg/models"
)

// ErrNotFound is returned by Fetch when the content service has no record
// for the given id. The engine treats it as "proceed as a create".
var ErrNotFound = errors.New("content not found")

const defaultTimeout = 15 * time.Second

// ContentClient talks to the remote content creation/update endpoint.
type ContentClient struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration

	HTTP *fasthttp.Client
}

// NewContentClient returns a client for the content service at baseURL.
func NewContentClient(baseURL, apiToken string, timeout time.Duration) *ContentClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ContentClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIToken: apiToken,
		Timeout:  timeout,
		HTTP:     &fasthttp.Client{},
	}
}

func (c *ContentClient) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(dl) {
		dl = d
	}
	return dl
}

func (c *ContentClient) do(ctx context.Context, method, url string, body []byte, out interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	if err := c.HTTP.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return 0, err
	}
	status := resp.StatusCode()
	if out != nil && status >= 200 && status < 300 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return status, fmt.Errorf("invalid response body: %w", err)
		}
	}
	return status, nil
}

// Create submits a new content record and returns the server's version of
// it, including the assigned id.
func (c *ContentClient) Create(ctx context.Context, p models.ContentPayload) (*models.RemoteContent, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var rc models.RemoteContent
	status, err := c.do(ctx, fasthttp.MethodPost, c.BaseURL+"/content", b, &rc)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("content create failed: status %d", status)
	}
	if rc.ID == "" {
		return nil, fmt.Errorf("content create response missing id")
	}
	logger.Debug("content_created", "id", rc.ID)
	return &rc, nil
}

// Update overwrites the content record identified by id and returns the
// updated server record.
func (c *ContentClient) Update(ctx context.Context, id string, p models.ContentPayload) (*models.RemoteContent, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var rc models.RemoteContent
	status, err := c.do(ctx, fasthttp.MethodPut, c.BaseURL+"/content/"+id, b, &rc)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("content update failed: status %d", status)
	}
	if rc.ID == "" {
		rc.ID = id
	}
	logger.Debug("content_updated", "id", rc.ID)
	return &rc, nil
}

// Fetch returns the server's current record for id, or ErrNotFound.
func (c *ContentClient) Fetch(ctx context.Context, id string) (*models.RemoteContent, error) {
	var rc models.RemoteContent
	status, err := c.do(ctx, fasthttp.MethodGet, c.BaseURL+"/content/"+id, nil, &rc)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("content fetch failed: status %d", status)
	}
	return &rc, nil
}

// Ping probes the content service health endpoint. Used by the network
// monitor's active connectivity probe.
func (c *ContentClient) Ping(ctx context.Context) error {
	status, err := c.do(ctx, fasthttp.MethodGet, c.BaseURL+"/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status >= 500 {
		return fmt.Errorf("content service unhealthy: status %d", status)
	}
	return nil
}
