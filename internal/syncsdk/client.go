// Package syncsdk is the HTTP consumer side of the sync protocol: it fetches
// manifests and store files from a published sync store and verifies their
// integrity against the manifest's declared hashes.
package syncsdk

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/syncstore"
	"github.com/quillbox/quillbox/internal/version"
)

// Client fetches files from one remote sync store. All paths are relative to
// <baseURL>/sync/.
type Client struct {
	http    *req.Client
	baseURL string
}

// New creates a Client for the blog published at baseURL.
func New(baseURL string) *Client {
	client := req.C().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/sync").
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetUserAgent(version.UserAgent()).
		SetTimeout(60 * time.Second)

	return &Client{http: client, baseURL: baseURL}
}

// BaseURL returns the blog base url this client was created for.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchManifest retrieves and parses the remote manifest. A 404 yields
// ErrNoSyncStore so callers can tell "sync not enabled" from real failures.
func (c *Client) FetchManifest(ctx context.Context) (*syncstore.Manifest, error) {
	data, err := c.get(ctx, syncstore.ManifestPath)
	if err != nil {
		return nil, err
	}

	var manifest syncstore.Manifest
	if err := canonical.Unmarshal(data, &manifest); err != nil {
		return nil, &DecodeError{Path: syncstore.ManifestPath, Err: err}
	}
	return &manifest, nil
}

// FetchFile downloads one store file and, when wantHash is non-empty,
// verifies the bytes against it. A mismatch is fatal for that file.
func (c *Client) FetchFile(ctx context.Context, path, wantHash string) ([]byte, error) {
	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if wantHash != "" && canonical.HashBytes(data) != wantHash {
		return nil, ErrIntegrity
	}
	return data, nil
}

// FetchJSON downloads a store file, verifies it, and decodes it into v.
func (c *Client) FetchJSON(ctx context.Context, path, wantHash string, v any) error {
	data, err := c.FetchFile(ctx, path, wantHash)
	if err != nil {
		return err
	}
	if err := canonical.Unmarshal(data, v); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/" + path)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL + "/sync/" + path, Err: err}
	}

	if resp.GetStatusCode() == http.StatusNotFound && path == syncstore.ManifestPath {
		return nil, ErrNoSyncStore
	}
	if resp.IsErrorState() {
		return nil, &TransportError{URL: c.baseURL + "/sync/" + path, StatusCode: resp.GetStatusCode()}
	}

	data, err := resp.ToBytes()
	if err != nil {
		return nil, &TransportError{URL: c.baseURL + "/sync/" + path, Err: err}
	}
	return data, nil
}
