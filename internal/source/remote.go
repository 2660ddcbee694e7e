package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booklib/internal/record"
	"booklib/internal/resolve"

	"golang.org/x/time/rate"
)

var (
	// ErrStatus is returned for any non-2xx response.
	ErrStatus = errors.New("unexpected status code")
	// ErrNotFound is additionally wrapped into a 404 response error.
	ErrNotFound = errors.New("not found")
)

const maxBodyBytes = 4 << 20

// Remote talks to the authoritative REST API.
type Remote struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
}

// NewRemote creates a client for the API at baseURL. A non-positive rps disables limiting.
func NewRemote(baseURL, userAgent string, rps int, timeout time.Duration) *Remote {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Every(time.Second / time.Duration(rps))
	}
	return &Remote{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// BaseURL returns the API root.
func (c *Remote) BaseURL() string {
	return c.baseURL
}

// Fetch implements resolve.Fetcher: collection endpoint for collection queries,
// item endpoint for single-record queries.
func (c *Remote) Fetch(ctx context.Context, q resolve.Query) ([]byte, error) {
	u := c.collectionURL(q.Kind.Collection())
	if q.Kind.Single() {
		u = c.itemURL(q.Kind.Collection(), q.Key)
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

// Create POSTs a record to a collection and returns the stored record.
func (c *Remote) Create(ctx context.Context, collection string, rec record.Record) (record.Record, error) {
	body, err := c.do(ctx, http.MethodPost, c.collectionURL(collection), rec)
	if err != nil {
		return nil, err
	}
	return decodeOne(body)
}

// Update replaces the record with the given id.
func (c *Remote) Update(ctx context.Context, collection, id string, rec record.Record) (record.Record, error) {
	body, err := c.do(ctx, http.MethodPut, c.itemURL(collection, id), rec)
	if err != nil {
		return nil, err
	}
	return decodeOne(body)
}

// Delete removes the record with the given id.
func (c *Remote) Delete(ctx context.Context, collection, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.itemURL(collection, id), nil)
	return err
}

func (c *Remote) collectionURL(collection string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(collection))
}

func (c *Remote) itemURL(collection, id string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(id))
}

func (c *Remote) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d: %w", ErrStatus, resp.StatusCode, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func decodeOne(body []byte) (record.Record, error) {
	records, err := record.Collection(body)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("%w: expected one record, got %d", record.ErrMalformed, len(records))
	}
	return records[0], nil
}
