// Package listclient consumes the list endpoints: a thin HTTP client plus a
// Fetcher that turns list state changes into requests and exposes the
// loading, error and result state of the latest one.
package listclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/admindash/internal/listing"
)

// DefaultTimeout bounds a single list request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Client issues list requests against a server base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient parses baseURL. A nil httpClient gets DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("listclient: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("listclient: base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: base, http: httpClient}, nil
}

// URL resolves path and params against the base URL.
func (c *Client) URL(path string, params url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = params.Encode()
	return u.String()
}

// Fetch requests one page of T from path.
func Fetch[T any](ctx context.Context, c *Client, path string, params url.Values) (listing.Page[T], error) {
	var page listing.Page[T]
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, params), nil)
	if err != nil {
		return page, fmt.Errorf("listclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("listclient: decode page: %w", err)
	}
	if page.Data == nil {
		page.Data = make([]T, 0)
	}
	return page, nil
}

func statusError(resp *http.Response) error {
	serr := &StatusError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return serr
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		serr.Message = body.Error
	}
	return serr
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode == code
}
