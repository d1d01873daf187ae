// Package statsapi is the gateway to the remote HIV program statistics API.
// Every call is a single GET against a fixed base URL; the callers decide what
// to substitute when a call fails.
package statsapi

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

	"github.com/rs/zerolog"
)

// DateLayout is the wire format of startdate/enddate.
const DateLayout = "2006-01-02"

// maxErrorBody caps how much of a failed response body is kept for logging.
const maxErrorBody = 512

// Query holds the filter parameters accepted by the statistics endpoints.
type Query struct {
	ReportDept  string
	Modality    string
	LocationIDs []string
	Start       time.Time
	End         time.Time
}

// Values renders the query string parameters. Empty fields are omitted and
// location ids are comma-joined into a single locationid value.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.ReportDept != "" {
		v.Set("reportdept", q.ReportDept)
	}
	if q.Modality != "" {
		v.Set("modality", q.Modality)
	}
	if ids := compact(q.LocationIDs); len(ids) > 0 {
		v.Set("locationid", strings.Join(ids, ","))
	}
	if !q.Start.IsZero() {
		v.Set("startdate", q.Start.Format(DateLayout))
	}
	if !q.End.IsZero() {
		v.Set("enddate", q.End.Format(DateLayout))
	}
	return v
}

// String is the encoded query, used as a log field and snapshot key.
func (q Query) String() string {
	return q.Values().Encode()
}

func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Getter is the read surface the domain services depend on.
type Getter interface {
	GetJSON(ctx context.Context, path string, q Query, out interface{}) error
}

// Client issues requests against the statistics API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger used for request tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTimeout sets the transport timeout of the default *http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the absolute request URL for path and q.
func (c *Client) URL(path string, q Query) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if enc := q.Values().Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// GetJSON performs one GET and decodes the JSON response into out.
// There is no retry: transport failures, non-2xx statuses and decode
// failures are all returned to the caller.
func (c *Client) GetJSON(ctx context.Context, path string, q Query, out interface{}) error {
	target := c.URL(path, q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("stats api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: target, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

// IsStatus reports whether err carries an upstream status error with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
