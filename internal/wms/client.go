// internal/wms/client.go - WMS HTTP client
package wms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/config"
)

// ErrConnection reports that the WMS endpoint cannot be reached or does not
// speak WMS. Fatal to a whole run.
var ErrConnection = internal.NewError(internal.ErrorCodeConnection,
	"cannot reach WMS service", nil)

// ErrFetch reports a failed GetMap request for a single tile. Non-fatal;
// the pipeline skips the tile and retries it on the next run.
var ErrFetch = internal.NewError(internal.ErrorCodeFetch,
	"tile fetch failed", nil)

// Client talks to one WMS endpoint. Its lifecycle is scoped to a single
// run: callers construct it, validate the connection via GetCapabilities
// and pass it into the pipeline entry points. There is no process-wide
// service handle.
type Client struct {
	endpoint  *url.URL
	client    *http.Client
	version   string
	retries   int
	userAgent string
}

// NewClient builds a client for the configured endpoint
func NewClient(cfg *config.Config) (*Client, error) {
	endpoint, err := url.Parse(cfg.Service.Endpoint)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("invalid service endpoint %q", cfg.Service.Endpoint), err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Network.MaxIdleConns,
		IdleConnTimeout:     cfg.Network.IdleConnTimeout,
		DisableKeepAlives:   cfg.Network.DisableKeepAlive,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if cfg.Network.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.Network.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   cfg.Service.Timeout,
			Transport: transport,
		},
		version:   cfg.Service.Version,
		retries:   cfg.Service.MaxRetries,
		userAgent: cfg.Network.UserAgent,
	}, nil
}

// Endpoint returns the configured service URL
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// GetCapabilities fetches and parses the service's capabilities document.
// It doubles as the connection check at the start of a run: any failure
// here is a connection error, fatal to the whole run.
func (c *Client) GetCapabilities(ctx context.Context) (*Capabilities, error) {
	reqURL := c.buildURL(url.Values{
		"service": {"WMS"},
		"version": {c.version},
		"request": {"GetCapabilities"},
	})

	body, _, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	caps, err := parseCapabilities(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return caps, nil
}

// GetMap performs one fetch-by-bounding-box and returns the raw image
// bytes. A non-zero configured retry count is applied here, as collaborator
// policy; the pipelines themselves never retry.
func (c *Client) GetMap(ctx context.Context, req *GetMapRequest) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		data, err := c.getMapOnce(ctx, req)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) getMapOnce(ctx context.Context, req *GetMapRequest) ([]byte, error) {
	reqURL := c.buildURL(url.Values{
		"service": {"WMS"},
		"version": {c.version},
		"request": {"GetMap"},
		"layers":  {req.Layer},
		"styles":  {""},
		"srs":     {req.CRS},
		"bbox": {fmt.Sprintf("%s,%s,%s,%s",
			formatCoord(req.Bounds.MinX), formatCoord(req.Bounds.MinY),
			formatCoord(req.Bounds.MaxX), formatCoord(req.Bounds.MaxY))},
		"width":  {strconv.Itoa(req.Width)},
		"height": {strconv.Itoa(req.Height)},
		"format": {req.Format},
	})

	body, contentType, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	// WMS reports request errors as an XML service exception with HTTP 200.
	if strings.Contains(contentType, "xml") {
		return nil, fmt.Errorf("%w: service exception: %s", ErrFetch, exceptionSnippet(body))
	}

	return body, nil
}

// get performs one HTTP GET and returns body and content type
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// buildURL merges WMS query parameters with any parameters already present
// on the configured endpoint
func (c *Client) buildURL(params url.Values) string {
	u := *c.endpoint
	q := u.Query()
	for key, vals := range params {
		q[key] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func exceptionSnippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
