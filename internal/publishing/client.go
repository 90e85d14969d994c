// Package publishing is a read-only client for the WordPress REST API that
// serves the app's categories and posts.
package publishing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/validation"
)

const (
	DefaultUserAgent = "sankshep/1.0 (+https://sankshep.app)"
	DefaultTimeout   = 30 * time.Second

	// maxBodySize caps a single response; a full category feed is far below it.
	maxBodySize = 32 << 20
)

// ErrUpstreamUnavailable marks non-success statuses and transport failures.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Resource   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch %s. Status: %d", e.Resource, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamUnavailable }

// RequestError is returned when no usable response arrived.
type RequestError struct {
	Resource string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Failed to fetch %s. %v", e.Resource, e.Err)
}

func (e *RequestError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RateLimit is requests per second; zero or less disables limiting.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(opts Options) (*Client, error) {
	base, err := validation.NewPermissiveLinkValidator().Validate(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		client:    client,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Categories returns the complete category list in one request.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	query := url.Values{}
	query.Set("per_page", "100")

	var categories []Category
	if err := c.getJSON(ctx, "categories", "/categories", query, &categories); err != nil {
		return nil, err
	}
	debuglog.Debugf("Fetched %d categories", len(categories))
	return categories, nil
}

// Posts returns the posts of one category with featured media embedded.
func (c *Client) Posts(ctx context.Context, categoryID int) ([]Post, error) {
	query := url.Values{}
	query.Set("_embed", "")
	query.Set("categories", strconv.Itoa(categoryID))

	var posts []Post
	if err := c.getJSON(ctx, "posts", "/posts", query, &posts); err != nil {
		return nil, err
	}
	debuglog.Debugf("Fetched %d posts for category %d", len(posts), categoryID)
	return posts, nil
}

func (c *Client) getJSON(ctx context.Context, resource, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RequestError{Resource: resource, Err: err}
	}

	endpoint := c.baseURL + path
	if encoded := encodeQuery(query); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RequestError{Resource: resource, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		debuglog.Warnf("GET %s failed: %v", endpoint, err)
		return &RequestError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	debuglog.Debugf("GET %s -> %d in %s", endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Resource: resource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return &RequestError{Resource: resource, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// encodeQuery renders empty values as bare keys so "_embed" is sent as WordPress documents it.
func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	encoded := q.Encode()
	parts := strings.Split(encoded, "&")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "=")
	}
	return strings.Join(parts, "&")
}
