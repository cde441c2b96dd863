package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/httputil"
	"github.com/lox/tideline/internal/metrics"
	"github.com/lox/tideline/internal/models"
)

const DefaultBaseURL = "https://api.stormglass.io/v2/"

// FetchError is a non-2xx provider response. The cache is never written for one.
type FetchError struct {
	Kind       models.DatasetKind
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d: %s", e.Kind, e.StatusCode, strings.TrimSpace(e.Body))
}

// FetchResult describes one completed request for auditing.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
	Duration     time.Duration
	Attempts     int
}

// Client talks to the Stormglass v2 point endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries uint64
	log     logrus.FieldLogger
}

type ClientOption func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRetries retries transport errors and 429 responses up to n extra times.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = uint64(n)
		}
	}
}

func NewClient(apiKey string, log logrus.FieldLogger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  httputil.NewClient(),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query builds the request parameters for spot over span, merged with extra.
func Query(spot models.Spot, span models.TimeSpan, extra url.Values) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(spot.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(spot.Longitude, 'f', -1, 64))
	q.Set("source", "sg")
	q.Set("start", strconv.FormatInt(span.From.Unix(), 10))
	q.Set("end", strconv.FormatInt(span.To.Unix(), 10))
	for k, vs := range extra {
		q[k] = append([]string(nil), vs...)
	}
	return q
}

func (c *Client) endpointURL(kind models.DatasetKind) string {
	return strings.TrimSuffix(c.baseURL, "/") + "/" + kind.Endpoint()
}

// Fetch requests kind for spot over span and returns the raw response body.
func (c *Client) Fetch(ctx context.Context, kind models.DatasetKind, spot models.Spot, span models.TimeSpan, extra url.Values) ([]byte, *FetchResult, error) {
	endpoint := kind.Endpoint()
	if endpoint == "" {
		return nil, nil, fmt.Errorf("fetch: unknown dataset kind %q", kind)
	}
	reqURL := c.endpointURL(kind) + "?" + Query(spot, span, extra).Encode()
	result := &FetchResult{}

	var body []byte
	operation := func() error {
		result.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", kind, err))
		}
		req.Header.Set("Authorization", c.apiKey)

		start := time.Now()
		resp, err := c.client.Do(req)
		elapsed := time.Since(start)
		metrics.ProviderLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
		if err != nil {
			metrics.ProviderCallsTotal.WithLabelValues(string(kind), "error").Inc()
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("fetch %s: %w", kind, err))
			}
			c.log.WithError(err).WithField("kind", kind).Debug("stormglass: transport error")
			return fmt.Errorf("fetch %s: %w", kind, err)
		}
		defer resp.Body.Close()

		result.HTTPStatus = resp.StatusCode
		result.Duration += elapsed
		metrics.ProviderCallsTotal.WithLabelValues(string(kind), strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			ferr := &FetchError{Kind: kind, StatusCode: resp.StatusCode, Body: string(b)}
			if resp.StatusCode == http.StatusTooManyRequests {
				return ferr
			}
			return backoff.Permanent(ferr)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read %s body: %w", kind, err))
		}
		result.ResponseSize = len(body)
		return nil
	}

	var bo backoff.BackOff = backoff.NewExponentialBackOff()
	bo = backoff.WithMaxRetries(bo, c.retries)
	bo = backoff.WithContext(bo, ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, result, err
	}
	return body, result, nil
}
