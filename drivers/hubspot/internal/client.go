package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// APIError is a non 2xx response of the HubSpot API
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the HubSpot email API with a bearer token. Requests share one rate
// limiter; 429, 5xx and network failures are retried.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	retries    int
	retryWait  time.Duration
}

func NewClient(settings config.Settings) *Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: constants.DefaultDialTimeout,
		}).DialContext,
		TLSHandshakeTimeout: constants.DefaultDialTimeout,
		MaxIdleConnsPerHost: settings.MaxThreads,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: settings.AccessToken,
					TokenType:   "Bearer",
				}),
				Base: base,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(constants.DefaultRateLimit), constants.DefaultRateBurst),
		baseURL:   settings.BaseURL(),
		userAgent: settings.UserAgent,
		retries:   settings.BackoffRetryCount,
		retryWait: constants.DefaultRetryTimeout,
	}
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Get requests path and decodes the JSON body into dest; numbers decode as json.Number
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return abstract.RetryOnBackoff(ctx, c.retries+1, c.retryWait, func() error {
		return c.get(ctx, path, query, dest)
	})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return abstract.Permanent(err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return abstract.Permanent(fmt.Errorf("failed to build request: %s", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return abstract.Permanent(ctx.Err())
		}
		return fmt.Errorf("request to %s failed: %s", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s: %s", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: path, Body: strings.TrimSpace(string(body))}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &abstract.RetryAfterError{Err: apiErr, Wait: retryAfter(resp.Header.Get("Retry-After"))}
		default:
			return abstract.Permanent(apiErr)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return abstract.Permanent(fmt.Errorf("failed to decode response of %s: %s", path, err))
	}

	return nil
}

// retryAfter parses the delay-seconds form of Retry-After
func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Paginate follows the hasMore/offset links of a paged endpoint and hands the items
// under itemsKey to process until it asks to stop or pages run out
func (c *Client) Paginate(ctx context.Context, path string, query url.Values, itemsKey string, process func(records []types.Record) (stop bool, err error)) error {
	query = maps.Clone(query)
	if query == nil {
		query = url.Values{}
	}
	if !query.Has("limit") {
		query.Set("limit", strconv.Itoa(constants.DefaultPageSize))
	}

	for pageNumber := 1; ; pageNumber++ {
		body := map[string]any{}
		if err := c.Get(ctx, path, query, &body); err != nil {
			return err
		}

		items, _ := body[itemsKey].([]any)
		records := make([]types.Record, 0, len(items))
		for _, item := range items {
			if record, ok := item.(map[string]any); ok {
				records = append(records, record)
			}
		}

		stop, err := process(records)
		if err != nil || stop {
			return err
		}

		hasMore, _ := body["hasMore"].(bool)
		next := formatOffset(body["offset"])
		if !hasMore || next == "" {
			logger.Debugf("finished paging %s after %d page(s)", path, pageNumber)
			return nil
		}
		if next == query.Get("offset") {
			return fmt.Errorf("pagination of %s did not advance past offset %s", path, next)
		}
		query.Set("offset", next)
	}
}

func formatOffset(value any) string {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
