package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerHour is the FoodData Central free-tier quota
const DefaultRequestsPerHour = 1000

// Client handles communication with the USDA FoodData Central API.
// Each method performs exactly one request; retries belong to the caller.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	rateLimiter *rate.Limiter
	logger      *logrus.Logger
	debug       bool
}

// NewClient creates a new USDA API client. An empty apiKey yields a client
// that reports itself as not configured.
func NewClient(apiKey string, requestsPerHour int, logger *logrus.Logger) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = DefaultRequestsPerHour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// rate.Limit is requests per second; 1000/h ≈ 0.278 req/s
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      strings.TrimSpace(apiKey),
		rateLimiter: limiter,
		logger:      logger,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "PantryLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", domain.ErrSourceUnavailable, err)
	}

	if c.debug {
		c.logger.WithFields(logrus.Fields{
			"path":   redactKey(reqURL),
			"status": resp.StatusCode,
			"bytes":  len(body),
		}).Debug("USDA response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status 404", domain.ErrNoMatch)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}

	return body, nil
}

// SearchFoods searches branded foods for query against one endpoint
func (c *Client) SearchFoods(ctx context.Context, endpoint, query string) (*domain.USDASearchResponse, error) {
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Branded")
	params.Add("pageSize", "25")

	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", strings.TrimRight(endpoint, "/"), params.Encode())

	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var searchResp domain.USDASearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamStatus, err)
	}

	if len(searchResp.Foods) == 0 {
		return nil, fmt.Errorf("%w: no foods for %q", domain.ErrNoMatch, query)
	}

	return &searchResp, nil
}

// GetFoodDetails retrieves the full record for a specific FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, endpoint string, fdcID int) (*domain.USDAFood, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s/v1/food/%s?%s", strings.TrimRight(endpoint, "/"), strconv.Itoa(fdcID), params.Encode())

	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var food domain.USDAFood
	if err := json.Unmarshal(body, &food); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamStatus, err)
	}

	return &food, nil
}

// redactKey keeps API keys out of logs
func redactKey(reqURL string) string {
	u, err := url.Parse(reqURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
