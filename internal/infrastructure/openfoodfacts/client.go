package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent identifies the service to Open Food Facts, which asks
// API users to send a descriptive agent string.
const DefaultUserAgent = "PantryLens/1.0 (barcode resolver)"

// statusFound is the value of the "status" field when the product exists
const statusFound = 1

// Client talks to one or more Open Food Facts mirrors
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *logrus.Logger
	debug      bool
}

// NewClient creates a new Open Food Facts API client
func NewClient(userAgent string, logger *logrus.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		httpClient: &http.Client{
			// per-attempt deadlines come from the caller's context
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// SetDebug enables or disables debug logging of raw responses
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// FetchProduct retrieves {endpoint}/{code}.json. A response whose status
// says the product does not exist is reported as domain.ErrNoMatch.
func (c *Client) FetchProduct(ctx context.Context, endpoint, code string) (*ProductResponse, error) {
	reqURL := fmt.Sprintf("%s/%s.json", strings.TrimRight(endpoint, "/"), code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
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
			"url":    reqURL,
			"status": resp.StatusCode,
			"bytes":  len(body),
		}).Debug("Open Food Facts response")
	}

	var payload ProductResponse
	decodeErr := json.Unmarshal(body, &payload)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamStatus, decodeErr)
		}
	case resp.StatusCode == http.StatusNotFound && decodeErr == nil:
		// newer mirrors answer unknown products with 404 plus a status body
	default:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}

	if payload.Status.Int() != statusFound || payload.Product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoMatch, payload.StatusVerbose)
	}
	// Placeholder records carry a code and maybe nutriments but nothing to
	// identify the product by.
	if payload.Product.Name() == "" && payload.Product.Brand() == "" {
		return nil, fmt.Errorf("%w: record without name or brand", domain.ErrNoMatch)
	}

	return &payload, nil
}
