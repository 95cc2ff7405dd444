package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

const dateLayout = "2006-01-02"

// ClientConfig configures the HTTP provider client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches raw open time units from the provider's JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a provider client.
func NewClient(cfg ClientConfig, logger *logging.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("scheduling: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{baseURL: baseURL, apiKey: cfg.APIKey, http: httpClient, logger: logger}, nil
}

type openSlotsResponse struct {
	Slots []struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		DateTime string `json:"datetime"`
	} `json:"slots"`
}

// FetchRawTimeUnits returns the provider's open units for [from, to), sorted
// ascending by datetime. Transport failures and 5xx responses map to
// ErrUnavailable; other non-200 responses are permanent errors.
func (c *Client) FetchRawTimeUnits(ctx context.Context, from, to time.Time) ([]RawTimeUnit, error) {
	endpoint := fmt.Sprintf("%s/open-slots?%s", c.baseURL, url.Values{
		"from": {from.Format(dateLayout)},
		"to":   {to.Format(dateLayout)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scheduling: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("provider fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		c.logger.Warn("provider returned server error", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scheduling: unexpected status %d", resp.StatusCode)
	}

	var body openSlotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	units := make([]RawTimeUnit, 0, len(body.Slots))
	for _, s := range body.Slots {
		dt, err := time.Parse(time.RFC3339, s.DateTime)
		if err != nil {
			c.logger.Warn("provider slot has invalid datetime, skipping", "datetime", s.DateTime)
			continue
		}
		units = append(units, RawTimeUnit{Date: s.Date, Time: s.Time, DateTime: dt})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].DateTime.Before(units[j].DateTime) })
	return units, nil
}
