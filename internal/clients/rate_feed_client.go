package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"did-backend/internal/metrics"
)

// RateFeedClient native/USD exchange-rate feed client. The feed serves the
// rate the price oracle converts attoUSD quotes with: USD per native token,
// 8 decimals, plus the unix timestamp of the quote.
type RateFeedClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRateFeedClient creates a new rate feed client
func NewRateFeedClient(baseURL string, timeoutSeconds int) *RateFeedClient {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &RateFeedClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

// rateFeedResponse feed API response
type rateFeedResponse struct {
	Rate      string `json:"rate"`       // decimal string, 8 decimals
	UpdatedAt int64  `json:"updated_at"` // unix seconds
}

// LatestRate fetches the current native/USD rate from the feed.
func (c *RateFeedClient) LatestRate(ctx context.Context) (*big.Int, time.Time, error) {
	url := c.baseURL + "/api/v1/rates/native-usd"

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("failed to read rate feed response: %w", err)
	}

	var payload rateFeedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("failed to parse rate feed response: %w", err)
	}

	rate, ok := new(big.Int).SetString(payload.Rate, 10)
	if !ok || rate.Sign() <= 0 {
		metrics.RateFeedRequests.WithLabelValues("error").Inc()
		return nil, time.Time{}, fmt.Errorf("rate feed returned invalid rate %q", payload.Rate)
	}

	metrics.RateFeedRequests.WithLabelValues("ok").Inc()
	rateFloat, _ := new(big.Float).SetInt(rate).Float64()
	metrics.RateFeedLastRate.Set(rateFloat)

	return rate, time.Unix(payload.UpdatedAt, 0), nil
}

// FixedRateFeed serves a constant rate, quoted as of the moment it is
// asked. Used when pricing.fixedRate is configured; dev and test only.
type FixedRateFeed struct {
	rate *big.Int
}

// NewFixedRateFeed creates a feed pinned to one 8-decimal rate.
func NewFixedRateFeed(rate string) (*FixedRateFeed, error) {
	value, ok := new(big.Int).SetString(rate, 10)
	if !ok || value.Sign() <= 0 {
		return nil, fmt.Errorf("invalid fixed rate %q", rate)
	}
	return &FixedRateFeed{rate: value}, nil
}

// LatestRate returns the pinned rate with a fresh timestamp.
func (f *FixedRateFeed) LatestRate(ctx context.Context) (*big.Int, time.Time, error) {
	return new(big.Int).Set(f.rate), time.Now(), nil
}
