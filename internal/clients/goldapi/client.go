// Package goldapi implements domain.PriceSource against goldapi.io.
package goldapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/preciousmetals/indexd/internal/domain"
)

const defaultBaseURL = "https://www.goldapi.io/api"

// Client fetches USD-per-troy-ounce spot quotes from goldapi.io. It
// implements domain.PriceSource with plain fetch-or-fail semantics and no
// stale-cache fallback: an in-memory engine with no persistence has
// nowhere durable to keep a stale value across restarts anyway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

// NewClient builds a goldapi.io client. apiKey is sent as the
// x-access-token header on every request.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		log:        log.With().Str("client", "goldapi").Logger(),
	}
}

// quoteResponse mirrors goldapi.io's response shape for a metal/currency pair.
type quoteResponse struct {
	Price     float64 `json:"price"`
	Symbol    string  `json:"symbol"`
	Currency  string  `json:"currency"`
	Timestamp int64   `json:"timestamp"`
}

// FetchQuote implements domain.PriceSource: one USD-per-troy-ounce quote
// for the given metal. A non-2xx response, a malformed body, or a
// non-positive price are all treated as fetch failures — the
// caller (the Index Engine) is responsible for abandoning the whole tick.
func (c *Client) FetchQuote(ctx context.Context, metal domain.Metal) (float64, error) {
	url := fmt.Sprintf("%s/%s/USD", c.baseURL, metal)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", metal, err)
	}
	req.Header.Set("x-access-token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", metal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("goldapi returned status %d for %s", resp.StatusCode, metal)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response for %s: %w", metal, err)
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("goldapi returned non-positive price %v for %s", body.Price, metal)
	}

	c.log.Debug().Str("metal", string(metal)).Float64("price", body.Price).Msg("fetched quote")
	return body.Price, nil
}
