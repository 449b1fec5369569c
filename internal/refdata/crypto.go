// Package refdata resolves real-time reference values used by the
// specialized agents. A reference price is a soft dependency: when the
// lookup fails the caller degrades to heuristics-only.
package refdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
)

// CryptoClient fetches spot prices from a CoinGecko-compatible API.
type CryptoClient struct {
	baseURL string
	http    *platformhttp.Client
	logger  zerolog.Logger
}

// CryptoClientOptions holds options for creating a CryptoClient.
type CryptoClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewCryptoClient creates a crypto reference-price client.
func NewCryptoClient(opts CryptoClientOptions) *CryptoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.coingecko.com/api/v3"
	}

	return &CryptoClient{
		baseURL: opts.BaseURL,
		http: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
		}),
		logger: log.With().Str("component", "crypto_refdata").Logger(),
	}
}

// coinIDs maps common tickers to API coin identifiers.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
}

// SpotPrice returns the current USD price for a ticker symbol.
func (c *CryptoClient) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("unknown asset symbol %q", symbol)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, coinID)
	c.logger.Debug().Str("symbol", symbol).Msg("Fetching spot price")

	var data map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := c.http.GetJSON(ctx, endpoint, &data); err != nil {
		return 0, fmt.Errorf("spot price lookup failed: %w", err)
	}

	quote, ok := data[coinID]
	if !ok || quote.USD == 0 {
		return 0, fmt.Errorf("no price returned for %q", symbol)
	}
	return quote.USD, nil
}

// KnownSymbol reports whether the ticker can be resolved to a coin.
func KnownSymbol(symbol string) bool {
	_, ok := coinIDs[strings.ToUpper(symbol)]
	return ok
}
