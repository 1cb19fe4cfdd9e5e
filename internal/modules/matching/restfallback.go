package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/registry"

	"github.com/shopspring/decimal"
)

// RESTFallback fetches a single current price over plain HTTP when the
// cached mark has gone stale (PRICE_STALE_MS), adapted from the
// teacher's signed-request exchange.Client — simplified to a bare GET
// with an API-key header since the simulated feed needs no HMAC
// signing, only authentication.
type RESTFallback struct {
	http     *http.Client
	registry *registry.Registry
	apiKey   string
	baseURL  string
}

func NewRESTFallback(cfg *config.Config, reg *registry.Registry) *RESTFallback {
	baseURL := "https://api.exchange.example"
	if len(cfg.UpstreamFeedURLs) > 0 {
		baseURL = cfg.UpstreamFeedURLs[0]
	}
	return &RESTFallback{
		http:     &http.Client{Timeout: 5 * time.Second},
		registry: reg,
		apiKey:   cfg.FeedAPIKey,
		baseURL:  baseURL,
	}
}

type restPriceResponse struct {
	Price string `json:"price"`
}

func (f *RESTFallback) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ins, ok := f.registry.GetContract(symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("matching: no contract metadata for %s", symbol)
	}

	url := fmt.Sprintf("%s/price?instId=%s", f.baseURL, ins.PriceKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("X-API-KEY", f.apiKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return decimal.Zero, fmt.Errorf("matching: fallback price http %d: %s", resp.StatusCode, string(body))
	}

	var parsed restPriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(parsed.Price)
}
