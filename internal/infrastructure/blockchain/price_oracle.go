package blockchain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// PriceOracle reads a token's USD price from a CoinGecko-compatible simple price API
type PriceOracle struct {
	baseURL    string
	tokenID    string
	httpClient *http.Client
}

// NewPriceOracle creates an oracle for tokenID
func NewPriceOracle(baseURL, tokenID string, timeout time.Duration) *PriceOracle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PriceOracle{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenID:    tokenID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetUSDPrice returns the current USD price of the configured token
func (o *PriceOracle) GetUSDPrice(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", o.tokenID)
	q.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price oracle returned status %d", resp.StatusCode)
	}

	price := gjson.GetBytes(body, gjson.Escape(o.tokenID)+".usd")
	if !price.Exists() {
		return 0, fmt.Errorf("price oracle has no usd price for %s", o.tokenID)
	}
	v, err := strconv.ParseFloat(price.Raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("price oracle returned invalid price %q", price.Raw)
	}
	return v, nil
}
