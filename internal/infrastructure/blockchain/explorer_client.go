package blockchain

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
	"ptradoor.backend/internal/domain/entities"
)

// ExplorerClient looks up a wallet's transaction history through an
// Etherscan-compatible account API.
type ExplorerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewExplorerClient creates a client limited to requestsPerSecond outbound calls
func NewExplorerClient(baseURL, apiKey string, requestsPerSecond float64, timeout time.Duration) *ExplorerClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExplorerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// GetTransactions returns the normal transactions involving address, oldest first
func (c *ExplorerClient) GetTransactions(ctx context.Context, address string) ([]entities.ChainTransaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "asc")
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("explorer returned invalid json")
	}
	return parseTxList(body)
}

func parseTxList(body []byte) ([]entities.ChainTransaction, error) {
	parsed := gjson.ParseBytes(body)
	result := parsed.Get("result")

	if parsed.Get("status").String() != "1" {
		// an address without history is reported as status 0 with an empty result list
		if result.IsArray() && len(result.Array()) == 0 {
			return []entities.ChainTransaction{}, nil
		}
		return nil, fmt.Errorf("explorer error: %s: %s", parsed.Get("message").String(), result.String())
	}

	items := result.Array()
	txs := make([]entities.ChainTransaction, 0, len(items))
	for _, item := range items {
		txs = append(txs, entities.ChainTransaction{
			Hash:        item.Get("hash").String(),
			BlockNumber: item.Get("blockNumber").Uint(),
			From:        strings.ToLower(item.Get("from").String()),
			To:          strings.ToLower(item.Get("to").String()),
			Value:       parseBig(item.Get("value").String()),
			Gas:         item.Get("gas").Uint(),
			GasUsed:     item.Get("gasUsed").Uint(),
			GasPrice:    parseBig(item.Get("gasPrice").String()),
			IsError:     item.Get("isError").String() == "1",
		})
	}
	return txs, nil
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
