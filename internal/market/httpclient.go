package market

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"solhelm/internal/types"
)

const defaultHTTPTimeout = 10 * time.Second

var (
	_ MarketDataProvider = (*HTTPProvider)(nil)
	_ QuoteProvider      = (*HTTPQuoter)(nil)
	_ Executor           = (*HTTPExecutor)(nil)
	_ WalletReader       = (*HTTPWallet)(nil)
)

// httpClient is the shared request plumbing for the REST adapters.
type httpClient struct {
	base   *url.URL
	client *http.Client
}

func newHTTPClient(rawURL string, timeout time.Duration) (*httpClient, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, fmt.Errorf("endpoint url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &httpClient{base: parsed, client: &http.Client{Timeout: timeout}}, nil
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("building request: %w", err)
	}
	return c.do(req)
}

func (c *httpClient) post(ctx context.Context, path string, payload any) (gjson.Result, error) {
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	buf, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(buf))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *httpClient) do(req *http.Request) (gjson.Result, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("calling %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(data))
		if detail == "" {
			detail = resp.Status
		}
		return gjson.Result{}, fmt.Errorf("upstream error (%s): %s", resp.Status, detail)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("upstream returned malformed JSON")
	}
	return gjson.ParseBytes(data), nil
}

// HTTPProvider reads prices and token metadata from a REST market-data
// gateway (aggregator-shaped: /price and /token endpoints).
type HTTPProvider struct {
	c *httpClient
}

func NewHTTPProvider(baseURL string, timeout time.Duration) (*HTTPProvider, error) {
	c, err := newHTTPClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("market provider: %w", err)
	}
	return &HTTPProvider{c: c}, nil
}

func (p *HTTPProvider) GetPrice(ctx context.Context, asset string) (PriceData, error) {
	res, err := p.c.get(ctx, "/price", url.Values{"asset": {asset}})
	if err != nil {
		return PriceData{}, fmt.Errorf("price %s: %w", asset, err)
	}
	price := res.Get("price").Float()
	if price <= 0 {
		return PriceData{}, fmt.Errorf("price %s: non-positive price in response", asset)
	}
	pd := PriceData{
		Price:        price,
		MarketCap:    res.Get("marketCap").Float(),
		LiquidityUSD: res.Get("liquidityUsd").Float(),
		Volume24hUSD: res.Get("volume24hUsd").Float(),
	}
	res.Get("priceHistory").ForEach(func(_, v gjson.Result) bool {
		pd.PriceHistory = append(pd.PriceHistory, v.Float())
		return true
	})
	res.Get("volumeHistory").ForEach(func(_, v gjson.Result) bool {
		pd.VolumeHistory = append(pd.VolumeHistory, v.Float())
		return true
	})
	return pd, nil
}

func (p *HTTPProvider) GetTokenMetadata(ctx context.Context, asset string) (TokenMetadata, error) {
	res, err := p.c.get(ctx, "/token", url.Values{"asset": {asset}})
	if err != nil {
		return TokenMetadata{}, fmt.Errorf("metadata %s: %w", asset, err)
	}
	md := TokenMetadata{
		Verified:               res.Get("verified").Bool(),
		OwnershipConcentration: res.Get("ownershipConcentrationPct").Float(),
		TaxPercentage:          res.Get("taxPct").Float(),
	}
	res.Get("suspiciousAttributes").ForEach(func(_, v gjson.Result) bool {
		md.SuspiciousAttributes = append(md.SuspiciousAttributes, v.String())
		return true
	})
	return md, nil
}

// HTTPQuoter quotes swaps against a Jupiter-style aggregator API.
type HTTPQuoter struct {
	c *httpClient
}

func NewHTTPQuoter(baseURL string, timeout time.Duration) (*HTTPQuoter, error) {
	c, err := newHTTPClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("quote provider: %w", err)
	}
	return &HTTPQuoter{c: c}, nil
}

func (q *HTTPQuoter) GetQuote(ctx context.Context, inputAsset, outputAsset string, amount float64, slippageBps int) (Quote, error) {
	res, err := q.c.get(ctx, "/quote", url.Values{
		"inputMint":   {inputAsset},
		"outputMint":  {outputAsset},
		"amount":      {strconv.FormatFloat(amount, 'f', -1, 64)},
		"slippageBps": {strconv.Itoa(slippageBps)},
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s->%s: %w", inputAsset, outputAsset, err)
	}
	quote := Quote{
		InputAsset:  inputAsset,
		OutputAsset: outputAsset,
		InAmount:    res.Get("inAmount").Float(),
		OutAmount:   res.Get("outAmount").Float(),
		SlippageBps: int(res.Get("slippageBps").Int()),
	}
	if quote.OutAmount <= 0 {
		return Quote{}, fmt.Errorf("quote %s->%s: empty route", inputAsset, outputAsset)
	}
	res.Get("routePlan.#.swapInfo.label").ForEach(func(_, v gjson.Result) bool {
		quote.RoutePlan = append(quote.RoutePlan, v.String())
		return true
	})
	return quote, nil
}

func (q *HTTPQuoter) GetSwapTransaction(ctx context.Context, quote Quote, walletAddress string) ([]byte, error) {
	res, err := q.c.post(ctx, "/swap", map[string]any{
		"inputMint":   quote.InputAsset,
		"outputMint":  quote.OutputAsset,
		"inAmount":    quote.InAmount,
		"outAmount":   quote.OutAmount,
		"slippageBps": quote.SlippageBps,
		"userPubkey":  walletAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("swap transaction: %w", err)
	}
	raw := res.Get("swapTransaction").String()
	if raw == "" {
		return nil, fmt.Errorf("swap transaction: empty transaction in response")
	}
	tx, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("swap transaction: decoding payload: %w", err)
	}
	return tx, nil
}

// HTTPExecutor submits order intents to the external execution service and
// reports back what actually filled.
type HTTPExecutor struct {
	c *httpClient
}

func NewHTTPExecutor(baseURL string, timeout time.Duration) (*HTTPExecutor, error) {
	c, err := newHTTPClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	return &HTTPExecutor{c: c}, nil
}

func (x *HTTPExecutor) Execute(ctx context.Context, intent types.OrderIntent) (ExecutionResult, error) {
	res, err := x.c.post(ctx, "/execute", intent)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("execute %s %s: %w", intent.Side, intent.Symbol, err)
	}
	return ExecutionResult{
		Signature:         res.Get("signature").String(),
		ExecutedAmount:    res.Get("executedAmount").Float(),
		ExecutedPrice:     res.Get("executedPrice").Float(),
		ActualSlippageBps: res.Get("actualSlippageBps").Float(),
		Success:           res.Get("success").Bool(),
	}, nil
}

// HTTPWallet reads balances for one wallet address from an RPC-proxy style
// balances endpoint.
type HTTPWallet struct {
	c       *httpClient
	address string
}

func NewHTTPWallet(baseURL, address string, timeout time.Duration) (*HTTPWallet, error) {
	c, err := newHTTPClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("wallet reader: %w", err)
	}
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("wallet reader: wallet address cannot be empty")
	}
	return &HTTPWallet{c: c, address: address}, nil
}

func (w *HTTPWallet) NativeBalance(ctx context.Context) (float64, error) {
	res, err := w.c.get(ctx, "/balances", url.Values{"address": {w.address}})
	if err != nil {
		return 0, fmt.Errorf("native balance: %w", err)
	}
	return res.Get("native").Float(), nil
}

func (w *HTTPWallet) TokenBalances(ctx context.Context) (map[string]float64, error) {
	res, err := w.c.get(ctx, "/balances", url.Values{"address": {w.address}})
	if err != nil {
		return nil, fmt.Errorf("token balances: %w", err)
	}
	out := make(map[string]float64)
	res.Get("tokens").ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.Float()
		return true
	})
	return out, nil
}
