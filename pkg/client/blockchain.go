package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"swapflow/pkg/types"
)

const defaultTimeout = 30 * time.Second

// BlockchainClient talks to the upstream blockchain API: token lists, the
// price feed and the quote/allowance/calldata endpoints. All responses are
// typed JSON; any non-2xx status becomes an error with the message the
// server included.
type BlockchainClient struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
}

// NewBlockchainClient creates a client for the given API endpoint.
func NewBlockchainClient(baseURL, projectID string) *BlockchainClient {
	return &BlockchainClient{
		baseURL:    baseURL,
		projectID:  projectID,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchTokenList retrieves the tradable token set for a network.
func (c *BlockchainClient) FetchTokenList(ctx context.Context, networkID string) ([]types.Token, error) {
	query := url.Values{}
	query.Set("chainId", networkID)

	var out struct {
		Tokens []types.Token `json:"tokens"`
	}
	if err := c.get(ctx, "/v1/tokens", query, &out); err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	return out.Tokens, nil
}

// FetchTokenPrice retrieves USD prices for the given token addresses.
func (c *BlockchainClient) FetchTokenPrice(ctx context.Context, addresses []string) ([]types.FungiblePrice, error) {
	body := map[string]any{
		"currency":  "usd",
		"addresses": addresses,
	}

	var out struct {
		Fungibles []types.FungiblePrice `json:"fungibles"`
	}
	if err := c.post(ctx, "/v1/fungible/price", body, &out); err != nil {
		return nil, fmt.Errorf("failed to get token prices: %w", err)
	}

	return out.Fungibles, nil
}

// FetchGasPrice retrieves the gas price feed for a network.
func (c *BlockchainClient) FetchGasPrice(ctx context.Context, networkID string) (*types.GasPrices, error) {
	query := url.Values{}
	query.Set("chainId", networkID)

	var out types.GasPrices
	if err := c.get(ctx, "/v1/gas-price", query, &out); err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	return &out, nil
}

// FetchSwapQuote requests conversion quotes for a pair and base-unit
// amount.
func (c *BlockchainClient) FetchSwapQuote(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error) {
	query := url.Values{}
	query.Set("userAddress", req.UserAddress)
	query.Set("from", req.From)
	query.Set("to", req.To)
	query.Set("amount", req.Amount)
	if req.GasPrice != "" {
		query.Set("gasPrice", req.GasPrice)
	}

	var out struct {
		Quotes []types.Quote `json:"quotes"`
	}
	if err := c.get(ctx, "/v1/convert/quotes", query, &out); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return out.Quotes, nil
}

// FetchSwapAllowance returns the ERC-20 allowance the user has granted the
// swap router for a token.
func (c *BlockchainClient) FetchSwapAllowance(ctx context.Context, req types.AllowanceRequest) (*big.Int, error) {
	query := url.Values{}
	query.Set("tokenAddress", req.TokenAddress)
	query.Set("userAddress", req.UserAddress)

	var out struct {
		Allowance string `json:"allowance"`
	}
	if err := c.get(ctx, "/v1/convert/allowance", query, &out); err != nil {
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}

	allowance, ok := new(big.Int).SetString(out.Allowance, 10)
	if !ok {
		return nil, fmt.Errorf("invalid allowance value %q", out.Allowance)
	}

	return allowance, nil
}

// GenerateApproveCalldata requests approval calldata for a token pair.
func (c *BlockchainClient) GenerateApproveCalldata(ctx context.Context, req types.ApproveCalldataRequest) (*types.CalldataTx, error) {
	query := url.Values{}
	query.Set("from", req.From)
	query.Set("to", req.To)
	query.Set("userAddress", req.UserAddress)

	var out struct {
		Tx types.CalldataTx `json:"tx"`
	}
	if err := c.get(ctx, "/v1/convert/build-approve", query, &out); err != nil {
		return nil, fmt.Errorf("failed to build approve calldata: %w", err)
	}

	return &out.Tx, nil
}

// GenerateSwapCalldata requests swap calldata for the pair and amount.
func (c *BlockchainClient) GenerateSwapCalldata(ctx context.Context, req types.SwapCalldataRequest) (*types.CalldataTx, error) {
	body := map[string]any{
		"userAddress":     req.UserAddress,
		"from":            req.From,
		"to":              req.To,
		"amount":          req.Amount,
		"disableEstimate": req.DisableEstimate,
		"eip155": map[string]any{
			"slippage": req.Slippage,
		},
	}

	var out struct {
		Tx types.CalldataTx `json:"tx"`
	}
	if err := c.post(ctx, "/v1/convert/build-transaction", body, &out); err != nil {
		return nil, fmt.Errorf("failed to build swap calldata: %w", err)
	}

	return &out.Tx, nil
}

// TokensWithBalance retrieves the user's balances for a network, optionally
// forcing a refresh for a comma-joined list of token addresses.
func (c *BlockchainClient) TokensWithBalance(ctx context.Context, q types.BalanceQuery) ([]types.Balance, error) {
	query := url.Values{}
	query.Set("chainId", q.NetworkID)
	if q.ForceUpdate != "" {
		query.Set("forceUpdate", q.ForceUpdate)
	}

	var out struct {
		Balances []types.Balance `json:"balances"`
	}
	if err := c.get(ctx, "/v1/account/"+q.Address+"/balance", query, &out); err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	return out.Balances, nil
}

func (c *BlockchainClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *BlockchainClient) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *BlockchainClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("projectId", c.projectID)

	endpoint := c.baseURL + path + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError extracts the server's error message from the response body,
// falling back to the raw body and status code.
func apiError(resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr == nil && len(bodyBytes) > 0 {
		var errorResp map[string]any
		if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
			if message, ok := errorResp["message"].(string); ok {
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, message)
			}
			if errs, ok := errorResp["errors"]; ok {
				return fmt.Errorf("API error (status %d): %v", resp.StatusCode, errs)
			}
		}

		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return fmt.Errorf("API returned status code %d", resp.StatusCode)
}
