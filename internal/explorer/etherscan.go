// Package explorer fetches recent wallet transfers from the Etherscan API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/artur/bobina/internal/logger"
	"github.com/artur/bobina/internal/metrics"
	"github.com/artur/bobina/internal/upstream"
)

const (
	DefaultBaseURL = "https://api.etherscan.io/api"

	actionNative = "txlist"
	actionToken  = "tokentx"

	// maxTransfers is how many of the newest rows are kept per call.
	maxTransfers = 3

	statusOK = "1"
)

// Transfer is one row of a txlist or tokentx result.
type Transfer struct {
	Hash         string `json:"hash"`
	TimeStamp    string `json:"timeStamp"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenName    string `json:"tokenName,omitempty"`
	TokenSymbol  string `json:"tokenSymbol,omitempty"`
	TokenDecimal string `json:"tokenDecimal,omitempty"`
}

// envelope is the wire shape shared by all account endpoints. Result holds
// a list on success and usually a string on error.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ProviderError is a well-formed error answer from the API.
type ProviderError struct {
	Action  string
	Message string
	Result  string
}

func (e *ProviderError) Error() string {
	if e.Result != "" {
		return fmt.Sprintf("etherscan %s: %s (%s)", e.Action, e.Message, e.Result)
	}
	return fmt.Sprintf("etherscan %s: %s", e.Action, e.Message)
}

// Client queries the account module of an Etherscan-compatible API.
type Client struct {
	http    *upstream.Client
	baseURL string
	apiKey  string
}

func NewClient(httpClient *upstream.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// FetchNativeTransfers returns up to three newest ETH transfers for address.
// The slice is nil whenever err is non-nil.
func (c *Client) FetchNativeTransfers(ctx context.Context, address string) ([]Transfer, error) {
	return c.fetch(ctx, actionNative, address)
}

// FetchTokenTransfers returns up to three newest ERC-20 transfers for address.
func (c *Client) FetchTokenTransfers(ctx context.Context, address string) ([]Transfer, error) {
	return c.fetch(ctx, actionToken, address)
}

func (c *Client) fetch(ctx context.Context, action, address string) ([]Transfer, error) {
	l := logger.For("explorer")

	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", action)
	query.Set("address", address)
	query.Set("startblock", "0")
	query.Set("endblock", "99999999")
	query.Set("sort", "desc")
	l.Debug().Str("action", action).Str("address", address).Msg("fetching transfers")

	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "?" + query.Encode()

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return c.fail(action, fmt.Errorf("fetch %s: %w", action, err))
	}
	if !resp.OK() {
		return c.fail(action, fmt.Errorf("fetch %s: unexpected status %d", action, resp.StatusCode))
	}

	transfers, err := decode(action, resp.Body)
	if err != nil {
		return c.fail(action, err)
	}
	if len(transfers) > maxTransfers {
		transfers = transfers[:maxTransfers]
	}
	return transfers, nil
}

func (c *Client) fail(action string, err error) ([]Transfer, error) {
	metrics.UpstreamFailure("etherscan")
	l := logger.For("explorer")
	l.Warn().Str("action", action).Err(err).Msg("transfer fetch failed")
	return nil, err
}

func decode(action string, body []byte) ([]Transfer, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", action, err)
	}

	if env.Status != statusOK {
		perr := &ProviderError{Action: action, Message: env.Message}
		var result string
		if json.Unmarshal(env.Result, &result) == nil {
			perr.Result = result
		}
		return nil, perr
	}

	var transfers []Transfer
	if err := json.Unmarshal(env.Result, &transfers); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", action, err)
	}
	return transfers, nil
}
