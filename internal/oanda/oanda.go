package oanda

import (
	"context"
	"fmt"
	"time"

	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

var oandaLog = logging.New("oanda")

const (
	DefaultBaseUrl = "https://api-fxpractice.oanda.com"
	DefaultTimeout = 10 * time.Second
)

// Client talks to the Oanda v20 REST API. It implements the engine's market
// data, authentication and order execution boundaries.
type Client struct {
	AccountId string
	ApiKey    string
	ApiUrl    string
	// CandleCount is the number of candles FetchBars asks for.
	CandleCount int

	http    *fasthttp.Client
	timeout time.Duration
}

func NewClient(accountId, apiKey, apiUrl string) *Client {
	if apiUrl == "" {
		apiUrl = DefaultBaseUrl
	}

	return &Client{
		AccountId: accountId,
		ApiKey:    apiKey,
		ApiUrl:    apiUrl,
		http: &fasthttp.Client{
			Name:                "tradebot",
			MaxIdleConnDuration: time.Minute,
		},
		timeout: DefaultTimeout,
	}
}

// APIError is a non 2xx response from Oanda.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oanda: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("oanda: status %d: %s", e.StatusCode, e.Body)
}

// Authenticate checks the key against the account summary endpoint.
func (c *Client) Authenticate(ctx context.Context) (types.Credential, error) {
	if c.AccountId == "" || c.ApiKey == "" {
		return types.Credential{}, fmt.Errorf("oanda account id and api key are required")
	}

	body, err := c.do(ctx, fasthttp.MethodGet, "/v3/accounts/"+c.AccountId+"/summary", nil, nil)
	if err != nil {
		return types.Credential{}, fmt.Errorf("failed to fetch account summary: %w", err)
	}

	account := gjson.GetBytes(body, "account")
	if !account.Exists() {
		return types.Credential{}, fmt.Errorf("account summary response has no account")
	}

	oandaLog.Info("Connected to Oanda",
		"account_id", account.Get("id").String(),
		"currency", account.Get("currency").String(),
		"balance", account.Get("balance").String(),
		"open_trades", account.Get("openTradeCount").Int())

	return types.Credential{
		Token:     c.ApiKey,
		AccountID: account.Get("id").String(),
	}, nil
}

// do sends one request and returns a copy of the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.ApiUrl + path)
	req.Header.SetMethod(method)
	for k, v := range query {
		req.URI().QueryArgs().Set(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+c.ApiKey)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	oandaLog.Debug("Request", "method", method, "url", req.URI().String())

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	body := append([]byte(nil), resp.Body()...)
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		apiErr := &APIError{
			StatusCode: status,
			Message:    gjson.GetBytes(body, "errorMessage").String(),
			Body:       string(body),
		}
		oandaLog.Error("Oanda returned an error status", "method", method, "path", path, "statusCode", status, "rawResponse", apiErr.Body)
		return body, apiErr
	}

	return body, nil
}
