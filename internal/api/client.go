// Package api is the REST transport to the AI-Trader backend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"aitrader/internal/signal"
	"aitrader/internal/strategy"
)

// Credentials supplies the bearer token for outgoing requests and is told
// when a response invalidated it.
type Credentials interface {
	Authorize(req *resty.Request)
	Invalidate()
}

// Client wraps the four backend endpoints the session needs.
type Client struct {
	http  *resty.Client
	creds Credentials
}

// NewClient builds a client for the given base URL. A zero timeout disables
// the client-side deadline; the analyze call can run for several minutes.
func NewClient(baseURL string, timeout time.Duration, creds Credentials) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	// Every request carries the current token when one is present, the login
	// call included. That mirrors how the credential gate works server-side:
	// unauthorized endpoints just ignore the header.
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		creds.Authorize(req)
		return nil
	})

	return &Client{
		http:  httpClient,
		creds: creds,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges form-encoded credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var result loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&result).
		Post("/login")
	if err := c.check(resp, err); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", &Error{Kind: KindServerRejected, StatusCode: resp.StatusCode(), Detail: "login response missing access_token"}
	}
	return result.AccessToken, nil
}

type activeAnalysesResponse struct {
	ActiveCount int `json:"active_count"`
}

// ActiveAnalyses reports how many analyses the server is running right now.
func (c *Client) ActiveAnalyses(ctx context.Context) (int, error) {
	var result activeAnalysesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/analyses/active")
	if err := c.check(resp, err); err != nil {
		return 0, err
	}
	return result.ActiveCount, nil
}

type analyzeRequest struct {
	Pair        string `json:"pair"`
	StrategyKey string `json:"strategy_key"`
}

// Analyze submits one analysis request and blocks until the backend settles
// it with a trade plan or a no-signal verdict.
func (c *Client) Analyze(ctx context.Context, pair string, strategyKey strategy.Key) (signal.Outcome, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Pair: pair, StrategyKey: string(strategyKey)}).
		Post("/analyze/")
	if err := c.check(resp, err); err != nil {
		return signal.Outcome{}, err
	}
	outcome, err := signal.DecodeOutcome(resp.Body())
	if err != nil {
		return signal.Outcome{}, &Error{Kind: KindServerRejected, StatusCode: resp.StatusCode(), Detail: err.Error()}
	}
	return outcome, nil
}

// History fetches the user's past signals, newest first as served.
func (c *Client) History(ctx context.Context) ([]signal.HistorySignal, error) {
	var result []signal.HistorySignal
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/history")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return result, nil
}

// check maps a resty exchange onto the error taxonomy. An unauthorized status
// from any endpoint drops the stored token as a side effect.
func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return &Error{Kind: KindConnectivity, cause: err}
	}
	if resp.IsError() {
		detail := parseDetail(resp.Body())
		if resp.StatusCode() == http.StatusUnauthorized {
			c.creds.Invalidate()
			return &Error{Kind: KindUnauthorized, StatusCode: resp.StatusCode(), Detail: detail}
		}
		return &Error{Kind: KindServerRejected, StatusCode: resp.StatusCode(), Detail: detail}
	}
	return nil
}

// parseDetail pulls FastAPI's {"detail": "..."} out of an error body, falling
// back to the raw text.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	return strings.TrimSpace(string(body))
}
