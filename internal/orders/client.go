// Package orders holds the submission pipeline, the backend API client and
// the authoritative collection of submitted orders.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// TokenSource supplies the session token. forceRefresh asks the session
// store for a fresh credential.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// staleLeeway: a token expiring within this window counts as stale and
// triggers the single pre-request refresh attempt.
const staleLeeway = 30 * time.Second

// Client talks the backend REST contract.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubmitOrder creates a new order. The draft is rejected locally, with no
// network call, when the phone number is empty.
func (c *Client) SubmitOrder(ctx context.Context, d models.OrderDraft) (*models.Order, error) {
	if d.Customer.Phone == "" {
		return nil, errs.New(errs.KindValidation, "phone number is required")
	}
	return c.sendOrder(ctx, http.MethodPost, c.baseURL+"/api/orders", models.BuildOrderPayload(d))
}

// UpdateOrder resubmits an edited draft against an existing order id.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, d models.OrderDraft) (*models.Order, error) {
	if d.Customer.Phone == "" {
		return nil, errs.New(errs.KindValidation, "phone number is required")
	}
	return c.sendOrder(ctx, http.MethodPut, c.baseURL+"/api/orders/"+orderID, models.BuildOrderPayload(d))
}

func (c *Client) sendOrder(ctx context.Context, method, url string, payload models.OrderPayload) (*models.Order, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to marshal order", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, "failed to reach server", err)
	}
	defer resp.Body.Close()

	return decodeOrder(resp)
}

// FetchOrders returns the full order collection.
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/orders", nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to create request", err)
	}
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, "failed to reach server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendError(resp)
	}

	var orders []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to decode orders", err)
	}
	return orders, nil
}

// UpdateStatus patches a single order's status.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	body, err := json.Marshal(models.UpdateStatusRequest{Status: next})
	if err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to marshal status", err)
	}

	url := c.baseURL + "/api/orders/" + orderID + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, "failed to reach server", err)
	}
	defer resp.Body.Close()

	return decodeOrder(resp)
}

// authorize attaches the session token when one exists. A stale token gets
// exactly one refresh attempt; if the refresh fails the request proceeds
// with the old token.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx, false)
	if err != nil || token == "" {
		return
	}
	if tokenStale(token, time.Now()) {
		if fresh, err := c.tokens.Token(ctx, true); err == nil && fresh != "" {
			token = fresh
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// tokenStale inspects the token's exp claim without verifying the
// signature. Tokens that do not parse or carry no expiry are used as-is.
func tokenStale(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now.Add(staleLeeway))
}

func decodeOrder(resp *http.Response) (*models.Order, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendError(resp)
	}
	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, errs.Wrap(errs.KindBackend, "failed to decode order", err)
	}
	return &order, nil
}

// backendError surfaces the backend's structured message when the body
// decodes, else the generic status fallback.
func backendError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var errResp models.ErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Message != "" {
		return errs.New(errs.KindBackend, errResp.Message)
	}
	return errs.New(errs.KindBackend, fmt.Sprintf("Server error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}
