package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the Stripe REST API with form-encoded requests.
type Client struct {
	secretKey  string
	baseURL    string
	successURL string
	currency   string
	httpClient *http.Client
}

// NewClient creates a new Stripe API client.
func NewClient(secretKey, baseURL, successURL, currency string) *Client {
	return &Client{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		successURL: successURL,
		currency:   currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Product represents a Stripe product.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Price represents a Stripe price.
type Price struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

// CheckoutSession represents a Stripe checkout session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateProduct registers a product for a purchasable course.
func (c *Client) CreateProduct(ctx context.Context, name string) (*Product, error) {
	form := url.Values{}
	form.Set("name", name)

	var product Product
	if err := c.post(ctx, "/v1/products", form, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// CreatePrice attaches a one-time price to a product. The amount is
// given in minor units of the configured currency.
func (c *Client) CreatePrice(ctx context.Context, productID string, unitAmount int64) (*Price, error) {
	form := url.Values{}
	form.Set("product", productID)
	form.Set("unit_amount", strconv.FormatInt(unitAmount, 10))
	form.Set("currency", c.currency)

	var price Price
	if err := c.post(ctx, "/v1/prices", form, &price); err != nil {
		return nil, fmt.Errorf("failed to create price: %w", err)
	}
	return &price, nil
}

// CreateCheckoutSession creates a hosted checkout session for a price.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("success_url", c.successURL)
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("mode", "payment")

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &session, nil
}

// GetCheckoutSession fetches the current state of a checkout session.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return &session, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("User-Agent", "StudyHub-Server-Go/1.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe error: status=%d, message=%s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("stripe error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
