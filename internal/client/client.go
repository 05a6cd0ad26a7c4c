package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PriceDesk/internal/prices"
)

var (
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("component already exists")
	ErrNotFound    = errors.New("component not found")
	ErrServer      = errors.New("prices server error")
	ErrUnavailable = errors.New("prices server unavailable")
)

// Client talks to the prices HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type AllPrices struct {
	Prices    prices.Catalog `json:"prices"`
	Timestamp time.Time      `json:"timestamp"`
	Status    string         `json:"status"`
	Source    string         `json:"source"`
}

type Component struct {
	Category    string  `json:"category"`
	ProductID   string  `json:"productId"`
	Price       float64 `json:"price"`
	DisplayName string  `json:"displayName"`
}

type Result struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Component *Component `json:"component,omitempty"`
}

func (c *Client) AllPrices(ctx context.Context) (AllPrices, error) {
	var out AllPrices
	err := c.do(ctx, http.MethodGet, "/api/all-prices", nil, &out)
	return out, err
}

func (c *Client) Price(ctx context.Context, category, productID string) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}
	p := "/api/price/" + url.PathEscape(category) + "/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, p, nil, &out); err != nil {
		return 0, err
	}
	return out.Price, nil
}

func (c *Client) Update(ctx context.Context, category, productID string, price float64) (Result, error) {
	var out Result
	err := c.do(ctx, http.MethodPost, "/api/update-prices", map[string]any{
		"category":  category,
		"productId": productID,
		"price":     price,
	}, &out)
	return out, err
}

func (c *Client) Add(ctx context.Context, category, productID string, price float64, displayName string) (Result, error) {
	body := map[string]any{
		"category":  category,
		"productId": productID,
		"price":     price,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}

	var out Result
	err := c.do(ctx, http.MethodPost, "/api/add-component", body, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, category, productID string) (Result, error) {
	var out Result
	err := c.do(ctx, http.MethodPost, "/api/delete-component", map[string]any{
		"category":  category,
		"productId": productID,
	}, &out)
	return out, err
}

func (c *Client) EstimatePC(ctx context.Context, b prices.PCBuild) (prices.Estimate, error) {
	var out prices.Estimate
	err := c.do(ctx, http.MethodPost, "/api/estimate/pc", b, &out)
	return out, err
}

func (c *Client) EstimateLaptop(ctx context.Context, b prices.LaptopBuild) (prices.Estimate, error) {
	var out prices.Estimate
	err := c.do(ctx, http.MethodPost, "/api/estimate/laptop", b, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	msg := e.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w: status=%d %s", ErrServer, resp.StatusCode, msg)
	}
}
