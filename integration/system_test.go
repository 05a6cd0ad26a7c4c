//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:3000")

func TestSystem_E2E_CatalogLifecycle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var all struct {
		Prices map[string]json.RawMessage `json:"prices"`
		Status string                     `json:"status"`
	}
	doJSON(t, http.MethodGet, baseURL+"/api/all-prices", nil, &all, 200)
	if all.Status != "success" || len(all.Prices) == 0 {
		t.Fatalf("unexpected catalog: %+v", all)
	}

	pid := fmt.Sprintf("e2e-%d-%d", time.Now().Unix(), rand.Intn(100000))

	var added struct {
		Success   bool `json:"success"`
		Component struct {
			DisplayName string `json:"displayName"`
		} `json:"component"`
	}
	doJSON(t, http.MethodPost, baseURL+"/api/add-component", map[string]any{
		"category":    "gpu",
		"productId":   pid,
		"price":       12345,
		"displayName": "E2E Card",
	}, &added, 200)
	if !added.Success || added.Component.DisplayName != "E2E Card" {
		t.Fatalf("add response: %+v", added)
	}

	doJSON(t, http.MethodPost, baseURL+"/api/add-component", map[string]any{
		"category":  "gpu",
		"productId": pid,
		"price":     1,
	}, nil, 409)

	doJSON(t, http.MethodPost, baseURL+"/api/update-prices", map[string]any{
		"category":  "gpu",
		"productId": pid,
		"price":     23456,
	}, nil, 200)

	if os.Getenv("E2E_RESTART_PRICES") == "1" {
		restartPricesContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
	}

	var price struct {
		Price float64 `json:"price"`
	}
	doJSON(t, http.MethodGet, baseURL+"/api/price/gpu/"+pid, nil, &price, 200)
	if price.Price != 23456 {
		t.Fatalf("price=%v want=23456", price.Price)
	}

	doJSON(t, http.MethodPost, baseURL+"/api/delete-component", map[string]any{
		"category":  "gpu",
		"productId": pid,
	}, nil, 200)
	doJSON(t, http.MethodPost, baseURL+"/api/delete-component", map[string]any{
		"category":  "gpu",
		"productId": pid,
	}, nil, 404)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
