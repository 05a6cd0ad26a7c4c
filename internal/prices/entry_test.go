package prices_test

import (
	"encoding/json"
	"testing"

	"PriceDesk/internal/prices"
)

func TestEntry_UnmarshalShapes(t *testing.T) {
	var tbl prices.Table
	raw := `{"legacy": 14500, "rate": 2.8, "zero": 0, "nil": null,
		"named": {"price": 55000, "displayName": "Intel i9-14900K"},
		"bare": {"displayName": "no price"}}`
	if err := json.Unmarshal([]byte(raw), &tbl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cases := []struct {
		id         string
		price      float64
		name       string
		structured bool
	}{
		{"legacy", 14500, "", false},
		{"rate", 2.8, "", false},
		{"zero", 0, "", false},
		{"nil", 0, "", false},
		{"named", 55000, "Intel i9-14900K", true},
		{"bare", 0, "no price", true},
	}
	for _, c := range cases {
		e, ok := tbl[c.id]
		if !ok {
			t.Fatalf("%s: missing", c.id)
		}
		if e.Price != c.price || e.DisplayName != c.name || e.Structured != c.structured {
			t.Fatalf("%s: got %+v", c.id, e)
		}
	}
}

func TestEntry_RejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{`{"x": "14500"}`, `{"x": [1]}`, `{"x": true}`} {
		var tbl prices.Table
		if err := json.Unmarshal([]byte(raw), &tbl); err == nil {
			t.Fatalf("%s: expected error", raw)
		}
	}
}

func TestEntry_MarshalKeepsShape(t *testing.T) {
	b, err := json.Marshal(prices.Legacy(480))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "480" {
		t.Fatalf("legacy=%s", b)
	}

	b, err = json.Marshal(prices.Structured(0, "Integrated"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"price":0,"displayName":"Integrated"}` {
		t.Fatalf("structured=%s", b)
	}
}

func TestEntry_WithPricePreservesDisplayName(t *testing.T) {
	e := prices.Structured(100, "Fancy").WithPrice(200)
	if !e.Structured || e.DisplayName != "Fancy" || e.Price != 200 {
		t.Fatalf("got %+v", e)
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c := prices.NewCatalog()
	c.Tables["cpu"] = prices.Table{
		"i5":    prices.Legacy(24800),
		"i9":    prices.Structured(55000, "Intel i9"),
		"free":  prices.Legacy(0),
		"blank": prices.Entry{Structured: true},
	}
	c.Tables["ram"] = prices.Table{"perGB": prices.Structured(480, "per GB")}
	c.Tables["storage"] = prices.Table{"perGB": prices.Legacy(2.8)}

	cases := []struct {
		category, id string
		want         float64
	}{
		{"cpu", "i5", 24800},
		{"cpu", "i9", 55000},
		{"cpu", "free", 0},
		{"cpu", "blank", 0},
		{"cpu", "", 0},
		{"cpu", "missing", 0},
		{"gpu", "rtx4070", 0},
		{"ram", "perGB", 480},
		{"storage", "perGB", 2.8},
		{"metadata", "source", 0},
	}
	for _, tc := range cases {
		if got := c.Resolve(tc.category, tc.id); got != tc.want {
			t.Fatalf("Resolve(%s, %s)=%v want=%v", tc.category, tc.id, got, tc.want)
		}
	}
}

func TestCatalog_ResolvePassesThroughHandEditedValues(t *testing.T) {
	c := prices.NewCatalog()
	c.Tables["gpu"] = prices.Table{"refund": prices.Legacy(-5)}

	if got := c.Resolve("gpu", "refund"); got != -5 {
		t.Fatalf("got %v", got)
	}
}
