package prices

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is a single price in a category table. Legacy entries are stored as a bare
// JSON number, structured ones as {"price": n, "displayName": "..."}.
type Entry struct {
	Price       float64
	DisplayName string
	Structured  bool
}

func Legacy(price float64) Entry {
	return Entry{Price: price}
}

func Structured(price float64, displayName string) Entry {
	return Entry{Price: price, DisplayName: displayName, Structured: true}
}

// WithPrice keeps the entry's shape and display name.
func (e Entry) WithPrice(price float64) Entry {
	e.Price = price
	return e
}

type structuredEntry struct {
	Price       *float64 `json:"price,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if !e.Structured {
		return json.Marshal(e.Price)
	}
	p := e.Price
	return json.Marshal(structuredEntry{Price: &p, DisplayName: e.DisplayName})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*e = Entry{}
		return nil
	case len(b) > 0 && b[0] == '{':
		var s structuredEntry
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("structured entry: %w", err)
		}
		*e = Entry{DisplayName: s.DisplayName, Structured: true}
		if s.Price != nil {
			e.Price = *s.Price
		}
		return nil
	default:
		var p float64
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("legacy entry: %w", err)
		}
		*e = Entry{Price: p}
		return nil
	}
}

// Resolve returns the effective price of category/productID, or 0 when either is
// unknown. Legacy numbers and structured entries resolve the same way; a
// structured entry without a price is 0.
func (c Catalog) Resolve(category, productID string) float64 {
	if productID == "" {
		return 0
	}
	e, ok := c.Tables[category][productID]
	if !ok {
		return 0
	}
	return e.Price
}
