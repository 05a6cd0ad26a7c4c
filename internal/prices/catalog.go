package prices

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lukechampine.com/blake3"
)

const metadataKey = "metadata"

type Table map[string]Entry

type Metadata struct {
	LastUpdated time.Time
	Source      string
	Version     string

	// rawLastUpdated keeps a hand-written lastUpdated that is not RFC 3339 so it
	// survives a round trip until the next mutation stamps a real time.
	rawLastUpdated json.RawMessage
}

type metadataJSON struct {
	LastUpdated any    `json:"lastUpdated"`
	Source      string `json:"source"`
	Version     string `json:"version,omitempty"`
}

// Stamp records a mutation at now.
func (m *Metadata) Stamp(now time.Time, source string) {
	m.LastUpdated = now.UTC()
	m.Source = source
	m.rawLastUpdated = nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{LastUpdated: m.LastUpdated, Source: m.Source, Version: m.Version}
	if len(m.rawLastUpdated) > 0 {
		out.LastUpdated = m.rawLastUpdated
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any object. Fields of an unexpected type are kept as
// text (version, source) or verbatim (lastUpdated) instead of failing.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("metadata is not an object")
	}

	out := Metadata{Source: looseString(raw["source"]), Version: looseString(raw["version"])}
	if v, ok := raw["lastUpdated"]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				out.LastUpdated = t
			} else {
				out.rawLastUpdated = append(json.RawMessage(nil), v...)
			}
		} else {
			out.rawLastUpdated = append(json.RawMessage(nil), v...)
		}
	}

	*m = out
	return nil
}

func looseString(v json.RawMessage) string {
	if len(v) == 0 || isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Catalog is the persisted document: category tables plus a metadata record, all
// at the JSON root.
//
// Root keys that do not hold a valid table (a note string, a table with an
// entry of unknown shape) are kept verbatim in Extra and written back as they
// were. Writing to such a category replaces it with a table.
type Catalog struct {
	Tables   map[string]Table
	Metadata *Metadata
	Extra    map[string]json.RawMessage
}

func NewCatalog() Catalog {
	return Catalog{Tables: map[string]Table{}}
}

func (c Catalog) Clone() Catalog {
	out := Catalog{Tables: make(map[string]Table, len(c.Tables))}
	for cat, t := range c.Tables {
		nt := make(Table, len(t))
		for id, e := range t {
			nt[id] = e
		}
		out.Tables[cat] = nt
	}
	if c.Metadata != nil {
		md := *c.Metadata
		md.rawLastUpdated = append(json.RawMessage(nil), md.rawLastUpdated...)
		out.Metadata = &md
	}
	if len(c.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (c Catalog) Lookup(category, productID string) (Entry, bool) {
	t, ok := c.Tables[category]
	if !ok {
		return Entry{}, false
	}
	e, ok := t[productID]
	return e, ok
}

// Source reports the metadata source, falling back to def.
func (c Catalog) Source(def string) string {
	if c.Metadata == nil || c.Metadata.Source == "" {
		return def
	}
	return c.Metadata.Source
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	root := make(map[string]any, len(c.Extra)+len(c.Tables)+1)
	for k, v := range c.Extra {
		root[k] = v
	}
	for cat, t := range c.Tables {
		if t == nil {
			t = Table{}
		}
		root[cat] = t
	}
	if c.Metadata != nil {
		root[metadataKey] = c.Metadata
	}
	return json.Marshal(root)
}

func (c *Catalog) UnmarshalJSON(b []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(b, &root); err != nil {
		return err
	}
	if root == nil {
		return errors.New("catalog: document is not an object")
	}

	out := NewCatalog()
	keep := func(key string, raw json.RawMessage) {
		if out.Extra == nil {
			out.Extra = map[string]json.RawMessage{}
		}
		out.Extra[key] = raw
	}

	for key, raw := range root {
		if key == metadataKey {
			var md Metadata
			if err := json.Unmarshal(raw, &md); err != nil {
				keep(key, raw)
				continue
			}
			out.Metadata = &md
			continue
		}
		var t Table
		if err := json.Unmarshal(raw, &t); err != nil {
			keep(key, raw)
			continue
		}
		if t == nil {
			t = Table{}
		}
		out.Tables[key] = t
	}

	*c = out
	return nil
}

// Encode renders the catalog the way it is written to durable storage.
func Encode(c Catalog) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode fails only when b is not a JSON object; the error wraps
// ErrCorruptDocument.
func Decode(b []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return c, nil
}

// Digest is a blake3 hash of the encoded catalog, metadata included.
func Digest(c Catalog) (string, error) {
	b, err := Encode(c)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
