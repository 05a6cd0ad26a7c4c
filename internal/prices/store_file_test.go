package prices_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"PriceDesk/internal/prices"
)

func TestFileStore_MissingAndEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.json")
	st := prices.NewFileStore(path)

	if _, err := st.Load(ctx); !errors.Is(err, prices.ErrNoDocument) {
		t.Fatalf("missing err=%v", err)
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(ctx); !errors.Is(err, prices.ErrNoDocument) {
		t.Fatalf("empty err=%v", err)
	}
}

func TestFileStore_CorruptFallsBackToDemo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := prices.NewFileStore(path)

	if _, err := st.Load(ctx); !errors.Is(err, prices.ErrCorruptDocument) {
		t.Fatalf("err=%v", err)
	}

	c, err := prices.LoadOrDemo(ctx, st, zap.NewNop())
	if err != nil {
		t.Fatalf("load or demo: %v", err)
	}
	if c.Source("") != prices.DemoSource {
		t.Fatalf("source=%q", c.Source(""))
	}

	b, _ := os.ReadFile(path)
	if string(b) != "{not json" {
		t.Fatalf("corrupt file overwritten on load")
	}
}

func TestFileStore_ReadErrorIsNotMistakenForMissing(t *testing.T) {
	ctx := context.Background()
	// a directory where the file should be cannot be read
	path := t.TempDir()
	st := prices.NewFileStore(path)

	if _, err := prices.LoadOrDemo(ctx, st, zap.NewNop()); err == nil {
		t.Fatalf("read error fell back to demo")
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.json")
	st := prices.NewFileStore(path)

	c := prices.DemoCatalog(fixedNow)
	c.Tables["gpu"]["rtx5090"] = prices.Structured(250000, "RTX 5090")
	if err := st.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := prices.Encode(c)
	if !bytes.Equal(first, want) {
		t.Fatalf("file differs from encoded catalog")
	}

	loaded, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := st.Save(ctx, loaded); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip changed document:\n%s\n---\n%s", first, second)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestFileStore_PingNeedsDirectory(t *testing.T) {
	ctx := context.Background()

	if err := prices.NewFileStore(filepath.Join(t.TempDir(), "prices.json")).Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := prices.NewFileStore(filepath.Join(t.TempDir(), "nope", "prices.json")).Ping(ctx); err == nil {
		t.Fatalf("ping of missing dir succeeded")
	}
}
