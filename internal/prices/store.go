package prices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type Store interface {
	Load(ctx context.Context) (Catalog, error)
	Save(ctx context.Context, c Catalog) error
	Ping(ctx context.Context) error
}

// LoadOrDemo returns the demo catalog when the store holds nothing or holds a
// document that is not JSON. The demo is not written back until the first
// mutation. Every other error (an unreachable backend, a permission problem) is
// returned unchanged.
func LoadOrDemo(ctx context.Context, s Store, log *zap.Logger) (Catalog, error) {
	c, err := s.Load(ctx)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, ErrNoDocument):
		if log != nil {
			log.Info("no prices document, using demo catalog")
		}
	case errors.Is(err, ErrCorruptDocument):
		if log != nil {
			log.Warn("prices document unreadable, using demo catalog", zap.Error(err))
		}
	default:
		return Catalog{}, fmt.Errorf("load prices: %w", err)
	}
	return DemoCatalog(time.Now()), nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
