package prices

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	SourceUpdate = "update existing component"
	SourceAdd    = "add new component"
	SourceDelete = "delete component"
)

// Service owns the in-memory catalog. Mutations are serialized and only become
// visible after the store accepted the new document.
type Service struct {
	store   Store
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu     sync.RWMutex
	cur    Catalog
	digest string
}

type Option func(*Service)

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService loads the stored catalog, or the demo catalog when nothing usable is
// stored. Any other load failure is returned.
func NewService(ctx context.Context, store Store, log *zap.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	c, err := LoadOrDemo(ctx, store, log)
	if err != nil {
		return nil, err
	}
	s.cur = c
	s.digest = digestOrEmpty(s.cur, log)
	s.metrics.setEntries(s.cur)
	return s, nil
}

func (s *Service) Store() Store { return s.store }

func (s *Service) GetAll() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Snapshot returns a copy of the catalog together with its digest.
func (s *Service) Snapshot() (Catalog, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone(), s.digest
}

func (s *Service) Resolve(category, productID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Resolve(category, productID)
}

func (s *Service) Digest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digest
}

// UpdateExisting sets the price of category/productID. Missing categories and
// entries are created; a structured entry keeps its display name.
func (s *Service) UpdateExisting(ctx context.Context, category, productID string, price float64) (Entry, error) {
	var out Entry
	err := s.mutate(ctx, opUpdate, SourceUpdate, func(next Catalog) error {
		if err := validateKey(category, productID); err != nil {
			return err
		}
		if err := validatePrice(price); err != nil {
			return err
		}

		t := tableFor(next, category)
		if e, ok := t[productID]; ok && e.Structured {
			out = e.WithPrice(price)
		} else {
			out = Legacy(price)
		}
		t[productID] = out
		return nil
	})
	return out, err
}

// AddComponent stores a new structured entry. displayName defaults to productID.
func (s *Service) AddComponent(ctx context.Context, category, productID string, price float64, displayName string) (Entry, error) {
	var out Entry
	err := s.mutate(ctx, opAdd, SourceAdd, func(next Catalog) error {
		if err := validateKey(category, productID); err != nil {
			return err
		}
		if err := validatePrice(price); err != nil {
			return err
		}
		if _, ok := next.Lookup(category, productID); ok {
			return fmt.Errorf("%w: %s/%s", ErrConflict, category, productID)
		}

		name := strings.TrimSpace(displayName)
		if name == "" {
			name = productID
		}
		out = Structured(price, name)
		tableFor(next, category)[productID] = out
		return nil
	})
	return out, err
}

func (s *Service) DeleteComponent(ctx context.Context, category, productID string) error {
	return s.mutate(ctx, opDelete, SourceDelete, func(next Catalog) error {
		if err := validateKey(category, productID); err != nil {
			return err
		}
		if _, ok := next.Lookup(category, productID); !ok {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, category, productID)
		}
		delete(next.Tables[category], productID)
		return nil
	})
}

// Reload replaces the in-memory catalog with the stored document. It reports
// false when the stored document matches what is already held. The write lock
// is held across the load so a mutation cannot commit in between and be
// overwritten by an older document.
func (s *Service) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx)
	if err != nil {
		s.metrics.observe(opReload, err)
		return false, err
	}
	d, err := Digest(c)
	if err != nil {
		s.metrics.observe(opReload, err)
		return false, err
	}

	if d == s.digest {
		return false, nil
	}
	s.cur = c
	s.digest = d
	s.metrics.observe(opReload, nil)
	s.metrics.setEntries(c)
	return true, nil
}

func (s *Service) mutate(ctx context.Context, op, source string, apply func(next Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.Clone()
	if err := apply(next); err != nil {
		s.metrics.observe(op, err)
		return err
	}

	md := Metadata{}
	if next.Metadata != nil {
		md = *next.Metadata
	}
	md.Stamp(s.now(), source)
	next.Metadata = &md
	delete(next.Extra, metadataKey)

	if err := s.store.Save(ctx, next); err != nil {
		s.log.Error("save catalog failed", zap.String("operation", op), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrPersistence, err)
		s.metrics.observe(op, err)
		return err
	}

	s.cur = next
	s.digest = digestOrEmpty(next, s.log)
	s.metrics.observe(op, nil)
	s.metrics.setEntries(next)
	return nil
}

func tableFor(c Catalog, category string) Table {
	t, ok := c.Tables[category]
	if !ok || t == nil {
		t = Table{}
		c.Tables[category] = t
		delete(c.Extra, category)
	}
	return t
}

func validateKey(category, productID string) error {
	if category == "" || productID == "" {
		return fmt.Errorf("%w: category and productId are required", ErrValidation)
	}
	if category == metadataKey {
		return fmt.Errorf("%w: %q is reserved", ErrValidation, metadataKey)
	}
	return nil
}

func validatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: price must be a non-negative number", ErrValidation)
	}
	return nil
}

func digestOrEmpty(c Catalog, log *zap.Logger) string {
	d, err := Digest(c)
	if err != nil {
		log.Warn("catalog digest failed", zap.Error(err))
		return ""
	}
	return d
}
