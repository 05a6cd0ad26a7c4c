package prices

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opUpdate = "update"
	opAdd    = "add"
	opDelete = "delete"
	opReload = "reload"
)

type Metrics struct {
	Mutations *prometheus.CounterVec
	Entries   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Catalog mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Price entries currently held across all categories",
		}),
	}
	reg.MustRegister(m.Mutations, m.Entries)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) setEntries(c Catalog) {
	if m == nil {
		return
	}
	n := 0
	for _, t := range c.Tables {
		n += len(t)
	}
	m.Entries.Set(float64(n))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "save_failed"
	default:
		return "error"
	}
}
