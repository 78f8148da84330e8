package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

const namespace = "bodega"

// OperationMetrics contadores del ciclo de vida de operaciones.
// Implementa operation.Metrics.
type OperationMetrics struct {
	transitions *prometheus.CounterVec
	validations *prometheus.HistogramVec
	ledger      *prometheus.CounterVec
}

// NewOperationMetrics registra los colectores en reg (prometheus.DefaultRegisterer en main).
func NewOperationMetrics(reg prometheus.Registerer) *OperationMetrics {
	m := &OperationMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_transitions_total",
				Help:      "Transiciones de estado de operaciones",
			},
			[]string{"type", "from", "to"},
		),
		validations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_validation_duration_seconds",
				Help:      "Duración de la validación de operaciones por resultado",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type", "outcome"},
		),
		ledger: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_total",
				Help:      "Entradas escritas en el libro de movimientos",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(m.transitions, m.validations, m.ledger)
	return m
}

// TransitionRecorded cuenta un cambio de estado.
func (m *OperationMetrics) TransitionRecorded(t entity.OperationType, from, to entity.OperationStatus) {
	m.transitions.WithLabelValues(string(t), string(from), string(to)).Inc()
}

// ValidationObserved registra la duración de un intento de validación.
func (m *OperationMetrics) ValidationObserved(t entity.OperationType, outcome string, d time.Duration) {
	m.validations.WithLabelValues(string(t), outcome).Observe(d.Seconds())
}

// LedgerEntriesAppended suma las entradas escritas por una validación.
func (m *OperationMetrics) LedgerEntriesAppended(t entity.OperationType, n int) {
	m.ledger.WithLabelValues(string(t)).Add(float64(n))
}
