package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los contadores del ledger de protocolos.
type Metrics struct {
	registry *prometheus.Registry

	ProtocolsCreated   *prometheus.CounterVec
	ProtocolsCancelled *prometheus.CounterVec
	MovementsApplied   *prometheus.CounterVec
	OperationFailures  *prometheus.CounterVec
}

// New registra los contadores en un registry propio (no el global, para poder testear).
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ProtocolsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "protocols_created_total",
			Help:      "Protocolos de stock creados, por tipo.",
		}, []string{"type"}),
		ProtocolsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "protocols_cancelled_total",
			Help:      "Protocolos de stock anulados, por tipo.",
		}, []string{"type"}),
		MovementsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movements_applied_total",
			Help:      "Movimientos por producto aplicados dentro de protocolos.",
		}, []string{"type"}),
		OperationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_failures_total",
			Help:      "Operaciones del ledger fallidas, por operación y tipo de error.",
		}, []string{"operation", "kind"}),
	}
	reg.MustRegister(
		m.ProtocolsCreated,
		m.ProtocolsCancelled,
		m.MovementsApplied,
		m.OperationFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ProtocolCreated registra un protocolo creado con n movimientos.
func (m *Metrics) ProtocolCreated(protocolType string, movements int) {
	m.ProtocolsCreated.WithLabelValues(protocolType).Inc()
	m.MovementsApplied.WithLabelValues(protocolType).Add(float64(movements))
}

// ProtocolCancelled registra una anulación.
func (m *Metrics) ProtocolCancelled(protocolType string) {
	m.ProtocolsCancelled.WithLabelValues(protocolType).Inc()
}

// OperationFailed registra un fallo (kind: not_found, invalid_state, invalid_input, transaction).
func (m *Metrics) OperationFailed(operation, kind string) {
	m.OperationFailures.WithLabelValues(operation, kind).Inc()
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
