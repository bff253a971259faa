package csp

// metrics.go
import "github.com/prometheus/client_golang/prometheus"

// Metrics — счётчики Prometheus для middleware. nil допустим: ничего не считается.
type Metrics struct {
	NoncesGenerated  prometheus.Counter
	HeadersApplied   *prometheus.CounterVec
	HeadersPreserved *prometheus.CounterVec
}

// NewMetrics создаёт счётчики и регистрирует их в reg (если reg != nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NoncesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "nonces_generated_total",
			Help:      "Number of per-request CSP nonces generated.",
		}),
		HeadersApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "headers_applied_total",
			Help:      "Number of CSP headers written by the middleware.",
		}, []string{"header"}),
		HeadersPreserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "headers_preserved_total",
			Help:      "Number of CSP headers left untouched because the handler set them.",
		}, []string{"header"}),
	}
	if reg != nil {
		reg.MustRegister(m.NoncesGenerated, m.HeadersApplied, m.HeadersPreserved)
	}
	return m
}

func (m *Metrics) nonceGenerated() {
	if m != nil {
		m.NoncesGenerated.Inc()
	}
}

func (m *Metrics) headerApplied(name string) {
	if m != nil {
		m.HeadersApplied.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) headerPreserved(name string) {
	if m != nil {
		m.HeadersPreserved.WithLabelValues(name).Inc()
	}
}
