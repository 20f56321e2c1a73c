package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

const namespace = "graphrag"

// PipelineMetrics observes the answering state machine.
type PipelineMetrics struct {
	service string

	stageDuration  *prometheus.HistogramVec
	stageFaults    *prometheus.CounterVec
	strategyTotal  *prometheus.CounterVec
	documentsCount *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
}

func NewPipelineMetrics(registerer prometheus.Registerer, service string) *PipelineMetrics {
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "stage"},
	)
	stageFaults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "faults_total",
			Help:      "Pipeline faults by stage and fault kind.",
		},
		[]string{"service", "stage", "kind"},
	)
	strategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "strategy_total",
			Help:      "Routed questions by retrieval strategy.",
		},
		[]string{"service", "strategy"},
	)
	documentsCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retrieved_documents",
			Help:      "Publications returned by vector retrieval per question.",
			Buckets:   []float64{0, 1, 2, 3},
		},
		[]string{"service"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "circuit_open",
			Help:      "1 while the circuit breaker of an operation is open.",
		},
		[]string{"service", "operation"},
	)

	registerer.MustRegister(stageDuration, stageFaults, strategyTotal, documentsCount, breakerState)

	return &PipelineMetrics{
		service:        service,
		stageDuration:  stageDuration,
		stageFaults:    stageFaults,
		strategyTotal:  strategyTotal,
		documentsCount: documentsCount,
		breakerState:   breakerState,
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
	if err != nil {
		m.stageFaults.WithLabelValues(m.service, stage, domain.FaultKind(err)).Inc()
	}
}

func (m *PipelineMetrics) ObserveStrategy(strategy domain.Strategy) {
	m.strategyTotal.WithLabelValues(m.service, string(strategy)).Inc()
}

func (m *PipelineMetrics) ObserveDocuments(count int) {
	m.documentsCount.WithLabelValues(m.service).Observe(float64(count))
}

// ObserveBreaker matches resilience.Config.OnStateChange.
func (m *PipelineMetrics) ObserveBreaker(operation, _, to string) {
	value := 0.0
	if to == "open" {
		value = 1
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
