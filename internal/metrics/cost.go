package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "llmcost"

// Call is one priced call as seen by the metrics.
type Call struct {
	Provider string
	Model    string

	InputPrice       float64
	InputCachedPrice float64
	OutputPrice      float64
	TotalPrice       float64

	InputTokens       int
	InputCachedTokens int
	OutputTokens      int
	Quantity          int
}

// CostMetrics tracks priced calls.
//
// Metrics:
//   - llmcost_calls_total: priced calls by provider and model
//   - llmcost_cost_total: cost by provider, model and component (input, cached, output)
//   - llmcost_tokens_total: tokens by provider, model and kind (input, cached, output)
//   - llmcost_cost_per_call: cost distribution per call
type CostMetrics struct {
	calls       *prometheus.CounterVec
	costTotal   *prometheus.CounterVec
	tokensTotal *prometheus.CounterVec
	costPerCall *prometheus.HistogramVec
}

// NewCostMetrics creates the metrics and registers them with registry.
func NewCostMetrics(registry prometheus.Registerer) *CostMetrics {
	cm := &CostMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Priced calls by provider and model",
			},
			[]string{"provider", "model"},
		),
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_total",
				Help:      "Accumulated cost by provider, model and component",
			},
			[]string{"provider", "model", "component"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Billed tokens by provider, model and kind",
			},
			[]string{"provider", "model", "kind"},
		),
		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cost_per_call",
				Help:      "Cost distribution per call",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		cm.calls,
		cm.costTotal,
		cm.tokensTotal,
		cm.costPerCall,
	)

	return cm
}

// Record adds c to every metric. A call folding several requests
// (Quantity > 1) counts as that many calls and observes its average.
func (m *CostMetrics) Record(c Call) {
	quantity := c.Quantity
	if quantity < 1 {
		quantity = 1
	}

	m.calls.WithLabelValues(c.Provider, c.Model).Add(float64(quantity))

	m.costTotal.WithLabelValues(c.Provider, c.Model, "input").Add(c.InputPrice)
	m.costTotal.WithLabelValues(c.Provider, c.Model, "cached").Add(c.InputCachedPrice)
	m.costTotal.WithLabelValues(c.Provider, c.Model, "output").Add(c.OutputPrice)

	m.tokensTotal.WithLabelValues(c.Provider, c.Model, "input").Add(float64(c.InputTokens))
	m.tokensTotal.WithLabelValues(c.Provider, c.Model, "cached").Add(float64(c.InputCachedTokens))
	m.tokensTotal.WithLabelValues(c.Provider, c.Model, "output").Add(float64(c.OutputTokens))

	avg := c.TotalPrice / float64(quantity)
	for i := 0; i < quantity; i++ {
		m.costPerCall.WithLabelValues(c.Provider, c.Model).Observe(avg)
	}
}
