package cost

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/thomas-vilte/llmcost/internal/metrics"
)

// BudgetStatus describes spending against the session budget.
type BudgetStatus struct {
	IsExceeded   bool
	PercentUsed  float64
	Total        float64
	Estimated    float64
	Limit        float64
	IsWarning    bool
	WarningLevel int // 50, 75, 90
}

// ModelSubtotal is the accumulated price of one provider/model pair.
type ModelSubtotal struct {
	Key   string
	Price Price
}

// Session keeps a running total of priced calls. Unlike Price.Accumulate it
// is safe for concurrent use.
type Session struct {
	id      uuid.UUID
	budget  float64
	metrics *metrics.CostMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	total   *Price
	byModel map[string]*Price
}

type SessionOption func(*Session)

// WithBudget sets the spending limit used by CheckBudget. 0 means none.
func WithBudget(limit float64) SessionOption {
	return func(s *Session) {
		s.budget = limit
	}
}

// WithMetrics records every added price in m.
func WithMetrics(m *metrics.CostMetrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.New(),
		logger:  slog.Default(),
		byModel: make(map[string]*Price),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())
	return s
}

func (s *Session) ID() string {
	return s.id.String()
}

// Add folds p into the session total and the subtotal of its model. Nothing
// changes when p's currency differs from the session's.
func (s *Session) Add(p *Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == nil {
		first := *p
		s.total = &first
	} else if err := s.total.Accumulate(*p); err != nil {
		s.logger.Error("failed to add price to session",
			"model", p.Model,
			"error", err)
		return err
	}

	key := subtotalKey(p)
	if sub, ok := s.byModel[key]; ok {
		// Currency already matched the total, which shares it.
		_ = sub.Accumulate(*p)
	} else {
		cp := *p
		s.byModel[key] = &cp
	}

	if s.metrics != nil {
		s.metrics.Record(metrics.Call{
			Provider:          string(p.Provider),
			Model:             p.Model,
			InputPrice:        p.InputPrice,
			InputCachedPrice:  p.InputCachedPrice,
			OutputPrice:       p.OutputPrice,
			TotalPrice:        p.TotalPrice,
			InputTokens:       p.InputTokens,
			InputCachedTokens: p.InputCachedTokens,
			OutputTokens:      p.OutputTokens,
			Quantity:          p.Quantity,
		})
	}

	s.logger.Debug("price added to session",
		"model", p.Model,
		"cost", p.TotalPrice,
		"total", s.total.TotalPrice,
		"count", s.total.Quantity)

	return nil
}

// Total returns the accumulated price, false when nothing was added yet.
func (s *Session) Total() (Price, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == nil {
		return Price{}, false
	}
	return *s.total, true
}

// Calls is the number of calls folded into the session.
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == nil {
		return 0
	}
	return s.total.Quantity
}

// ByModel returns per-model subtotals, most expensive first.
func (s *Session) ByModel() []ModelSubtotal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ModelSubtotal, 0, len(s.byModel))
	for k, p := range s.byModel {
		out = append(out, ModelSubtotal{Key: k, Price: *p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price.TotalPrice != out[j].Price.TotalPrice {
			return out[i].Price.TotalPrice > out[j].Price.TotalPrice
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CheckBudget reports whether spending estimatedCost more would exceed the
// budget, and which warning level the current spending has reached.
func (s *Session) CheckBudget(estimatedCost float64) BudgetStatus {
	if s.budget <= 0 {
		return BudgetStatus{}
	}

	total := 0.0
	if p, ok := s.Total(); ok {
		total = p.TotalPrice
	}

	percentUsed := (total / s.budget) * 100
	newPercent := ((total + estimatedCost) / s.budget) * 100

	status := BudgetStatus{
		IsExceeded:  newPercent > 100,
		PercentUsed: percentUsed,
		Total:       total,
		Estimated:   estimatedCost,
		Limit:       s.budget,
	}

	if percentUsed >= 90 {
		status.IsWarning = true
		status.WarningLevel = 90
	} else if percentUsed >= 75 {
		status.IsWarning = true
		status.WarningLevel = 75
	} else if percentUsed >= 50 {
		status.IsWarning = true
		status.WarningLevel = 50
	}

	s.logger.Info("budget check completed",
		"total", total,
		"estimated_cost", estimatedCost,
		"percent_used", percentUsed,
		"is_exceeded", status.IsExceeded,
		"is_warning", status.IsWarning)

	return status
}

func subtotalKey(p *Price) string {
	if p.Provider == "" {
		return p.Model
	}
	return string(p.Provider) + "/" + p.Model
}
