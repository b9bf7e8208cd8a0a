package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Summary is a point-in-time view of the cost metrics in a registry.
type Summary struct {
	Calls float64
	// Cost and Tokens are keyed by component: input, cached, output.
	Cost   map[string]float64
	Tokens map[string]float64
	// Observed is the number of histogram samples, MeanCost their mean.
	Observed uint64
	MeanCost float64
	Models   []string
}

// Summarize gathers g and folds the llmcost_* families over every label set.
func Summarize(g prometheus.Gatherer) (Summary, error) {
	families, err := g.Gather()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Cost:   make(map[string]float64),
		Tokens: make(map[string]float64),
	}
	seen := make(map[string]bool)
	var sum float64

	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch f.GetName() {
			case namespace + "_calls_total":
				s.Calls += m.GetCounter().GetValue()
				key := labelValue(m, "provider") + "/" + labelValue(m, "model")
				if !seen[key] {
					seen[key] = true
					s.Models = append(s.Models, key)
				}
			case namespace + "_cost_total":
				s.Cost[labelValue(m, "component")] += m.GetCounter().GetValue()
			case namespace + "_tokens_total":
				s.Tokens[labelValue(m, "kind")] += m.GetCounter().GetValue()
			case namespace + "_cost_per_call":
				s.Observed += m.GetHistogram().GetSampleCount()
				sum += m.GetHistogram().GetSampleSum()
			}
		}
	}

	if s.Observed > 0 {
		s.MeanCost = sum / float64(s.Observed)
	}
	sort.Strings(s.Models)
	return s, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
