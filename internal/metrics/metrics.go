// Package metrics computes summary statistics over a graph.
package metrics

import "github.com/imyousuf/slotgraph/internal/engine"

// MetricType identifies a specific graph metric.
type MetricType string

const (
	Entries      MetricType = "entries"
	Slots        MetricType = "slots"
	EmptySlots   MetricType = "empty_slots"
	Occupancy    MetricType = "occupancy"
	Edges        MetricType = "edges"
	SelfLoops    MetricType = "self_loops"
	MaxOutDegree MetricType = "max_out_degree"
	MaxInDegree  MetricType = "max_in_degree"
	MeanDegree   MetricType = "mean_degree"
	Sources      MetricType = "sources"
	Sinks        MetricType = "sinks"
	Isolated     MetricType = "isolated"
	WeightSum    MetricType = "weight_sum"
	WeightMin    MetricType = "weight_min"
	WeightMax    MetricType = "weight_max"
	WeightMean   MetricType = "weight_mean"
)

// Calculator computes metrics for a graph.
type Calculator interface {
	Calculate(g engine.Engine) (map[MetricType]float64, error)
}

// CompositeCalculator runs multiple calculators and merges their results.
type CompositeCalculator struct {
	calculators []Calculator
}

// NewCompositeCalculator creates a CompositeCalculator with all built-in calculators.
func NewCompositeCalculator() *CompositeCalculator {
	return &CompositeCalculator{
		calculators: []Calculator{
			&OccupancyCalculator{},
			&DegreeCalculator{},
			&WeightCalculator{},
		},
	}
}

// Calculate runs all calculators and merges results into a single map.
func (c *CompositeCalculator) Calculate(g engine.Engine) (map[MetricType]float64, error) {
	result := make(map[MetricType]float64)
	for _, calc := range c.calculators {
		m, err := calc.Calculate(g)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			result[k] = v
		}
	}
	return result, nil
}
