package metrics

import (
	"math"

	"github.com/imyousuf/slotgraph/internal/engine"
)

// WeightCalculator summarises connection weights. Graphs without edges
// report zeros.
type WeightCalculator struct{}

func (c *WeightCalculator) Calculate(g engine.Engine) (map[MetricType]float64, error) {
	var (
		n      int
		sum    float64
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	g.Walk(func(v engine.NodeView) bool {
		for _, e := range v.Out {
			n++
			sum += e.Weight
			lo = math.Min(lo, e.Weight)
			hi = math.Max(hi, e.Weight)
		}
		return true
	})
	if n == 0 {
		return map[MetricType]float64{WeightSum: 0, WeightMin: 0, WeightMax: 0, WeightMean: 0}, nil
	}
	return map[MetricType]float64{
		WeightSum:  sum,
		WeightMin:  lo,
		WeightMax:  hi,
		WeightMean: sum / float64(n),
	}, nil
}
