package metrics

import "github.com/imyousuf/slotgraph/internal/engine"

// DegreeCalculator reports fan-out and fan-in statistics.
type DegreeCalculator struct{}

func (c *DegreeCalculator) Calculate(g engine.Engine) (map[MetricType]float64, error) {
	var (
		nodes, edges, loops      int
		maxOut, maxIn            int
		sources, sinks, isolated int
	)
	g.Walk(func(v engine.NodeView) bool {
		nodes++
		out, in := len(v.Out), len(v.In)
		edges += out
		maxOut = max(maxOut, out)
		maxIn = max(maxIn, in)
		for _, e := range v.Out {
			if e.Target == v.ID {
				loops++
			}
		}
		switch {
		case out == 0 && in == 0:
			isolated++
		case in == 0:
			sources++
		case out == 0:
			sinks++
		}
		return true
	})

	mean := 0.0
	if nodes > 0 {
		mean = float64(edges) / float64(nodes)
	}
	return map[MetricType]float64{
		Edges:        float64(edges),
		SelfLoops:    float64(loops),
		MaxOutDegree: float64(maxOut),
		MaxInDegree:  float64(maxIn),
		MeanDegree:   mean,
		Sources:      float64(sources),
		Sinks:        float64(sinks),
		Isolated:     float64(isolated),
	}, nil
}
