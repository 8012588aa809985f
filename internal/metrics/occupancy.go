package metrics

import "github.com/imyousuf/slotgraph/internal/engine"

// OccupancyCalculator reports how full the slot arena is.
type OccupancyCalculator struct{}

func (c *OccupancyCalculator) Calculate(g engine.Engine) (map[MetricType]float64, error) {
	s := g.Stats()
	occupancy := 1.0
	if s.Slots > 0 {
		occupancy = float64(s.Entries) / float64(s.Slots)
	}
	return map[MetricType]float64{
		Entries:    float64(s.Entries),
		Slots:      float64(s.Slots),
		EmptySlots: float64(len(s.EmptySlots)),
		Occupancy:  occupancy,
	}, nil
}
