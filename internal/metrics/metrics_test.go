package metrics

import (
	"testing"

	"github.com/imyousuf/slotgraph/internal/engine"
)

func buildGraph(t *testing.T) engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Options{Width: 32, Strategy: engine.StrategyHash})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		if _, err := e.CreateNode(engine.Record{Label: "n"}); err != nil {
			t.Fatal(err)
		}
	}
	// 0 -> 1, 0 -> 2, 1 -> 2, 3 -> 3; 4 isolated; 5 deleted.
	for _, edge := range []struct {
		a, b uint64
		w    float64
	}{
		{0, 1, 1}, {0, 2, 2}, {1, 2, 3}, {3, 3, 6},
	} {
		if err := e.SetEdge(edge.a, edge.b, edge.w); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.DeleteNode(5); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestOccupancy(t *testing.T) {
	e := buildGraph(t)
	if err := e.DeleteNode(1); err != nil {
		t.Fatal(err)
	}
	m, err := (&OccupancyCalculator{}).Calculate(e)
	if err != nil {
		t.Fatal(err)
	}
	if m[Entries] != 4 || m[Slots] != 5 || m[EmptySlots] != 1 {
		t.Errorf("unexpected occupancy metrics: %v", m)
	}
	if m[Occupancy] != 0.8 {
		t.Errorf("occupancy = %v, want 0.8", m[Occupancy])
	}
}

func TestDegree(t *testing.T) {
	m, err := (&DegreeCalculator{}).Calculate(buildGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	want := map[MetricType]float64{
		Edges:        4,
		SelfLoops:    1,
		MaxOutDegree: 2,
		MaxInDegree:  2,
		MeanDegree:   0.8,
		Sources:      1,
		Sinks:        1,
		Isolated:     1,
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
}

func TestWeight(t *testing.T) {
	m, err := (&WeightCalculator{}).Calculate(buildGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	if m[WeightSum] != 12 || m[WeightMin] != 1 || m[WeightMax] != 6 || m[WeightMean] != 3 {
		t.Errorf("unexpected weight metrics: %v", m)
	}
}

func TestEmptyGraph(t *testing.T) {
	e, err := engine.New(engine.Options{Width: 8, Strategy: engine.StrategyFlat})
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewCompositeCalculator().Calculate(e)
	if err != nil {
		t.Fatal(err)
	}
	if m[Occupancy] != 1 || m[MeanDegree] != 0 || m[WeightMean] != 0 {
		t.Errorf("unexpected metrics for empty graph: %v", m)
	}
}

func TestCompositeMergesAll(t *testing.T) {
	m, err := NewCompositeCalculator().Calculate(buildGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []MetricType{Entries, Occupancy, Edges, MeanDegree, WeightSum} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing metric %s", k)
		}
	}
}
