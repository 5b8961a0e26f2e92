package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeClusterStats(t *testing.T) {
	sizes := []float64{1, 1, 2, 3, 5}
	count, largest, mean, p50 := ComputeClusterStats(sizes)

	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if largest != 5 {
		t.Errorf("largest = %d, want 5", largest)
	}
	if math.Abs(mean-2.4) > 0.001 {
		t.Errorf("mean = %v, want 2.4", mean)
	}
	if math.Abs(p50-2.0) > 0.001 {
		t.Errorf("p50 = %v, want 2.0", p50)
	}
}

func TestComputeClusterStatsUnsortedInput(t *testing.T) {
	// Input order must not matter
	count, largest, mean, p50 := ComputeClusterStats([]float64{5, 1, 3, 1, 2})

	if count != 5 || largest != 5 {
		t.Errorf("count, largest = %d, %d, want 5, 5", count, largest)
	}
	if math.Abs(mean-2.4) > 0.001 {
		t.Errorf("mean = %v, want 2.4", mean)
	}
	if math.Abs(p50-2.0) > 0.001 {
		t.Errorf("p50 = %v, want 2.0", p50)
	}
}

func TestComputeClusterStatsEmpty(t *testing.T) {
	count, largest, mean, p50 := ComputeClusterStats([]float64{})

	if count != 0 || largest != 0 || mean != 0 || p50 != 0 {
		t.Error("empty slice should return all zeros")
	}
}
