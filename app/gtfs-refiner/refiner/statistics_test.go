package refiner

import (
	"math"
	"testing"
)

func almostEqual(a float64, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func Test_mean(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   float64
	}{
		{
			name:   "single value",
			values: []int{42},
			want:   42,
		},
		{
			name:   "gaussian smoke values",
			values: []int{2, 4, 4, 4, 4, 5, 5, 7, 9},
			want:   44.0 / 9.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mean(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("mean() = %v, want %v", got, tt.want)
			}
		})
	}
	if !math.IsNaN(mean(nil)) {
		t.Errorf("mean() of no values should be NaN")
	}
}

func Test_sampleStdDev(t *testing.T) {
	values := []int{2, 4, 4, 4, 4, 5, 5, 7, 9}
	got := sampleStdDev(values, mean(values))
	if !almostEqual(got, 2.0276) {
		t.Errorf("sampleStdDev() = %v, want 2.0276", got)
	}

	values = []int{100, 101, 102, 103}
	got = sampleStdDev(values, mean(values))
	want := math.Sqrt((1.5*1.5 + 0.5*0.5 + 0.5*0.5 + 1.5*1.5) / 3.0)
	if !almostEqual(got, want) {
		t.Errorf("sampleStdDev() = %v, want %v", got, want)
	}

	if !math.IsNaN(sampleStdDev([]int{5}, 5)) {
		t.Errorf("sampleStdDev() of one value should be NaN")
	}
}

func Test_countEarlierThan(t *testing.T) {
	values := []int{480, 540, 600, 660, 720}
	tests := []struct {
		name      string
		threshold float64
		want      int
	}{
		{name: "none earlier", threshold: 480, want: 0},
		{name: "strictly below only", threshold: 540, want: 1},
		{name: "all earlier", threshold: 721, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countEarlierThan(values, tt.threshold); got != tt.want {
				t.Errorf("countEarlierThan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_minMax(t *testing.T) {
	smallest, largest := minMax([]int{510, 480, 600, 480, 590})
	if smallest != 480 || largest != 600 {
		t.Errorf("minMax() = %v, %v, want 480, 600", smallest, largest)
	}
}
