package calc

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{}, 0},
		{[]float64{5}, 5},
		{[]float64{1, 2, 3, 4}, 2.5},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{9, 1, 5}, 5},
	}
	for _, tc := range cases {
		if got := Median(tc.in); got != tc.want {
			t.Errorf("Median(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input was reordered: %v", in)
	}
}

func TestSumAndAverage(t *testing.T) {
	if Sum(nil) != 0 || Average(nil) != 0 {
		t.Fatalf("empty input must yield 0")
	}
	if got := Sum([]float64{1, 2, 3.5}); got != 6.5 {
		t.Fatalf("Sum = %v, want 6.5", got)
	}
	if got := Average([]float64{2, 4, 6}); got != 4 {
		t.Fatalf("Average = %v, want 4", got)
	}
}

func TestPercentage(t *testing.T) {
	for _, x := range []float64{-10, 0, 1, 1e9} {
		if got := Percentage(x, 0); got != 0 {
			t.Errorf("Percentage(%v, 0) = %v, want 0", x, got)
		}
	}
	if got := Percentage(25, 200); got != 12.5 {
		t.Errorf("Percentage(25, 200) = %v, want 12.5", got)
	}
}

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{"positive from zero", 50, 0, 100},
		{"zero from zero", 0, 0, 0},
		{"negative from zero", -5, 0, 0},
		{"doubled", 200, 100, 100},
		{"halved", 50, 100, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentageChange(tt.current, tt.previous); got != tt.want {
				t.Errorf("PercentageChange(%v, %v) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestLinearRegression(t *testing.T) {
	empty := LinearRegression(nil)
	if empty.Slope != 0 || empty.Intercept != 0 || empty.Predict(42) != 0 {
		t.Fatalf("empty series must predict 0, got %+v", empty)
	}

	line := LinearRegression([]float64{1, 3, 5, 7})
	if math.Abs(line.Slope-2) > 1e-9 || math.Abs(line.Intercept-1) > 1e-9 {
		t.Fatalf("expected slope 2 intercept 1, got %+v", line)
	}
	if got := line.Predict(4); math.Abs(got-9) > 1e-9 {
		t.Fatalf("Predict(4) = %v, want 9", got)
	}

	single := LinearRegression([]float64{7})
	if single.Slope != 0 || single.Predict(3) != 7 {
		t.Fatalf("single point should be flat through its value, got %+v", single)
	}
}

func TestSimpleMovingAverage(t *testing.T) {
	got := SimpleMovingAverage([]float64{3, 6, 9, 12}, 3)
	want := []float64{0, 0, 6, 9}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SMA[%d] = %v, want %v (all %v)", i, got[i], want[i], got)
		}
	}

	if out := SimpleMovingAverage([]float64{1, 2}, 0); len(out) != 2 || out[0] != 0 || out[1] != 0 {
		t.Fatalf("non-positive window should yield zeros, got %v", out)
	}
}

func TestRoundToTwo(t *testing.T) {
	if got := RoundToTwo(1.23456); got != 1.23 {
		t.Fatalf("RoundToTwo = %v", got)
	}
	if got := RoundToTwo(2.675000001); got != 2.68 {
		t.Fatalf("RoundToTwo = %v", got)
	}
}

func TestAbbreviateNumber(t *testing.T) {
	cases := map[float64]string{
		950:       "950",
		1500:      "1.5K",
		5_000_000: "5.0M",
		2.4e9:     "2.4B",
	}
	for in, want := range cases {
		if got := AbbreviateNumber(in); got != want {
			t.Errorf("AbbreviateNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFiscalQuarter(t *testing.T) {
	for month, want := range map[int]int{1: 1, 3: 1, 4: 2, 9: 3, 12: 4} {
		if got := FiscalQuarter(month); got != want {
			t.Errorf("FiscalQuarter(%d) = %d, want %d", month, got, want)
		}
	}
}
