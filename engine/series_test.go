package engine

import (
	"reflect"
	"testing"
)

func TestNumericSeries(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step float64
		want             []string
	}{
		{"unit ascending", 1, 5, 1, []string{"1", "2", "3", "4", "5"}},
		{"single term", 3, 3, 1, []string{"3"}},
		{"descending", 5, 1, -1, []string{"5", "4", "3", "2", "1"}},
		{"step flipped to match direction", 1, 5, -1, []string{"1", "2", "3", "4", "5"}},
		{"descending with positive step", 5, 1, 1, []string{"5", "4", "3", "2", "1"}},
		{"fractional step without float noise", 0, 1, 0.1,
			[]string{"0", "0.1", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7", "0.8", "0.9", "1"}},
		{"end not on the grid", 1, 4.5, 1, []string{"1", "2", "3", "4"}},
		{"negative range", -2, 2, 1, []string{"-2", "-1", "0", "1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumericSeries(tt.start, tt.end, tt.step)
			if err != nil {
				t.Fatalf("NumericSeries(%v, %v, %v): %v", tt.start, tt.end, tt.step, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NumericSeries(%v, %v, %v) = %v, want %v",
					tt.start, tt.end, tt.step, got, tt.want)
			}
		})
	}
}

func TestNumericSeriesZeroStep(t *testing.T) {
	_, err := NumericSeries(1, 5, 0)
	if err == nil {
		t.Fatal("expected error for zero step")
	}
	if kind, ok := KindOf(err); !ok || kind != InvalidScale {
		t.Errorf("got kind %v, want InvalidScale", kind)
	}
	if err.Error() != "step cannot be 0" {
		t.Errorf("got message %q", err.Error())
	}
}

func TestNumericSeriesCapped(t *testing.T) {
	got, err := NumericSeries(0, 1e12, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxSeriesTerms {
		t.Errorf("got %d terms, want cap of %d", len(got), maxSeriesTerms)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{-2, "-2"},
		{3.0, "3"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
