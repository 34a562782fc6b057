package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		nan  bool
	}{
		{name: "int", in: 3, want: 3},
		{name: "float", in: 1.5, want: 1.5},
		{name: "numeric string", in: " 2 ", want: 2},
		{name: "empty string", in: "", want: 0},
		{name: "nil", in: nil, want: 0},
		{name: "true", in: true, want: 1},
		{name: "json number", in: json.Number("4"), want: 4},
		{name: "garbage", in: "abc", nan: true},
		{name: "struct", in: struct{}{}, nan: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CoerceQuantity(tc.in)
			if tc.nan {
				if !math.IsNaN(got) {
					t.Fatalf("expected NaN, got %v", got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("CoerceQuantity(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestQuantityPredicates(t *testing.T) {
	tests := []struct {
		in          any
		positive    bool
		nonNegative bool
	}{
		{in: 1, positive: true, nonNegative: true},
		{in: "2", positive: true, nonNegative: true},
		{in: 3.0, positive: true, nonNegative: true},
		{in: 0, positive: false, nonNegative: true},
		{in: -1, positive: false, nonNegative: false},
		{in: 1.5, positive: false, nonNegative: false},
		{in: "abc", positive: false, nonNegative: false},
		{in: math.Inf(1), positive: false, nonNegative: false},
		{in: MaxQuantity, positive: true, nonNegative: true},
		{in: float64(MaxQuantity) + 1, positive: false, nonNegative: false},
		{in: 1e19, positive: false, nonNegative: false},
		{in: "1e19", positive: false, nonNegative: false},
	}

	for _, tc := range tests {
		v := CoerceQuantity(tc.in)
		if got := IsPositiveInteger(v); got != tc.positive {
			t.Errorf("IsPositiveInteger(%v) = %v, want %v", tc.in, got, tc.positive)
		}
		if got := IsNonNegativeInteger(v); got != tc.nonNegative {
			t.Errorf("IsNonNegativeInteger(%v) = %v, want %v", tc.in, got, tc.nonNegative)
		}
	}
}

func TestToQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want int
		ok   bool
	}{
		{in: 0, want: 0, ok: true},
		{in: 7, want: 7, ok: true},
		{in: MaxQuantity, want: MaxQuantity, ok: true},
		{in: -1, ok: false},
		{in: 2.5, ok: false},
		{in: 1e19, ok: false},
		{in: -1e19, ok: false},
		{in: math.NaN(), ok: false},
	}

	for _, tc := range tests {
		got, ok := ToQuantity(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ToQuantity(%v) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
