package redistribution

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func TestRedistribute(t *testing.T) {
	shares := []Share{
		{Name: "Alice", Surface: 140},
		{Name: "Bob", Surface: 100},
	}

	allocations, err := Redistribute(120000, shares, 240)
	if err != nil {
		t.Fatalf("Redistribute() error = %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if math.Abs(allocations[0].Amount-70000) > 1e-6 || math.Abs(allocations[1].Amount-50000) > 1e-6 {
		t.Errorf("unexpected amounts %+v", allocations)
	}
	if math.Abs(allocations[0].Quotite-140.0/240) > 1e-12 {
		t.Errorf("Quotite = %v", allocations[0].Quotite)
	}
}

func TestRedistributeConservation(t *testing.T) {
	tests := []struct {
		name     string
		proceeds float64
		surfaces []float64
	}{
		{"Three uneven owners", 100000, []float64{83.5, 112.25, 47}},
		{"Many small owners", 333333.33, []float64{10, 20, 30, 40, 50, 60, 70}},
		{"Odd proceeds", 0.07, []float64{1, 1, 1}},
		{"Zero proceeds", 0, []float64{50, 75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := make([]Share, len(tt.surfaces))
			for i, s := range tt.surfaces {
				shares[i] = Share{Name: string(rune('A' + i)), Surface: s}
			}
			total := TotalSurface(shares)

			allocations, err := Redistribute(tt.proceeds, shares, total)
			if err != nil {
				t.Fatalf("Redistribute() error = %v", err)
			}
			sum := 0.0
			for _, a := range allocations {
				sum += a.Amount
			}
			if !mathutil.WithinRelative(sum, tt.proceeds, 1e-6) {
				t.Errorf("sum of amounts %v != proceeds %v", sum, tt.proceeds)
			}

			cents, err := RedistributeCents(tt.proceeds, shares, total)
			if err != nil {
				t.Fatalf("RedistributeCents() error = %v", err)
			}
			sumCents := decimal.Zero
			for _, a := range cents {
				sumCents = sumCents.Add(mathutil.ToCents(a.Amount))
			}
			if !sumCents.Equal(mathutil.ToCents(tt.proceeds)) {
				t.Errorf("cent amounts add up to %s, expected %s", sumCents, mathutil.ToCents(tt.proceeds))
			}
		})
	}
}

func TestRedistributeCentsLargestRemainder(t *testing.T) {
	shares := []Share{{Name: "A", Surface: 1}, {Name: "B", Surface: 1}, {Name: "C", Surface: 1}}

	allocations, err := RedistributeCents(100, shares, 3)
	if err != nil {
		t.Fatalf("RedistributeCents() error = %v", err)
	}
	expected := []float64{33.34, 33.33, 33.33}
	for i, a := range allocations {
		if a.Amount != expected[i] {
			t.Errorf("%s amount = %v, expected %v", a.Name, a.Amount, expected[i])
		}
	}
}

func TestRedistributeSingleParticipant(t *testing.T) {
	allocations, err := Redistribute(5000, []Share{{Name: "Solo", Surface: 80}}, 80)
	if err != nil {
		t.Fatalf("Redistribute() error = %v", err)
	}
	if allocations[0].Quotite != 1 || allocations[0].Amount != 5000 {
		t.Errorf("single participant should take everything, got %+v", allocations[0])
	}
}

func TestRedistributeInvalidSurface(t *testing.T) {
	tests := []struct {
		name   string
		shares []Share
		total  float64
	}{
		{"Zero total", []Share{{Name: "A", Surface: 0}}, 0},
		{"Negative total", []Share{{Name: "A", Surface: 10}}, -10},
		{"Negative share", []Share{{Name: "A", Surface: 20}, {Name: "B", Surface: -5}}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Redistribute(1000, tt.shares, tt.total); !errors.Is(err, ErrInvalidSurface) {
				t.Errorf("expected ErrInvalidSurface, got %v", err)
			}
		})
	}

	mismatched := []Share{{Name: "A", Surface: 50}, {Name: "B", Surface: 50}}
	if _, err := RedistributeCents(1000, mismatched, 200); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("expected ErrInvalidSurface for a mismatched total, got %v", err)
	}
}

func TestSplitCoproprieteSale(t *testing.T) {
	shares := []Share{
		{Name: "Alice", Surface: 140},
		{Name: "Bob", Surface: 100},
	}

	split, err := SplitCoproprieteSale(200000, 30, shares)
	if err != nil {
		t.Fatalf("SplitCoproprieteSale() error = %v", err)
	}
	if split.Reserves != 60000 || split.Distributed != 140000 {
		t.Errorf("unexpected split %+v", split)
	}
	if split.Allocations[0].Amount != 81666.67 || split.Allocations[1].Amount != 58333.33 {
		t.Errorf("unexpected allocations %+v", split.Allocations)
	}

	if _, err := SplitCoproprieteSale(1000, 120, shares); err == nil {
		t.Error("expected an error for a reserves share above 100")
	}
}
