package portage

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/cohousing-finance/pkg/carrying"
)

func TestResalePrice(t *testing.T) {
	params := DefaultFormulaParams()
	costs := carrying.Costs{TotalMonthly: 500, TotalForPeriod: 12000}

	tests := []struct {
		name               string
		input              PriceInput
		expectedBase       float64
		expectedIndexation float64
		expectedRecovery   float64
		expectedTotal      float64
	}{
		{
			name: "Two years at 2% with full recovery",
			input: PriceInput{
				OriginalPrice:            200000,
				OriginalFees:             25000,
				OriginalConstructionCost: 75000,
				YearsHeld:                2,
				Params:                   params,
				Carrying:                 costs,
			},
			expectedBase:       300000,
			expectedIndexation: 300000 * (1.02*1.02 - 1),
			expectedRecovery:   12000,
			expectedTotal:      300000*1.02*1.02 + 12000,
		},
		{
			name: "Half recovery plus renovation",
			input: PriceInput{
				OriginalPrice:  100000,
				YearsHeld:      1,
				Params:         FormulaParams{IndexationRate: 3, CarryingCostRecovery: 50},
				Carrying:       costs,
				RenovationCost: 10000,
			},
			expectedBase:       100000,
			expectedIndexation: 3000,
			expectedRecovery:   6000,
			expectedTotal:      119000,
		},
		{
			name: "Negative years clamp to zero",
			input: PriceInput{
				OriginalPrice: 100000,
				YearsHeld:     -1.5,
				Params:        params,
			},
			expectedBase:       100000,
			expectedIndexation: 0,
			expectedRecovery:   0,
			expectedTotal:      100000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResalePrice(tt.input)
			if math.Abs(got.BasePrice-tt.expectedBase) > 1e-6 {
				t.Errorf("BasePrice = %v, expected %v", got.BasePrice, tt.expectedBase)
			}
			if math.Abs(got.Indexation-tt.expectedIndexation) > 1e-6 {
				t.Errorf("Indexation = %v, expected %v", got.Indexation, tt.expectedIndexation)
			}
			if math.Abs(got.CarryingCostRecovery-tt.expectedRecovery) > 1e-6 {
				t.Errorf("CarryingCostRecovery = %v, expected %v", got.CarryingCostRecovery, tt.expectedRecovery)
			}
			if math.Abs(got.TotalPrice-tt.expectedTotal) > 1e-6 {
				t.Errorf("TotalPrice = %v, expected %v", got.TotalPrice, tt.expectedTotal)
			}
			if got.YearsHeld < 0 {
				t.Errorf("YearsHeld = %v, should be clamped", got.YearsHeld)
			}
		})
	}
}

func TestIndexationBoundaries(t *testing.T) {
	if got := Indexation(250000, 2, 0); math.Abs(got) > 1e-9 {
		t.Errorf("zero years should yield no indexation, got %v", got)
	}
	for _, years := range []float64{0.5, 1, 7.25, 30} {
		if got := Indexation(250000, 0, years); got != 0 {
			t.Errorf("zero rate over %v years should yield exactly 0, got %v", years, got)
		}
	}
	half := Indexation(100000, 2, 0.5)
	expected := 100000 * (math.Sqrt(1.02) - 1)
	if math.Abs(half-expected) > 1e-6 {
		t.Errorf("fractional indexation = %v, expected %v", half, expected)
	}
}

func TestResalePriceFromCopropriete(t *testing.T) {
	cfg := carrying.DefaultConfig()
	params := DefaultFormulaParams()

	got, err := ResalePriceFromCopropriete(CoproInput{
		OriginalPrice:         650000,
		SurfaceChosen:         60,
		TotalAvailableSurface: 300,
		YearsHeld:             1,
		Params:                params,
		CarryingConfig:        cfg,
	})
	if err != nil {
		t.Fatalf("ResalePriceFromCopropriete() error = %v", err)
	}

	base := 650000.0 * 60 / 300
	costs := carrying.Calculate(cfg.Share(0.2), base, 0, 12, params.AverageInterestRate)
	expected := base*1.02 + costs.TotalForPeriod
	if math.Abs(got.BasePrice-base) > 1e-6 {
		t.Errorf("BasePrice = %v, expected %v", got.BasePrice, base)
	}
	if math.Abs(got.SurfaceRatio-0.2) > 1e-12 {
		t.Errorf("SurfaceRatio = %v, expected 0.2", got.SurfaceRatio)
	}
	if math.Abs(got.TotalPrice-expected) > 1e-6 {
		t.Errorf("TotalPrice = %v, expected %v", got.TotalPrice, expected)
	}
}

func TestResalePriceFromCoproprieteSplitsCharges(t *testing.T) {
	cfg := carrying.DefaultConfig()
	params := FormulaParams{IndexationRate: 0, CarryingCostRecovery: 100, AverageInterestRate: 0}

	price := func(chosen float64) PriceBreakdown {
		t.Helper()
		got, err := ResalePriceFromCopropriete(CoproInput{
			OriginalPrice:         600000,
			SurfaceChosen:         chosen,
			TotalAvailableSurface: 120,
			YearsHeld:             1,
			Params:                params,
			CarryingConfig:        cfg,
		})
		if err != nil {
			t.Fatalf("ResalePriceFromCopropriete() error = %v", err)
		}
		return got
	}

	// Two same-day buyers of half the lot each recover one year of charges
	// between them, not one year each.
	first, second := price(60), price(60)
	yearly := cfg.AnnualPropertyTax + cfg.AnnualInsurance
	if got := first.CarryingCostRecovery + second.CarryingCostRecovery; math.Abs(got-yearly) > 1e-6 {
		t.Errorf("combined recovery = %v, expected %v", got, yearly)
	}
	if whole := price(120); math.Abs(whole.CarryingCostRecovery-yearly) > 1e-6 {
		t.Errorf("whole lot recovery = %v, expected %v", whole.CarryingCostRecovery, yearly)
	}
}

func TestResalePriceFromCoproprieteNotPriceable(t *testing.T) {
	tests := []struct {
		name      string
		chosen    float64
		available float64
	}{
		{"Zero surface", 0, 100},
		{"Negative surface", -10, 100},
		{"More than available", 120, 100},
		{"Nothing available", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResalePriceFromCopropriete(CoproInput{
				OriginalPrice:         500000,
				SurfaceChosen:         tt.chosen,
				TotalAvailableSurface: tt.available,
				Params:                DefaultFormulaParams(),
			})
			if !errors.Is(err, ErrNotPriceable) {
				t.Errorf("expected ErrNotPriceable, got %v", err)
			}
		})
	}
}
