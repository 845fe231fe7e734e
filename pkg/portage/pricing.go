// Package portage prices lots held temporarily by a founder or by the
// copropriété and resold later to a newcomer.
//
// The resale price is the original acquisition cost (purchase, registration
// fees and construction folded together) indexed at a compound yearly rate,
// plus the share of carrying costs the buyer is asked to recover, plus any
// renovation done in the meantime.
package portage

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
)

// ErrNotPriceable is returned when a lot or a share of a lot has no
// meaningful price, e.g. an empty or oversized surface request.
var ErrNotPriceable = errors.New("lot is not priceable")

// Default pricing knobs.
const (
	DefaultIndexationRate       = 2.0
	DefaultCarryingCostRecovery = 100.0
	DefaultAverageInterestRate  = 4.5
	DefaultCoproReservesShare   = 30.0
)

// FormulaParams are the global portage pricing knobs. All values are percentages.
type FormulaParams struct {
	// IndexationRate is the yearly compound growth applied to the base price.
	IndexationRate float64 `json:"indexationRate" yaml:"indexationRate" mapstructure:"indexationRate"`
	// CarryingCostRecovery is how much of the actual holding cost the buyer pays.
	CarryingCostRecovery float64 `json:"carryingCostRecovery" yaml:"carryingCostRecovery" mapstructure:"carryingCostRecovery"`
	// AverageInterestRate is the loan rate assumed when estimating carrying costs.
	AverageInterestRate float64 `json:"averageInterestRate" yaml:"averageInterestRate" mapstructure:"averageInterestRate"`
	// CoproReservesShare is the part of a copropriété sale kept as reserves.
	CoproReservesShare float64 `json:"coproReservesShare" yaml:"coproReservesShare" mapstructure:"coproReservesShare"`
}

// DefaultFormulaParams returns the parameters used when none are supplied.
func DefaultFormulaParams() FormulaParams {
	return FormulaParams{
		IndexationRate:       DefaultIndexationRate,
		CarryingCostRecovery: DefaultCarryingCostRecovery,
		AverageInterestRate:  DefaultAverageInterestRate,
		CoproReservesShare:   DefaultCoproReservesShare,
	}
}

// PriceBreakdown details how a resale price was built.
type PriceBreakdown struct {
	BasePrice            float64 `json:"basePrice"`
	Indexation           float64 `json:"indexation"`
	CarryingCostRecovery float64 `json:"carryingCostRecovery"`
	RenovationCost       float64 `json:"renovationCost"`
	TotalPrice           float64 `json:"totalPrice"`
	YearsHeld            float64 `json:"yearsHeld"`
	// SurfaceRatio is set when only a share of a collective lot is sold.
	SurfaceRatio float64 `json:"surfaceRatio,omitempty"`
}

// PriceInput is the acquisition history of a lot being resold.
type PriceInput struct {
	OriginalPrice            float64
	OriginalFees             float64
	OriginalConstructionCost float64
	YearsHeld                float64
	Params                   FormulaParams
	Carrying                 carrying.Costs
	RenovationCost           float64
}

// ResalePrice computes the resale price of a lot. Negative holding periods
// are treated as zero.
func ResalePrice(in PriceInput) PriceBreakdown {
	base := in.OriginalPrice + in.OriginalFees + in.OriginalConstructionCost
	return priceFromBase(base, in.YearsHeld, in.Params, in.Carrying, in.RenovationCost)
}

// CoproInput describes a newcomer buying part of a lot still held by the
// copropriété. Original costs are those of the whole available surface.
type CoproInput struct {
	OriginalPrice            float64         `json:"originalPrice"`
	OriginalFees             float64         `json:"originalFees"`
	OriginalConstructionCost float64         `json:"originalConstructionCost"`
	SurfaceChosen            float64         `json:"surfaceChosen"`
	TotalAvailableSurface    float64         `json:"totalAvailableSurface"`
	YearsHeld                float64         `json:"yearsHeld"`
	Params                   FormulaParams   `json:"params"`
	CarryingConfig           carrying.Config `json:"carryingConfig"`
	RenovationCost           float64         `json:"renovationCost"`
}

// ResalePriceFromCopropriete prices a share of a collective lot. The base
// price and the yearly tax and insurance are scaled by the chosen share of
// the available surface, and carrying costs are estimated on that scaled
// base over the holding period at the average interest rate.
func ResalePriceFromCopropriete(in CoproInput) (PriceBreakdown, error) {
	if in.SurfaceChosen <= 0 {
		return PriceBreakdown{}, fmt.Errorf("%w: surface chosen must be positive, got %.2f", ErrNotPriceable, in.SurfaceChosen)
	}
	if in.TotalAvailableSurface <= 0 || in.SurfaceChosen > in.TotalAvailableSurface {
		return PriceBreakdown{}, fmt.Errorf("%w: surface chosen %.2f exceeds available %.2f",
			ErrNotPriceable, in.SurfaceChosen, in.TotalAvailableSurface)
	}

	ratio := in.SurfaceChosen / in.TotalAvailableSurface
	base := (in.OriginalPrice + in.OriginalFees + in.OriginalConstructionCost) * ratio
	years := mathutil.ClampZero(in.YearsHeld)
	costs := carrying.Calculate(in.CarryingConfig.Share(ratio), base, 0, years*constants.MonthsPerYear, in.Params.AverageInterestRate)

	breakdown := priceFromBase(base, years, in.Params, costs, in.RenovationCost)
	breakdown.SurfaceRatio = ratio
	return breakdown, nil
}

// Indexation returns the compound growth of base over a fractional number
// of years.
func Indexation(base, ratePercent, years float64) float64 {
	if ratePercent == 0 || years <= 0 {
		return 0
	}
	return base * (math.Pow(1+ratePercent/constants.PercentageMultiplier, years) - 1)
}

func priceFromBase(base, yearsHeld float64, params FormulaParams, costs carrying.Costs, renovation float64) PriceBreakdown {
	years := mathutil.ClampZero(yearsHeld)
	indexation := Indexation(base, params.IndexationRate, years)
	recovery := mathutil.ApplyPercentage(costs.TotalForPeriod, params.CarryingCostRecovery)

	return PriceBreakdown{
		BasePrice:            base,
		Indexation:           indexation,
		CarryingCostRecovery: recovery,
		RenovationCost:       renovation,
		TotalPrice:           base + indexation + recovery + renovation,
		YearsHeld:            years,
	}
}
