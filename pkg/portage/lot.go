package portage

import (
	"fmt"

	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/datetime"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
)

// PortageSnapshot freezes the acquisition figures of a lot at the time it
// was taken into portage.
type PortageSnapshot struct {
	OriginalPrice            float64 `json:"originalPrice" yaml:"originalPrice" mapstructure:"originalPrice"`
	OriginalRegistrationFees float64 `json:"originalRegistrationFees" yaml:"originalRegistrationFees" mapstructure:"originalRegistrationFees"`
	OriginalConstructionCost float64 `json:"originalConstructionCost" yaml:"originalConstructionCost" mapstructure:"originalConstructionCost"`
	MonthlyCarryingCost      float64 `json:"monthlyCarryingCost" yaml:"monthlyCarryingCost" mapstructure:"monthlyCarryingCost"`
}

// Lot is a physical unit of ownership. Lots are never removed from their
// owner; a sold lot only gains a SoldDate.
type Lot struct {
	LotID            int              `json:"lotId" yaml:"lotId" mapstructure:"lotId"`
	UnitID           int              `json:"unitId" yaml:"unitId" mapstructure:"unitId"`
	Surface          float64          `json:"surface" yaml:"surface" mapstructure:"surface"`
	AllocatedSurface float64          `json:"allocatedSurface" yaml:"allocatedSurface" mapstructure:"allocatedSurface"`
	AcquiredDate     string           `json:"acquiredDate" yaml:"acquiredDate" mapstructure:"acquiredDate"`
	SoldDate         string           `json:"soldDate,omitempty" yaml:"soldDate,omitempty" mapstructure:"soldDate"`
	IsPortage        bool             `json:"isPortage" yaml:"isPortage" mapstructure:"isPortage"`
	Portage          *PortageSnapshot `json:"portage,omitempty" yaml:"portage,omitempty" mapstructure:"portage"`
}

// Clone returns a deep copy of the lot.
func (l Lot) Clone() Lot {
	if l.Portage != nil {
		snapshot := *l.Portage
		l.Portage = &snapshot
	}
	return l
}

// Sold reports whether the lot has been transferred.
func (l Lot) Sold() bool {
	return l.SoldDate != ""
}

// ExcessInput describes an owner allocated more surface than they occupy.
// Original costs are those of the whole allocated surface.
type ExcessInput struct {
	LotID                    int
	UnitID                   int
	AllocatedSurface         float64
	OccupiedSurface          float64
	AcquiredDate             string
	OriginalPrice            float64
	OriginalRegistrationFees float64
	OriginalConstructionCost float64
	CapitalPaid              float64
	AnnualRatePercent        float64
	CarryingConfig           carrying.Config
}

// NewExcessLot creates the portage lot holding the surface allocated beyond
// what the owner occupies. Costs are taken pro rata to the excess surface.
// The boolean is false when there is no excess.
func NewExcessLot(in ExcessInput) (Lot, bool) {
	excess := in.AllocatedSurface - in.OccupiedSurface
	if excess <= 0 || in.AllocatedSurface <= 0 {
		return Lot{}, false
	}
	ratio := excess / in.AllocatedSurface

	price := in.OriginalPrice * ratio
	fees := in.OriginalRegistrationFees * ratio
	construction := in.OriginalConstructionCost * ratio
	capital := in.CapitalPaid * ratio
	costs := carrying.Calculate(in.CarryingConfig, price+fees+construction, capital, 0, in.AnnualRatePercent)

	return Lot{
		LotID:            in.LotID,
		UnitID:           in.UnitID,
		Surface:          excess,
		AllocatedSurface: in.AllocatedSurface,
		AcquiredDate:     in.AcquiredDate,
		IsPortage:        true,
		Portage: &PortageSnapshot{
			OriginalPrice:            price,
			OriginalRegistrationFees: fees,
			OriginalConstructionCost: construction,
			MonthlyCarryingCost:      costs.TotalMonthly,
		},
	}, true
}

// MarkSold returns a copy of the lot sold on soldDate. An empty date
// clears the sale.
func MarkSold(lot Lot, soldDate string) Lot {
	sold := lot.Clone()
	sold.SoldDate = soldDate
	return sold
}

// FindLot returns the lot with the given id.
func FindLot(lots []Lot, lotID int) (Lot, bool) {
	for _, lot := range lots {
		if lot.LotID == lotID {
			return lot, true
		}
	}
	return Lot{}, false
}

// SyncSellerLot returns a copy of lots where the lot with lotID is sold on
// soldDate. The boolean is false when no such lot exists; the copy is then
// returned unchanged.
func SyncSellerLot(lots []Lot, lotID int, soldDate string) ([]Lot, bool) {
	synced := make([]Lot, len(lots))
	found := false
	for i, lot := range lots {
		if lot.LotID == lotID {
			synced[i] = MarkSold(lot, soldDate)
			found = true
			continue
		}
		synced[i] = lot.Clone()
	}
	return synced, found
}

// PriceLot prices a held portage lot sold on saleDate. Carrying costs are
// those recorded in the snapshot, accumulated over the months held.
func PriceLot(lot Lot, saleDate string, params FormulaParams, renovationCost float64) (PriceBreakdown, error) {
	if !lot.IsPortage || lot.Portage == nil {
		return PriceBreakdown{}, fmt.Errorf("%w: lot %d is not held in portage", ErrNotPriceable, lot.LotID)
	}
	acquired, ok := datetime.ParseDate(lot.AcquiredDate)
	if !ok {
		return PriceBreakdown{}, fmt.Errorf("%w: lot %d has no valid acquisition date", ErrNotPriceable, lot.LotID)
	}
	sale, ok := datetime.ParseDate(saleDate)
	if !ok {
		return PriceBreakdown{}, fmt.Errorf("%w: invalid sale date %q", ErrNotPriceable, saleDate)
	}

	months := datetime.MonthsHeld(acquired, sale)
	snapshot := lot.Portage
	costs := carrying.Costs{
		TotalMonthly:   snapshot.MonthlyCarryingCost,
		TotalForPeriod: snapshot.MonthlyCarryingCost * mathutil.ClampZero(months),
	}

	return ResalePrice(PriceInput{
		OriginalPrice:            snapshot.OriginalPrice,
		OriginalFees:             snapshot.OriginalRegistrationFees,
		OriginalConstructionCost: snapshot.OriginalConstructionCost,
		YearsHeld:                datetime.YearsHeld(acquired, sale),
		Params:                   params,
		Carrying:                 costs,
		RenovationCost:           renovationCost,
	}), nil
}
