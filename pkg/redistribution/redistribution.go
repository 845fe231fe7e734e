// Package redistribution splits sale proceeds among co-owners in proportion
// to their surface share (quotité).
package redistribution

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ErrInvalidSurface is returned for a non-positive total surface or a
// negative individual surface.
var ErrInvalidSurface = errors.New("invalid surface for redistribution")

// Share is one co-owner's surface.
type Share struct {
	Name    string  `json:"name"`
	Surface float64 `json:"surface"`
}

// Allocation is one co-owner's part of the proceeds.
type Allocation struct {
	Name    string  `json:"name"`
	Quotite float64 `json:"quotite"`
	Amount  float64 `json:"amount"`
}

// TotalSurface sums the surfaces of shares.
func TotalSurface(shares []Share) float64 {
	return lo.SumBy(shares, func(s Share) float64 { return s.Surface })
}

// Redistribute splits proceeds by quotité = surface / totalSurface. When
// totalSurface is the sum of the shares, the amounts add up to proceeds up
// to floating point error. A single share always gets quotité 1.
func Redistribute(proceeds float64, shares []Share, totalSurface float64) ([]Allocation, error) {
	quotites, err := quotitesOf(shares, totalSurface)
	if err != nil {
		return nil, err
	}
	allocations := make([]Allocation, len(shares))
	for i, share := range shares {
		allocations[i] = Allocation{
			Name:    share.Name,
			Quotite: quotites[i],
			Amount:  proceeds * quotites[i],
		}
	}
	return allocations, nil
}

// RedistributeCents splits proceeds like Redistribute but in whole cents,
// using the largest remainder method so that the amounts add up exactly to
// proceeds rounded to the cent. totalSurface must be the sum of the shares.
func RedistributeCents(proceeds float64, shares []Share, totalSurface float64) ([]Allocation, error) {
	quotites, err := quotitesOf(shares, totalSurface)
	if err != nil {
		return nil, err
	}
	if sum := TotalSurface(shares); !mathutil.WithinRelative(sum, totalSurface, constants.RelativeTolerance) {
		return nil, fmt.Errorf("%w: shares add up to %.2f, not %.2f", ErrInvalidSurface, sum, totalSurface)
	}

	totalCents := mathutil.ToCents(proceeds)
	total := decimal.NewFromFloat(totalSurface)
	floors := make([]decimal.Decimal, len(shares))
	remainders := make([]decimal.Decimal, len(shares))
	assigned := decimal.Zero

	for i, share := range shares {
		exact := totalCents
		if len(shares) > 1 {
			exact = totalCents.Mul(decimal.NewFromFloat(share.Surface)).Div(total)
		}
		floors[i] = exact.Floor()
		remainders[i] = exact.Sub(floors[i])
		assigned = assigned.Add(floors[i])
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	leftover := int(totalCents.Sub(assigned).IntPart())
	for k := 0; k < leftover && k < len(order); k++ {
		floors[order[k]] = floors[order[k]].Add(decimal.NewFromInt(1))
	}

	allocations := make([]Allocation, len(shares))
	for i, share := range shares {
		allocations[i] = Allocation{
			Name:    share.Name,
			Quotite: quotites[i],
			Amount:  mathutil.FromCents(floors[i]),
		}
	}
	return allocations, nil
}

// CoproprieteSplit is the outcome of selling a lot held by the copropriété.
type CoproprieteSplit struct {
	Proceeds    float64      `json:"proceeds"`
	Reserves    float64      `json:"reserves"`
	Distributed float64      `json:"distributed"`
	Allocations []Allocation `json:"allocations"`
}

// SplitCoproprieteSale keeps reservesPercent of the proceeds as collective
// reserves and redistributes the rest among shares to the cent.
func SplitCoproprieteSale(proceeds, reservesPercent float64, shares []Share) (CoproprieteSplit, error) {
	if reservesPercent < 0 || reservesPercent > 100 {
		return CoproprieteSplit{}, fmt.Errorf("reserves share must be between 0 and 100, got %.2f", reservesPercent)
	}
	reserves := mathutil.Round(mathutil.ApplyPercentage(proceeds, reservesPercent))
	distributed := mathutil.Round(proceeds - reserves)

	allocations, err := RedistributeCents(distributed, shares, TotalSurface(shares))
	if err != nil {
		return CoproprieteSplit{}, err
	}
	return CoproprieteSplit{
		Proceeds:    proceeds,
		Reserves:    reserves,
		Distributed: distributed,
		Allocations: allocations,
	}, nil
}

func quotitesOf(shares []Share, totalSurface float64) ([]float64, error) {
	if totalSurface <= 0 {
		return nil, fmt.Errorf("%w: total surface must be greater than zero, got %.2f", ErrInvalidSurface, totalSurface)
	}
	if bad, found := lo.Find(shares, func(s Share) bool { return s.Surface < 0 }); found {
		return nil, fmt.Errorf("%w: %s has negative surface %.2f", ErrInvalidSurface, bad.Name, bad.Surface)
	}
	if len(shares) == 1 {
		return []float64{1}, nil
	}
	return lo.Map(shares, func(s Share, _ int) float64 {
		return s.Surface / totalSurface
	}), nil
}
