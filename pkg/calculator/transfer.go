package calculator

import (
	"fmt"

	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"github.com/samber/lo"
)

// UpdateBuyerEntryDate returns a copy of buyer entering on entryDate. When
// the buyer purchases a portage lot from seller, the stored purchase price
// and breakdown are recomputed for the new date. The inputs are not modified.
func UpdateBuyerEntryDate(buyer Participant, entryDate string, seller *Participant, params portage.FormulaParams) Participant {
	updated := buyer.Clone()
	updated.EntryDate = entryDate

	details := updated.PurchaseDetails
	if details == nil || seller == nil || details.BuyingFrom != seller.Name {
		return updated
	}
	lot, found := portage.FindLot(seller.LotsOwned, details.LotID)
	if !found {
		return updated
	}
	breakdown, err := portage.PriceLot(lot, entryDate, params, 0)
	if err != nil {
		return updated
	}
	details.PurchasePrice = breakdown.TotalPrice
	details.Breakdown = &breakdown
	return updated
}

// SyncSeller returns a copy of seller in which the lot bought by buyer is
// sold on the buyer's entry date.
func SyncSeller(seller, buyer Participant) Participant {
	updated := seller.Clone()
	details := buyer.PurchaseDetails
	if details == nil || details.BuyingFrom != seller.Name || len(seller.LotsOwned) == 0 {
		return updated
	}
	updated.LotsOwned, _ = portage.SyncSellerLot(seller.LotsOwned, details.LotID, buyer.EntryDate)
	return updated
}

// ApplyBuyerEntryDate moves the entry date of the named buyer and keeps the
// seller's lot in step: first the buyer record is recomputed, then the
// seller record is derived from it. A new slice is returned.
func ApplyBuyerEntryDate(participants []Participant, buyerName, entryDate string, params portage.FormulaParams) ([]Participant, error) {
	updated := lo.Map(participants, func(p Participant, _ int) Participant { return p.Clone() })

	_, buyerIdx, found := lo.FindIndexOf(updated, func(p Participant) bool { return p.Name == buyerName })
	if !found {
		return nil, invalidInput(fmt.Sprintf("participant %q not found", buyerName))
	}
	buyer := updated[buyerIdx]

	sellerIdx := -1
	if buyer.PurchaseDetails != nil && buyer.PurchaseDetails.BuyingFrom != "" {
		_, sellerIdx, _ = lo.FindIndexOf(updated, func(p Participant) bool {
			return p.Name == buyer.PurchaseDetails.BuyingFrom
		})
	}

	if sellerIdx < 0 {
		updated[buyerIdx] = UpdateBuyerEntryDate(buyer, entryDate, nil, params)
		return updated, nil
	}
	seller := updated[sellerIdx]
	updated[buyerIdx] = UpdateBuyerEntryDate(buyer, entryDate, &seller, params)
	updated[sellerIdx] = SyncSeller(seller, updated[buyerIdx])
	return updated, nil
}
