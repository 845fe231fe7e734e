// Package calculator is the cost allocation engine. It turns participants,
// the project budget and per-unit construction costs into a per-participant
// financial breakdown with aggregate totals.
//
// CalculateAll is a pure function of its inputs: it never modifies them and
// never consults the clock, so the same inputs always give the same results.
package calculator

import (
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/datetime"
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultLoan2DelayYears is the delay before the second loan starts when
// the participant does not set one.
const DefaultLoan2DelayYears = 2.0

const opCalculateAll = "calculator.CalculateAll"

// CalculateAll computes the breakdown of every enabled participant.
//
// It fails with an InvalidInputError when the enabled participants have no
// surface, and with a loans.ConfigurationError when a two-loan plan cannot
// be amortized. Missing or unparsable dates and formula parameters fall back
// to defaults instead of failing.
func CalculateAll(participants []Participant, params ProjectParams, unitDetails UnitDetails, opts ...Option) (CalculationResults, error) {
	o := newOptions(opts)

	active := lo.Filter(participants, func(p Participant, _ int) bool { return p.IsEnabled() })
	for _, p := range active {
		if p.Surface < 0 || math.IsNaN(p.Surface) {
			return CalculationResults{}, invalidInput(fmt.Sprintf("Surface of %s must not be negative", p.Name))
		}
	}

	totalSurface := TotalSurface(participants)
	if !(totalSurface > 0) {
		return CalculationResults{}, invalidInput("Total surface must be greater than zero")
	}

	count := float64(len(active))
	sharedCosts := SharedCostsTotal(params)
	a := allocation{
		all:              participants,
		active:           active,
		params:           params,
		unitDetails:      unitDetails,
		opts:             o,
		pricePerM2:       params.TotalPurchase / totalSurface,
		sharedPerPerson:  sharedCosts / count,
		travauxPerPerson: params.TravauxCommuns / count,
	}

	results := CalculationResults{
		TotalSurface:            totalSurface,
		PricePerM2:              a.pricePerM2,
		SharedCosts:             sharedCosts,
		SharedPerPerson:         a.sharedPerPerson,
		TravauxCommunsPerPerson: a.travauxPerPerson,
		Participants:            make([]ParticipantCalculation, 0, len(active)),
	}
	for _, p := range active {
		calc, err := a.participant(p)
		if err != nil {
			return CalculationResults{}, fmt.Errorf("participant %s: %w", p.Name, err)
		}
		results.Participants = append(results.Participants, calc)
	}
	results.Totals = computeTotals(results.Participants)

	o.logger.Debug(fmt.Sprintf("calculated %d participants (%d disabled)", len(active), len(participants)-len(active)),
		zap.String("op", opCalculateAll),
		zap.Float64("totalSurface", totalSurface),
		zap.Float64("pricePerM2", a.pricePerM2),
		zap.Float64("total", results.Totals.Total),
	)
	return results, nil
}

// TotalSurface sums surface times quantity over enabled participants.
func TotalSurface(participants []Participant) float64 {
	return lo.SumBy(participants, func(p Participant) float64 {
		if !p.IsEnabled() {
			return 0
		}
		return p.TotalSurface()
	})
}

// SharedCostsTotal is the sum of all collective line items: the expense
// categories when any are given, the itemized pre-purchase costs otherwise,
// plus the recurring frais généraux.
func SharedCostsTotal(params ProjectParams) float64 {
	var items float64
	if len(params.ExpenseCategories) > 0 {
		items = lo.SumBy(params.ExpenseCategories, func(c ExpenseCategory) float64 { return c.Total() })
	} else {
		items = params.MesuresConservatoires +
			params.Demolition +
			params.Infrastructures +
			params.EtudesPreparatoires +
			params.FraisEtudesPreparatoires
	}
	return items + params.FraisGeneraux3Ans
}

// ConstructionCosts returns the casco and parachèvements of a participant's
// units. Override surfaces win over unit details, which win over the
// per-m² rates applied to the participant's surface.
func ConstructionCosts(p Participant, params ProjectParams, unitDetails UnitDetails) (casco, parachevements float64) {
	detail, hasDetail := unitDetails[p.UnitID]

	switch {
	case p.CascoSqm != nil:
		casco = *p.CascoSqm * params.GlobalCascoPerM2
	case hasDetail:
		casco = detail.Casco
	default:
		casco = params.GlobalCascoPerM2 * p.Surface
	}

	switch {
	case p.ParachevementsSqm != nil:
		parachevements = *p.ParachevementsSqm * p.ParachevementsPerM2
	case hasDetail:
		parachevements = detail.Parachevements
	default:
		parachevements = p.ParachevementsPerM2 * p.Surface
	}

	units := float64(p.Units())
	return casco * units, parachevements * units
}

type allocation struct {
	all              []Participant
	active           []Participant
	params           ProjectParams
	unitDetails      UnitDetails
	opts             options
	pricePerM2       float64
	sharedPerPerson  float64
	travauxPerPerson float64
}

func (a *allocation) participant(p Participant) (ParticipantCalculation, error) {
	purchase, source, breakdown := a.purchaseShare(p)
	fees := mathutil.ApplyPercentage(purchase, p.RegistrationFeesRate)
	casco, parachevements := ConstructionCosts(p, a.params, a.unitDetails)
	personal := casco + parachevements
	construction := personal + a.travauxPerPerson
	total := purchase + fees + construction + a.sharedPerPerson
	loanNeeded := mathutil.ClampZero(total - p.Capital)

	plan, err := a.loanPlan(p, total, loanNeeded, parachevements)
	if err != nil {
		return ParticipantCalculation{}, err
	}

	return ParticipantCalculation{
		Name:                   p.Name,
		UnitID:                 p.UnitID,
		Surface:                p.Surface,
		Quantity:               p.Units(),
		IsFounder:              p.IsFounder,
		PurchaseSource:         source,
		PurchaseShare:          purchase,
		RegistrationFees:       fees,
		Casco:                  casco,
		Parachevements:         parachevements,
		PersonalRenovationCost: personal,
		TravauxCommunsShare:    a.travauxPerPerson,
		ConstructionCost:       construction,
		SharedCosts:            a.sharedPerPerson,
		TotalCost:              total,
		Capital:                p.Capital,
		LoanNeeded:             loanNeeded,
		FinancingRatio:         mathutil.CalculatePercentage(loanNeeded, total),
		MonthlyPayment:         plan.PeakMonthlyPayment(),
		TotalRepayment:         plan.RepaymentTotal(),
		TotalInterest:          plan.InterestTotal(),
		Loan:                   plan,
		PortagePrice:           breakdown,
	}, nil
}

// purchaseShare picks the purchase price of a participant and reports where
// it came from.
func (a *allocation) purchaseShare(p Participant) (float64, string, *portage.PriceBreakdown) {
	blended := p.TotalSurface() * a.pricePerM2
	details := p.PurchaseDetails
	switch {
	case details == nil || details.BuyingFrom == "":
		return blended, SourceBlended, nil
	case details.BuyingFrom == constants.Copropriete:
		return a.fromCopropriete(p, blended)
	case p.IsFounder:
		return blended, SourceBlended, nil
	default:
		return a.fromSeller(p, blended)
	}
}

func (a *allocation) fromCopropriete(p Participant, blended float64) (float64, string, *portage.PriceBreakdown) {
	logger := a.opts.logger
	if years, ok := datetime.CalculateYearsHeld(a.opts.deedDate, p.EntryDate); ok {
		entry, _ := datetime.ParseDate(p.EntryDate)
		breakdown, err := portage.ResalePriceFromCopropriete(portage.CoproInput{
			OriginalPrice:         a.params.TotalPurchase,
			SurfaceChosen:         p.TotalSurface(),
			TotalAvailableSurface: a.surfacePresentAt(entry),
			YearsHeld:             years,
			Params:                a.opts.formulaParams,
			CarryingConfig:        a.opts.carrying,
		})
		if err == nil {
			return breakdown.TotalPrice, SourceCoproprieteRecomputed, &breakdown
		}
		logger.Debug(fmt.Sprintf("cannot price %s from the copropriété: %s", p.Name, err),
			zap.String("op", opCalculateAll),
		)
	} else {
		logger.Debug(fmt.Sprintf("deed or entry date of %s unavailable, using stored price", p.Name),
			zap.String("op", opCalculateAll),
			zap.String("deedDate", a.opts.deedDate),
			zap.String("entryDate", p.EntryDate),
		)
	}

	if p.PurchaseDetails.PurchasePrice > 0 {
		return p.PurchaseDetails.PurchasePrice, SourceCoproprieteStored, nil
	}
	return blended, SourceBlended, nil
}

func (a *allocation) fromSeller(p Participant, blended float64) (float64, string, *portage.PriceBreakdown) {
	details := p.PurchaseDetails
	if details.PurchasePrice > 0 {
		return details.PurchasePrice, SourceSeller, nil
	}

	logger := a.opts.logger
	seller, found := lo.Find(a.all, func(candidate Participant) bool { return candidate.Name == details.BuyingFrom })
	if !found {
		logger.Debug(fmt.Sprintf("seller %s of %s not found, using blended price", details.BuyingFrom, p.Name),
			zap.String("op", opCalculateAll),
		)
		return blended, SourceBlended, nil
	}
	lot, found := portage.FindLot(seller.LotsOwned, details.LotID)
	if !found {
		logger.Debug(fmt.Sprintf("lot %d of %s not found, using blended price", details.LotID, seller.Name),
			zap.String("op", opCalculateAll),
		)
		return blended, SourceBlended, nil
	}
	breakdown, err := portage.PriceLot(lot, p.EntryDate, a.opts.formulaParams, 0)
	if err != nil {
		logger.Debug(fmt.Sprintf("cannot price lot %d for %s: %s", lot.LotID, p.Name, err),
			zap.String("op", opCalculateAll),
		)
		return blended, SourceBlended, nil
	}
	return breakdown.TotalPrice, SourceSellerRecomputed, &breakdown
}

// surfacePresentAt sums the surface of enabled participants present on
// date. Founders are present from the deed; newcomers from their entry date,
// same-day entrants included. Participants who left on or before date and
// newcomers without a usable entry date are not counted.
func (a *allocation) surfacePresentAt(date time.Time) float64 {
	deed, hasDeed := datetime.ParseDate(a.opts.deedDate)
	return lo.SumBy(a.active, func(p Participant) float64 {
		start, ok := datetime.ParseDate(p.EntryDate)
		if p.IsFounder && (!ok || hasDeed) {
			start, ok = deed, true
		}
		if !ok || !datetime.OnOrBefore(start, date) {
			return 0
		}
		if exit, left := datetime.ParseDate(p.ExitDate); left && datetime.OnOrBefore(exit, date) {
			return 0
		}
		return p.TotalSurface()
	})
}

func (a *allocation) loanPlan(p Participant, totalCost, loanNeeded, parachevements float64) (loans.LoanPlan, error) {
	if !p.UseTwoLoans {
		return loans.PlanSingleLoan(loanNeeded, p.InterestRate, p.DurationYears), nil
	}

	loan2Share := parachevements
	if p.Loan2RenovationAmount != nil {
		loan2Share = *p.Loan2RenovationAmount
	}
	delay := DefaultLoan2DelayYears
	if p.Loan2DelayYears != nil {
		delay = *p.Loan2DelayYears
	}
	capital1, capital2 := p.CapitalForLoan1, p.CapitalForLoan2
	if mathutil.IsZero(capital1) && mathutil.IsZero(capital2) {
		capital1 = p.Capital
	}

	loan1, loan2 := loans.SplitTwoLoanAmounts(totalCost, loan2Share, capital1, capital2)
	plan, err := loans.PlanTwoLoans(loans.TwoLoanInput{
		Loan1Amount:       loan1,
		Loan2Amount:       loan2,
		AnnualRatePercent: p.InterestRate,
		DurationYears:     p.DurationYears,
		Loan2DelayYears:   delay,
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func computeTotals(calcs []ParticipantCalculation) Totals {
	totals := Totals{ParticipantCount: len(calcs)}
	var monthly float64
	for _, c := range calcs {
		totals.Purchase += c.PurchaseShare
		totals.RegistrationFees += c.RegistrationFees
		totals.Casco += c.Casco
		totals.Parachevements += c.Parachevements
		totals.TravauxCommuns += c.TravauxCommunsShare
		totals.Construction += c.ConstructionCost
		totals.Shared += c.SharedCosts
		totals.Total += c.TotalCost
		totals.Capital += c.Capital
		totals.LoansNeeded += c.LoanNeeded
		monthly += c.MonthlyPayment
	}
	if n := float64(len(calcs)); n > 0 {
		totals.AverageLoan = totals.LoansNeeded / n
		totals.AverageCapital = totals.Capital / n
		totals.AverageMonthlyPayment = monthly / n
	}
	return totals
}
