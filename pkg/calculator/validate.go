package calculator

import (
	"fmt"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/datetime"
	"github.com/iwvelando/cohousing-finance/pkg/format"
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"github.com/iwvelando/cohousing-finance/pkg/validation"
	"github.com/samber/lo"
)

// Validate returns warnings about inputs that CalculateAll accepts but that
// are probably mistakes. It never fails; fatal problems are reported by
// CalculateAll itself.
func Validate(participants []Participant, params ProjectParams, unitDetails UnitDetails, deedDate string) []string {
	var warnings []string
	warn := func(msg string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(msg, args...))
	}

	if _, ok := datetime.ParseDate(deedDate); deedDate != "" && !ok {
		warn("deed date %q is not a valid date", deedDate)
	}
	if params.TotalPurchase <= 0 {
		warn("total purchase price is %s", format.Currency(params.TotalPurchase))
	}

	for _, dup := range lo.FindDuplicatesBy(participants, func(p Participant) string { return p.Name }) {
		warn("participant name %q is used more than once", dup.Name)
	}

	var needed map[string]float64
	if lo.SomeBy(participants, func(p Participant) bool { return p.IsEnabled() && loans.YearsToMonths(p.DurationYears) <= 0 }) {
		needed = loansNeeded(participants, params, unitDetails, deedDate)
	}

	for _, p := range participants {
		if !p.IsEnabled() {
			warn("%s is disabled and excluded from calculations", p.Name)
			continue
		}
		if p.RegistrationFeesRate != constants.RegistrationFeesStandard && p.RegistrationFeesRate != constants.RegistrationFeesReduced {
			warn("%s has registration fees rate %.2f%%, expected %.1f%% or %.1f%%",
				p.Name, p.RegistrationFeesRate, constants.RegistrationFeesStandard, constants.RegistrationFeesReduced)
		}
		if len(unitDetails) > 0 && p.CascoSqm == nil && p.ParachevementsSqm == nil {
			if _, ok := unitDetails[p.UnitID]; !ok {
				warn("%s has unit %d without unit details, per-m² rates are used", p.Name, p.UnitID)
			}
		}
		warnings = append(warnings, validation.ValidateStayDates(p.Name, p.EntryDate, p.ExitDate, deedDate)...)
		if loanStart := lo.Ternary(p.EntryDate != "", p.EntryDate, deedDate); p.ExitDate != "" && loanStart != "" {
			if w, err := validation.ValidateLoanMaturity(p.Name, loanStart, p.ExitDate, loans.YearsToMonths(p.DurationYears)); err == nil && w != "" {
				warnings = append(warnings, w)
			}
		}
		if loans.YearsToMonths(p.DurationYears) <= 0 {
			if loan, known := needed[p.Name]; !known {
				warn("%s has a loan duration of %.1f years", p.Name, p.DurationYears)
			} else if loan > 0 {
				warn("%s needs a loan of %s but has a loan duration of %.1f years, repayments are reported as zero",
					p.Name, format.Currency(loan), p.DurationYears)
			}
		}
		if p.UseTwoLoans {
			delay := DefaultLoan2DelayYears
			if p.Loan2DelayYears != nil {
				delay = *p.Loan2DelayYears
			}
			if delay >= p.DurationYears {
				warn("%s has a second loan delay of %.1f years for a %.1f year loan", p.Name, delay, p.DurationYears)
			}
		}
		if d := p.PurchaseDetails; d != nil && d.BuyingFrom != "" && d.BuyingFrom != constants.Copropriete {
			if !lo.ContainsBy(participants, func(s Participant) bool { return s.Name == d.BuyingFrom }) {
				warn("%s buys from unknown participant %q", p.Name, d.BuyingFrom)
			}
		}
	}
	return warnings
}

// loansNeeded maps participant names to the loan they need. It is nil when
// the scenario cannot be calculated.
func loansNeeded(participants []Participant, params ProjectParams, unitDetails UnitDetails, deedDate string) map[string]float64 {
	results, err := CalculateAll(participants, params, unitDetails, WithDeedDate(deedDate))
	if err != nil {
		return nil
	}
	return lo.SliceToMap(results.Participants, func(c ParticipantCalculation) (string, float64) {
		return c.Name, c.LoanNeeded
	})
}
