// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
)

// FindParticipant finds a participant calculation by name in the results.
// Returns a pointer to the calculation if found, nil otherwise.
func FindParticipant(results calculator.CalculationResults, name string) *calculator.ParticipantCalculation {
	for i := range results.Participants {
		if results.Participants[i].Name == name {
			return &results.Participants[i]
		}
	}
	return nil
}

// Reconciles reports whether the participant totals add up to the project
// totals within the currency tolerance.
func Reconciles(results calculator.CalculationResults) bool {
	var total, capital, loans float64
	for _, c := range results.Participants {
		total += c.TotalCost
		capital += c.Capital
		loans += c.LoanNeeded
	}
	t := results.Totals
	return mathutil.WithinTolerance(total, t.Total, constants.CurrencyTolerance) &&
		mathutil.WithinTolerance(capital, t.Capital, constants.CurrencyTolerance) &&
		mathutil.WithinTolerance(loans, t.LoansNeeded, constants.CurrencyTolerance) &&
		len(results.Participants) == t.ParticipantCount
}
