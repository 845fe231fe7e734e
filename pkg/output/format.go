// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/format"
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	json "github.com/goccy/go-json"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results calculator.CalculationResults) error {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "--- Project ---\n")
	_, _ = p.Fprintf(w, "Total surface       | %s\n", format.Surface(results.TotalSurface))
	_, _ = p.Fprintf(w, "Price per m²        | €%.2f\n", results.PricePerM2)
	_, _ = p.Fprintf(w, "Shared costs        | €%.2f (€%.2f per person)\n", results.SharedCosts, results.SharedPerPerson)
	_, _ = p.Fprintf(w, "Travaux communs     | €%.2f per person\n", results.TravauxCommunsPerPerson)

	for _, c := range results.Participants {
		fmt.Fprintf(w, "\n--- %s ---\n", c.Name)
		_, _ = p.Fprintf(w, "Unit %d, %s × %d, %s\n", c.UnitID, format.Surface(c.Surface), c.Quantity, role(c))
		_, _ = p.Fprintf(w, "Purchase            | €%.2f (%s)\n", c.PurchaseShare, c.PurchaseSource)
		_, _ = p.Fprintf(w, "Registration fees   | €%.2f\n", c.RegistrationFees)
		_, _ = p.Fprintf(w, "Casco               | €%.2f\n", c.Casco)
		_, _ = p.Fprintf(w, "Parachèvements      | €%.2f\n", c.Parachevements)
		_, _ = p.Fprintf(w, "Travaux communs     | €%.2f\n", c.TravauxCommunsShare)
		_, _ = p.Fprintf(w, "Shared costs        | €%.2f\n", c.SharedCosts)
		_, _ = p.Fprintf(w, "Total cost          | €%.2f\n", c.TotalCost)
		_, _ = p.Fprintf(w, "Capital             | €%.2f\n", c.Capital)
		_, _ = p.Fprintf(w, "Loan needed         | €%.2f (%.1f%% financed)\n", c.LoanNeeded, c.FinancingRatio)
		writePlan(w, p, c.Loan)
	}

	t := results.Totals
	fmt.Fprintf(w, "\n--- Totals (%d participants) ---\n", t.ParticipantCount)
	_, _ = p.Fprintf(w, "Purchase            | €%.2f\n", t.Purchase)
	_, _ = p.Fprintf(w, "Registration fees   | €%.2f\n", t.RegistrationFees)
	_, _ = p.Fprintf(w, "Construction        | €%.2f\n", t.Construction)
	_, _ = p.Fprintf(w, "Shared costs        | €%.2f\n", t.Shared)
	_, _ = p.Fprintf(w, "Total               | €%.2f\n", t.Total)
	_, _ = p.Fprintf(w, "Capital             | €%.2f (average €%.2f)\n", t.Capital, t.AverageCapital)
	_, _ = p.Fprintf(w, "Loans needed        | €%.2f (average €%.2f)\n", t.LoansNeeded, t.AverageLoan)
	_, err := p.Fprintf(w, "Monthly payment     | €%.2f average\n", t.AverageMonthlyPayment)
	return err
}

func role(c calculator.ParticipantCalculation) string {
	if c.IsFounder {
		return "founder"
	}
	return "newcomer"
}

func writePlan(w io.Writer, p *message.Printer, plan loans.LoanPlan) {
	switch plan := plan.(type) {
	case loans.SingleLoan:
		_, _ = p.Fprintf(w, "Loan                | €%.2f over %.0f years: €%.2f/month, €%.2f interest\n",
			plan.Amount, plan.DurationYears, plan.MonthlyPayment, plan.TotalInterest)
	case loans.TwoLoans:
		_, _ = p.Fprintf(w, "Loan 1              | €%.2f over %.0f years: €%.2f/month, €%.2f interest\n",
			plan.Loan1.Amount, plan.Loan1.DurationYears, plan.Loan1.MonthlyPayment, plan.Loan1.TotalInterest)
		_, _ = p.Fprintf(w, "Loan 2              | €%.2f over %.0f years from year %.0f: €%.2f/month, €%.2f interest\n",
			plan.Loan2.Amount, plan.Loan2.DurationYears, plan.Loan2DelayYears, plan.Loan2.MonthlyPayment, plan.Loan2.TotalInterest)
		_, _ = p.Fprintf(w, "Peak payment        | €%.2f/month\n", plan.PeakMonthlyPayment())
	}
}

// CsvFormat writes one comma-separated row per participant followed by a
// totals row.
func CsvFormat(w io.Writer, results calculator.CalculationResults) error {
	cw := csv.NewWriter(w)
	header := []string{
		"name", "unitId", "surface", "quantity", "founder", "purchaseSource",
		"purchaseShare", "registrationFees", "casco", "parachevements", "travauxCommuns",
		"constructionCost", "sharedCosts", "totalCost", "capital", "loanNeeded",
		"financingRatio", "loanPlan", "monthlyPayment", "totalRepayment", "totalInterest",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, c := range results.Participants {
		kind := ""
		if c.Loan != nil {
			kind = c.Loan.Kind()
		}
		record := []string{
			c.Name, strconv.Itoa(c.UnitID), amount(c.Surface), strconv.Itoa(c.Quantity),
			strconv.FormatBool(c.IsFounder), c.PurchaseSource,
			amount(c.PurchaseShare), amount(c.RegistrationFees), amount(c.Casco),
			amount(c.Parachevements), amount(c.TravauxCommunsShare), amount(c.ConstructionCost),
			amount(c.SharedCosts), amount(c.TotalCost), amount(c.Capital), amount(c.LoanNeeded),
			amount(c.FinancingRatio), kind,
			amount(c.MonthlyPayment), amount(c.TotalRepayment), amount(c.TotalInterest),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	t := results.Totals
	totals := []string{
		"TOTAL", "", amount(results.TotalSurface), strconv.Itoa(t.ParticipantCount), "", "",
		amount(t.Purchase), amount(t.RegistrationFees), amount(t.Casco),
		amount(t.Parachevements), amount(t.TravauxCommuns), amount(t.Construction),
		amount(t.Shared), amount(t.Total), amount(t.Capital), amount(t.LoansNeeded),
		"", "", amount(t.AverageMonthlyPayment), "", "",
	}
	if err := cw.Write(totals); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// JSONFormat writes the results as indented JSON.
func JSONFormat(w io.Writer, results calculator.CalculationResults) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
