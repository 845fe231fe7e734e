package export

import (
	"fmt"
	"io"

	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	ParticipantsSheet = "Participants"
	TotalsSheet       = "Totals"
)

const participantColumns = 21

// WriteWorkbook writes the document's results as an xlsx workbook with one
// row per participant and a sheet of totals.
func WriteWorkbook(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ParticipantsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	if err := writeRows(f, ParticipantsSheet, buildParticipantRows(doc.Calculations)); err != nil {
		return err
	}
	if err := writeRows(f, TotalsSheet, buildTotalsRows(doc)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// buildParticipantRows builds the Participants sheet data.
func buildParticipantRows(results calculator.CalculationResults) [][]any {
	data := make([][]any, 0, len(results.Participants)+1)
	data = append(data, []any{
		"Name", "Unit", "Surface", "Quantity", "Founder", "Source",
		"Purchase", "Registration fees", "Casco", "Parachevements", "Travaux communs",
		"Construction", "Shared costs", "Total cost", "Capital", "Loan needed",
		"Financing %", "Loan plan", "Monthly payment", "Total repayment", "Total interest",
	})

	for _, c := range results.Participants {
		kind := ""
		if c.Loan != nil {
			kind = c.Loan.Kind()
		}
		data = append(data, []any{
			c.Name, c.UnitID, c.Surface, c.Quantity, c.IsFounder, c.PurchaseSource,
			mathutil.Round(c.PurchaseShare),
			mathutil.Round(c.RegistrationFees),
			mathutil.Round(c.Casco),
			mathutil.Round(c.Parachevements),
			mathutil.Round(c.TravauxCommunsShare),
			mathutil.Round(c.ConstructionCost),
			mathutil.Round(c.SharedCosts),
			mathutil.Round(c.TotalCost),
			mathutil.Round(c.Capital),
			mathutil.Round(c.LoanNeeded),
			mathutil.Round(c.FinancingRatio),
			kind,
			mathutil.Round(c.MonthlyPayment),
			mathutil.Round(c.TotalRepayment),
			mathutil.Round(c.TotalInterest),
		})
	}

	for _, c := range results.Participants {
		plan, ok := c.Loan.(loans.TwoLoans)
		if !ok {
			continue
		}
		data = append(data,
			loanRow(c.Name+" (loan 1)", plan.Loan1),
			loanRow(c.Name+" (loan 2)", plan.Loan2),
		)
	}

	return data
}

// loanRow is a Participants row holding only the figures of one loan of a
// two-loan plan.
func loanRow(label string, loan loans.LoanFigures) []any {
	row := make([]any, participantColumns)
	for i := range row {
		row[i] = ""
	}
	row[0] = label
	row[15] = mathutil.Round(loan.Amount)
	row[17] = loans.KindTwoLoans
	row[18] = mathutil.Round(loan.MonthlyPayment)
	row[19] = mathutil.Round(loan.TotalRepayment)
	row[20] = mathutil.Round(loan.TotalInterest)
	return row
}

// buildTotalsRows builds the Totals sheet data as label/value pairs.
func buildTotalsRows(doc Document) [][]any {
	r := doc.Calculations
	t := r.Totals
	return [][]any{
		{"Export", doc.ExportID},
		{"Exported at", doc.ExportedAt.Format("2006-01-02 15:04:05 MST")},
		{"Deed date", doc.DeedDate},
		{"Total surface", r.TotalSurface},
		{"Price per m2", mathutil.Round(r.PricePerM2)},
		{"Shared costs", mathutil.Round(r.SharedCosts)},
		{"Shared per person", mathutil.Round(r.SharedPerPerson)},
		{"Travaux communs per person", mathutil.Round(r.TravauxCommunsPerPerson)},
		{"Purchase", mathutil.Round(t.Purchase)},
		{"Registration fees", mathutil.Round(t.RegistrationFees)},
		{"Casco", mathutil.Round(t.Casco)},
		{"Parachevements", mathutil.Round(t.Parachevements)},
		{"Travaux communs", mathutil.Round(t.TravauxCommuns)},
		{"Construction", mathutil.Round(t.Construction)},
		{"Shared", mathutil.Round(t.Shared)},
		{"Total", mathutil.Round(t.Total)},
		{"Capital", mathutil.Round(t.Capital)},
		{"Loans needed", mathutil.Round(t.LoansNeeded)},
		{"Average loan", mathutil.Round(t.AverageLoan)},
		{"Average capital", mathutil.Round(t.AverageCapital)},
		{"Average monthly payment", mathutil.Round(t.AverageMonthlyPayment)},
		{"Participants", t.ParticipantCount},
	}
}
