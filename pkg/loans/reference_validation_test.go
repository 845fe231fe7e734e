package loans

import (
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"
)

// scheduleRow is one line of a known amortization table.
type scheduleRow struct {
	month     int
	payment   float64
	principal float64
	interest  float64
	balance   float64
}

// purchaseLoanTable is the table of a 379,166.67 loan at 4.5% over 25 years,
// the purchase share of a 140 m² unit at 2,708.33 per m².
var purchaseLoanTable = []scheduleRow{
	{1, 2107.53, 685.66, 1421.88, 378481.01},
	{2, 2107.53, 688.23, 1419.30, 377792.79},
	{12, 2107.53, 714.48, 1393.06, 370766.95},
	{60, 2107.53, 855.10, 1252.44, 333127.89},
	{120, 2107.53, 1070.40, 1037.13, 275496.73},
	{180, 2107.53, 1339.93, 767.60, 203354.29},
	{240, 2107.53, 1677.32, 430.22, 113046.68},
	{299, 2107.53, 2091.81, 15.72, 2099.66},
	{300, 2107.53, 2099.66, 7.87, 0.00},
}

func TestPurchaseLoanSchedule(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())
	schedule, err := generator.GenerateSchedule(379166.67, 4.5, 300, "2026-02-01")
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) != 300 {
		t.Fatalf("expected 300 payments, got %d", len(schedule))
	}

	const tolerance = 0.01
	for _, row := range purchaseLoanTable {
		got := schedule[row.month-1]
		t.Run(fmt.Sprintf("Month_%d", row.month), func(t *testing.T) {
			checks := []struct {
				field    string
				got      float64
				expected float64
			}{
				{"Payment", got.Payment, row.payment},
				{"Principal", got.Principal, row.principal},
				{"Interest", got.Interest, row.interest},
				{"RemainingPrincipal", got.RemainingPrincipal, row.balance},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.expected) > tolerance {
					t.Errorf("%s = %.2f, expected %.2f", c.field, c.got, c.expected)
				}
			}
			if math.Abs(got.Principal+got.Interest-got.Payment) > tolerance {
				t.Errorf("principal %.2f + interest %.2f != payment %.2f", got.Principal, got.Interest, got.Payment)
			}
		})
	}

	if first, last := schedule[0].Date, schedule[299].Date; first != "2026-02-01" || last != "2051-01-01" {
		t.Errorf("schedule runs from %s to %s, expected 2026-02-01 to 2051-01-01", first, last)
	}
}

func TestAmortizeAgreesWithSchedule(t *testing.T) {
	summary := Amortize(379166.67, 4.5, 25)
	if math.Abs(summary.MonthlyPayment-2107.53) > 0.01 {
		t.Errorf("MonthlyPayment = %.2f, expected 2107.53", summary.MonthlyPayment)
	}
	if math.Abs(summary.TotalInterest-253092.78) > 0.01 {
		t.Errorf("TotalInterest = %.2f, expected 253092.78", summary.TotalInterest)
	}

	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(379166.67, 4.5, YearsToMonths(25), "")
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	var interest, principal float64
	for _, p := range schedule {
		interest += p.Interest
		principal += p.Principal
	}
	if math.Abs(interest-summary.TotalInterest) > 0.01 {
		t.Errorf("schedule interest %.2f differs from Amortize %.2f", interest, summary.TotalInterest)
	}
	if math.Abs(principal-379166.67) > 0.01 {
		t.Errorf("schedule repays %.2f, expected 379166.67", principal)
	}
}

func TestRenovationLoanSchedule(t *testing.T) {
	// Parachevements of 56,000 financed by a second loan drawn after two
	// years of a 20 year plan.
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(56000, 4.5, 216, "")
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	first, last := schedule[0], schedule[len(schedule)-1]
	if math.Abs(first.Payment-378.74) > 0.01 || math.Abs(first.Interest-210.00) > 0.01 {
		t.Errorf("first payment = %.2f with %.2f interest, expected 378.74 with 210.00", first.Payment, first.Interest)
	}
	if len(schedule) != 216 || last.RemainingPrincipal != 0 {
		t.Errorf("expected 216 payments ending at zero, got %d ending at %.2f", len(schedule), last.RemainingPrincipal)
	}
	if first.Date != "" {
		t.Errorf("undated schedule carries date %q", first.Date)
	}
}

func TestInterestFreeSchedule(t *testing.T) {
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(120000, 0, 240, "")
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	for _, p := range schedule {
		if p.Interest != 0 || math.Abs(p.Payment-500) > 1e-9 {
			t.Fatalf("month %d: payment %.2f with %.2f interest, expected 500.00 without interest", p.Month, p.Payment, p.Interest)
		}
	}
	if last := schedule[len(schedule)-1]; last.RemainingPrincipal != 0 {
		t.Errorf("final balance = %.2f, expected 0", last.RemainingPrincipal)
	}
}
