package loans

import (
	"fmt"
	"time"

	"github.com/iwvelando/cohousing-finance/pkg/datetime"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int     `json:"month"`
	Date               string  `json:"date,omitempty"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates the month-by-month schedule of a level-payment
// loan. startDate is optional; when given, each payment carries its date.
func (g *AmortizationScheduleGenerator) GenerateSchedule(principal, annualRatePercent float64, termMonths int, startDate string) ([]Payment, error) {
	if termMonths <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("term must be positive, got %d months", termMonths)}
	}
	start, dated, err := parseStart(startDate)
	if err != nil {
		return nil, err
	}

	monthlyPayment := CalculateMonthlyPayment(principal, annualRatePercent, termMonths)
	schedule := make([]Payment, 0, termMonths)
	remaining := principal

	for month := 1; month <= termMonths; month++ {
		var current Payment
		current.Month = month
		if dated {
			current.Date = datetime.Format(start.AddDate(0, month-1, 0))
		}

		current.Interest = CalculateInterestPayment(remaining, annualRatePercent)
		current.Payment = monthlyPayment
		current.Principal = monthlyPayment - current.Interest

		if month == termMonths || mathutil.Round(remaining-current.Principal) == 0 {
			// We will get machine error otherwise so just set to 0.
			current.Principal = remaining
			current.Payment = current.Principal + current.Interest
			current.RemainingPrincipal = 0.00
			schedule = append(schedule, current)
			if month < termMonths {
				g.logger.Debug(fmt.Sprintf("loan repaid after %d of %d months", month, termMonths),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
			break
		}

		current.RemainingPrincipal = remaining - current.Principal
		remaining = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	return schedule, nil
}

// GenerateTwoLoanSchedule merges the schedules of both loans of a plan into
// one monthly table. Loan 2 payments begin in the month after the delay.
func (g *AmortizationScheduleGenerator) GenerateTwoLoanSchedule(plan TwoLoans, annualRatePercent float64, startDate string) ([]Payment, error) {
	loan1Months := YearsToMonths(plan.Loan1.DurationYears)
	loan2Months := YearsToMonths(plan.Loan2.DurationYears)
	delayMonths := YearsToMonths(plan.Loan2DelayYears)

	start, dated, err := parseStart(startDate)
	if err != nil {
		return nil, err
	}

	first, err := g.GenerateSchedule(plan.Loan1.Amount, annualRatePercent, loan1Months, startDate)
	if err != nil {
		return nil, fmt.Errorf("loan 1: %w", err)
	}
	second, err := g.GenerateSchedule(plan.Loan2.Amount, annualRatePercent, loan2Months, "")
	if err != nil {
		return nil, fmt.Errorf("loan 2: %w", err)
	}

	total := loan1Months
	if delayMonths+len(second) > total {
		total = delayMonths + len(second)
	}
	g.logger.Debug("merging two-loan schedule",
		zap.String("op", "loans.GenerateTwoLoanSchedule"),
		zap.Int("loan1Months", loan1Months),
		zap.Int("loan2Months", loan2Months),
		zap.Int("delayMonths", delayMonths),
	)

	merged := make([]Payment, 0, total)
	for month := 1; month <= total; month++ {
		combined := Payment{Month: month}
		if dated {
			combined.Date = datetime.Format(start.AddDate(0, month-1, 0))
		}
		if month <= len(first) {
			addPayment(&combined, first[month-1])
		}
		if idx := month - delayMonths - 1; idx >= 0 && idx < len(second) {
			addPayment(&combined, second[idx])
		} else if idx < 0 {
			// Loan 2 not yet drawn: its full amount is still owed later.
			combined.RemainingPrincipal += plan.Loan2.Amount
		}
		merged = append(merged, combined)
	}
	return merged, nil
}

func parseStart(startDate string) (time.Time, bool, error) {
	if startDate == "" {
		return time.Time{}, false, nil
	}
	start, ok := datetime.ParseDate(startDate)
	if !ok {
		return time.Time{}, false, fmt.Errorf("invalid schedule start date %q", startDate)
	}
	return start, true, nil
}

func addPayment(into *Payment, p Payment) {
	into.Payment += p.Payment
	into.Principal += p.Principal
	into.Interest += p.Interest
	into.RemainingPrincipal += p.RemainingPrincipal
}
