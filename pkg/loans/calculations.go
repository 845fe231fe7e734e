// Package loans provides fixed-rate level-payment loan calculations,
// including the two-loan variant where a second loan starts after a delay.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("invalid loan configuration")

// ConfigurationError reports loan parameters that cannot be amortized.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "loan configuration error: " + e.Reason
}

// Is makes errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Amortization holds the headline figures of a level-payment loan.
type Amortization struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalRepayment float64 `json:"totalRepayment"`
	TotalInterest  float64 `json:"totalInterest"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// YearsToMonths converts a (possibly fractional) duration in years to a
// whole number of monthly payments.
func YearsToMonths(years float64) int {
	return int(math.Round(years * constants.MonthsPerYear))
}

// AmortizeMonths computes the level-payment figures over termMonths payments.
// A non-positive term yields zero figures.
func AmortizeMonths(principal, annualRatePercent float64, termMonths int) Amortization {
	if termMonths <= 0 {
		return Amortization{}
	}
	payment := CalculateMonthlyPayment(principal, annualRatePercent, termMonths)
	totalRepayment := payment * float64(termMonths)
	interest := totalRepayment - principal
	if annualRatePercent == 0 {
		interest = 0
	}
	return Amortization{
		MonthlyPayment: payment,
		TotalRepayment: totalRepayment,
		TotalInterest:  interest,
	}
}

// Amortize computes the level-payment figures for a loan of the given
// duration in years.
func Amortize(principal, annualRatePercent, years float64) Amortization {
	return AmortizeMonths(principal, annualRatePercent, YearsToMonths(years))
}

// SplitTwoLoanAmounts divides a total cost between two loans. Loan 2 finances
// loan2Share; loan 1 finances the rest. Capital earmarked for each loan is
// subtracted from its share and negative results clamp to zero.
func SplitTwoLoanAmounts(totalCost, loan2Share, capitalForLoan1, capitalForLoan2 float64) (loan1, loan2 float64) {
	loan1 = mathutil.ClampZero(totalCost - loan2Share - capitalForLoan1)
	loan2 = mathutil.ClampZero(loan2Share - capitalForLoan2)
	return loan1, loan2
}

// TwoLoanInput describes a two-loan financing request.
type TwoLoanInput struct {
	Loan1Amount       float64
	Loan2Amount       float64
	AnnualRatePercent float64
	DurationYears     float64
	Loan2DelayYears   float64
}

// PlanTwoLoans amortizes loan 1 over the full duration and loan 2 over the
// duration remaining after the delay. A remaining duration of zero or less
// is a ConfigurationError.
func PlanTwoLoans(in TwoLoanInput) (TwoLoans, error) {
	loan2Years := in.DurationYears - in.Loan2DelayYears
	if loan2Years <= 0 || YearsToMonths(loan2Years) <= 0 {
		return TwoLoans{}, &ConfigurationError{
			Reason: fmt.Sprintf("second loan duration must be positive (duration %.2f years, delay %.2f years)",
				in.DurationYears, in.Loan2DelayYears),
		}
	}
	if in.Loan2DelayYears < 0 {
		return TwoLoans{}, &ConfigurationError{
			Reason: fmt.Sprintf("second loan delay cannot be negative (%.2f years)", in.Loan2DelayYears),
		}
	}

	return TwoLoans{
		Loan1:           newLoanFigures(in.Loan1Amount, in.AnnualRatePercent, in.DurationYears),
		Loan2:           newLoanFigures(in.Loan2Amount, in.AnnualRatePercent, loan2Years),
		Loan2DelayYears: in.Loan2DelayYears,
	}, nil
}

// PlanSingleLoan amortizes the whole amount as one loan.
func PlanSingleLoan(amount, annualRatePercent, durationYears float64) SingleLoan {
	return SingleLoan{LoanFigures: newLoanFigures(amount, annualRatePercent, durationYears)}
}

func newLoanFigures(amount, rate, years float64) LoanFigures {
	return LoanFigures{
		Amount:        amount,
		DurationYears: years,
		Amortization:  Amortize(amount, rate, years),
	}
}
