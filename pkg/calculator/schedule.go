package calculator

import (
	"fmt"

	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"go.uber.org/zap"
)

// Schedule returns the monthly repayment schedule of the named participant.
// Payments are dated from the participant's entry date, or from the deed
// date when the participant has none.
func (s Scenario) Schedule(logger *zap.Logger, name string) ([]loans.Payment, error) {
	results, err := s.Calculate(logger)
	if err != nil {
		return nil, err
	}

	var participant *Participant
	for i := range s.Participants {
		if s.Participants[i].Name == name && s.Participants[i].IsEnabled() {
			participant = &s.Participants[i]
			break
		}
	}
	if participant == nil {
		return nil, invalidInput(fmt.Sprintf("no enabled participant named %q", name))
	}

	var calc ParticipantCalculation
	for _, c := range results.Participants {
		if c.Name == name {
			calc = c
			break
		}
	}

	start := participant.EntryDate
	if start == "" {
		start = s.DeedDate
	}

	generator := loans.NewAmortizationScheduleGenerator(logger)
	switch plan := calc.Loan.(type) {
	case loans.TwoLoans:
		return generator.GenerateTwoLoanSchedule(plan, participant.InterestRate, start)
	case loans.SingleLoan:
		return generator.GenerateSchedule(plan.Amount, participant.InterestRate, loans.YearsToMonths(plan.DurationYears), start)
	}
	return nil, fmt.Errorf("participant %s has no loan plan", name)
}
