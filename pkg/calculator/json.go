package calculator

import (
	"github.com/iwvelando/cohousing-finance/pkg/loans"

	json "github.com/goccy/go-json"
)

type participantCalculationAlias ParticipantCalculation

type participantCalculationJSON struct {
	participantCalculationAlias
	Loan *loans.PlanEnvelope `json:"loan,omitempty"`
}

// MarshalJSON encodes the loan plan as a tagged envelope so that single and
// two-loan plans stay distinguishable.
func (c ParticipantCalculation) MarshalJSON() ([]byte, error) {
	return json.Marshal(participantCalculationJSON{
		participantCalculationAlias: participantCalculationAlias(c),
		Loan:                        loans.Envelope(c.Loan),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (c *ParticipantCalculation) UnmarshalJSON(data []byte) error {
	var decoded participantCalculationJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	plan, err := decoded.Loan.Plan()
	if err != nil {
		return err
	}
	*c = ParticipantCalculation(decoded.participantCalculationAlias)
	c.Loan = plan
	return nil
}
