package loans

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Plan kinds as they appear in serialized output.
const (
	KindSingle   = "single"
	KindTwoLoans = "twoLoans"
)

// LoanFigures is one amortized loan.
type LoanFigures struct {
	Amount        float64 `json:"amount"`
	DurationYears float64 `json:"durationYears"`
	Amortization
}

// LoanPlan is either a SingleLoan or a TwoLoans. The unexported method
// keeps the set closed.
type LoanPlan interface {
	Kind() string
	// PeakMonthlyPayment is the highest monthly outlay over the plan.
	PeakMonthlyPayment() float64
	RepaymentTotal() float64
	InterestTotal() float64
	Principal() float64
	isLoanPlan()
}

// SingleLoan finances the whole loan need with one loan.
type SingleLoan struct {
	LoanFigures
}

func (SingleLoan) Kind() string { return KindSingle }

func (s SingleLoan) PeakMonthlyPayment() float64 { return s.MonthlyPayment }

func (s SingleLoan) RepaymentTotal() float64 { return s.TotalRepayment }

func (s SingleLoan) InterestTotal() float64 { return s.TotalInterest }

func (s SingleLoan) Principal() float64 { return s.Amount }

func (SingleLoan) isLoanPlan() {}

// TwoLoans finances the purchase with loan 1 and later works with loan 2,
// which starts Loan2DelayYears after loan 1 and ends with it.
type TwoLoans struct {
	Loan1           LoanFigures `json:"loan1"`
	Loan2           LoanFigures `json:"loan2"`
	Loan2DelayYears float64     `json:"loan2DelayYears"`
}

func (TwoLoans) Kind() string { return KindTwoLoans }

// PeakMonthlyPayment is the combined payment once loan 2 has started.
func (t TwoLoans) PeakMonthlyPayment() float64 {
	return t.Loan1.MonthlyPayment + t.Loan2.MonthlyPayment
}

func (t TwoLoans) RepaymentTotal() float64 {
	return t.Loan1.TotalRepayment + t.Loan2.TotalRepayment
}

func (t TwoLoans) InterestTotal() float64 {
	return t.Loan1.TotalInterest + t.Loan2.TotalInterest
}

func (t TwoLoans) Principal() float64 { return t.Loan1.Amount + t.Loan2.Amount }

func (TwoLoans) isLoanPlan() {}

// PlanEnvelope is the tagged JSON form of a LoanPlan.
type PlanEnvelope struct {
	Kind     string      `json:"kind"`
	Single   *SingleLoan `json:"single,omitempty"`
	TwoLoans *TwoLoans   `json:"twoLoans,omitempty"`
}

// Envelope wraps a plan for serialization. A nil plan yields nil.
func Envelope(plan LoanPlan) *PlanEnvelope {
	switch p := plan.(type) {
	case SingleLoan:
		return &PlanEnvelope{Kind: KindSingle, Single: &p}
	case TwoLoans:
		return &PlanEnvelope{Kind: KindTwoLoans, TwoLoans: &p}
	default:
		return nil
	}
}

// Plan unwraps the envelope, checking that the tag matches the payload.
func (e *PlanEnvelope) Plan() (LoanPlan, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case KindSingle:
		if e.Single == nil {
			return nil, fmt.Errorf("loan plan of kind %q has no payload", e.Kind)
		}
		return *e.Single, nil
	case KindTwoLoans:
		if e.TwoLoans == nil {
			return nil, fmt.Errorf("loan plan of kind %q has no payload", e.Kind)
		}
		return *e.TwoLoans, nil
	default:
		return nil, fmt.Errorf("unknown loan plan kind %q", e.Kind)
	}
}

// MarshalPlan encodes a plan as its tagged envelope.
func MarshalPlan(plan LoanPlan) ([]byte, error) {
	return json.Marshal(Envelope(plan))
}

// UnmarshalPlan decodes a tagged envelope into a plan.
func UnmarshalPlan(data []byte) (LoanPlan, error) {
	var env *PlanEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Plan()
}
