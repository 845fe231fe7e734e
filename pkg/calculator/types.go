package calculator

import (
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"github.com/samber/lo"
)

// Participant is a person or household with a financial stake in the project.
type Participant struct {
	Name                 string  `json:"name" yaml:"name" mapstructure:"name"`
	Capital              float64 `json:"capitalApporte" yaml:"capitalApporte" mapstructure:"capitalApporte"`
	RegistrationFeesRate float64 `json:"registrationFeesRate" yaml:"registrationFeesRate" mapstructure:"registrationFeesRate"`
	UnitID               int     `json:"unitId" yaml:"unitId" mapstructure:"unitId"`
	Surface              float64 `json:"surface" yaml:"surface" mapstructure:"surface"`
	InterestRate         float64 `json:"interestRate" yaml:"interestRate" mapstructure:"interestRate"`
	DurationYears        float64 `json:"durationYears" yaml:"durationYears" mapstructure:"durationYears"`
	// Quantity is the number of identical units this participant stands for.
	// Zero counts as one.
	Quantity            int      `json:"quantity" yaml:"quantity" mapstructure:"quantity"`
	ParachevementsPerM2 float64  `json:"parachevementsPerM2" yaml:"parachevementsPerM2" mapstructure:"parachevementsPerM2"`
	CascoSqm            *float64 `json:"cascoSqm,omitempty" yaml:"cascoSqm,omitempty" mapstructure:"cascoSqm"`
	ParachevementsSqm   *float64 `json:"parachevementsSqm,omitempty" yaml:"parachevementsSqm,omitempty" mapstructure:"parachevementsSqm"`

	IsFounder       bool             `json:"isFounder" yaml:"isFounder" mapstructure:"isFounder"`
	EntryDate       string           `json:"entryDate,omitempty" yaml:"entryDate,omitempty" mapstructure:"entryDate"`
	ExitDate        string           `json:"exitDate,omitempty" yaml:"exitDate,omitempty" mapstructure:"exitDate"`
	LotsOwned       []portage.Lot    `json:"lotsOwned,omitempty" yaml:"lotsOwned,omitempty" mapstructure:"lotsOwned"`
	PurchaseDetails *PurchaseDetails `json:"purchaseDetails,omitempty" yaml:"purchaseDetails,omitempty" mapstructure:"purchaseDetails"`

	UseTwoLoans           bool     `json:"useTwoLoans,omitempty" yaml:"useTwoLoans,omitempty" mapstructure:"useTwoLoans"`
	Loan2DelayYears       *float64 `json:"loan2DelayYears,omitempty" yaml:"loan2DelayYears,omitempty" mapstructure:"loan2DelayYears"`
	Loan2RenovationAmount *float64 `json:"loan2RenovationAmount,omitempty" yaml:"loan2RenovationAmount,omitempty" mapstructure:"loan2RenovationAmount"`
	CapitalForLoan1       float64  `json:"capitalForLoan1,omitempty" yaml:"capitalForLoan1,omitempty" mapstructure:"capitalForLoan1"`
	CapitalForLoan2       float64  `json:"capitalForLoan2,omitempty" yaml:"capitalForLoan2,omitempty" mapstructure:"capitalForLoan2"`

	// Enabled is nil for enabled participants. Disabled ones are kept in the
	// list but take no part in any calculation.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
}

// IsEnabled reports whether the participant takes part in calculations.
func (p Participant) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Units returns the number of units the participant stands for.
func (p Participant) Units() int {
	if p.Quantity <= 0 {
		return 1
	}
	return p.Quantity
}

// TotalSurface is the participant's surface times its quantity.
func (p Participant) TotalSurface() float64 {
	return p.Surface * float64(p.Units())
}

// Clone returns a deep copy of the participant.
func (p Participant) Clone() Participant {
	p.CascoSqm = clonePtr(p.CascoSqm)
	p.ParachevementsSqm = clonePtr(p.ParachevementsSqm)
	p.Loan2DelayYears = clonePtr(p.Loan2DelayYears)
	p.Loan2RenovationAmount = clonePtr(p.Loan2RenovationAmount)
	p.Enabled = clonePtr(p.Enabled)
	if p.LotsOwned != nil {
		p.LotsOwned = lo.Map(p.LotsOwned, func(l portage.Lot, _ int) portage.Lot { return l.Clone() })
	}
	if p.PurchaseDetails != nil {
		details := p.PurchaseDetails.Clone()
		p.PurchaseDetails = &details
	}
	return p
}

// PurchaseDetails records a purchase from another participant or from the
// copropriété.
type PurchaseDetails struct {
	BuyingFrom    string                  `json:"buyingFrom" yaml:"buyingFrom" mapstructure:"buyingFrom"`
	LotID         int                     `json:"lotId" yaml:"lotId" mapstructure:"lotId"`
	PurchasePrice float64                 `json:"purchasePrice" yaml:"purchasePrice" mapstructure:"purchasePrice"`
	Breakdown     *portage.PriceBreakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty" mapstructure:"breakdown"`
}

// Clone returns a deep copy of the purchase details.
func (d PurchaseDetails) Clone() PurchaseDetails {
	d.Breakdown = clonePtr(d.Breakdown)
	return d
}

// ExpenseItem is one labelled amount of an expense category.
type ExpenseItem struct {
	Label  string  `json:"label" yaml:"label" mapstructure:"label"`
	Amount float64 `json:"amount" yaml:"amount" mapstructure:"amount"`
}

// ExpenseCategory groups shared expense line items.
type ExpenseCategory struct {
	Name  string        `json:"name" yaml:"name" mapstructure:"name"`
	Items []ExpenseItem `json:"items" yaml:"items" mapstructure:"items"`
}

// Total sums the category's items.
func (c ExpenseCategory) Total() float64 {
	return lo.SumBy(c.Items, func(item ExpenseItem) float64 { return item.Amount })
}

// ProjectParams are the collective inputs of the project.
type ProjectParams struct {
	TotalPurchase            float64 `json:"totalPurchase" yaml:"totalPurchase" mapstructure:"totalPurchase"`
	MesuresConservatoires    float64 `json:"mesuresConservatoires" yaml:"mesuresConservatoires" mapstructure:"mesuresConservatoires"`
	Demolition               float64 `json:"demolition" yaml:"demolition" mapstructure:"demolition"`
	Infrastructures          float64 `json:"infrastructures" yaml:"infrastructures" mapstructure:"infrastructures"`
	EtudesPreparatoires      float64 `json:"etudesPreparatoires" yaml:"etudesPreparatoires" mapstructure:"etudesPreparatoires"`
	FraisEtudesPreparatoires float64 `json:"fraisEtudesPreparatoires" yaml:"fraisEtudesPreparatoires" mapstructure:"fraisEtudesPreparatoires"`
	FraisGeneraux3Ans        float64 `json:"fraisGeneraux3ans" yaml:"fraisGeneraux3ans" mapstructure:"fraisGeneraux3ans"`
	GlobalCascoPerM2         float64 `json:"globalCascoPerM2" yaml:"globalCascoPerM2" mapstructure:"globalCascoPerM2"`
	// ExpenseCategories replace the itemized pre-purchase costs when present.
	ExpenseCategories []ExpenseCategory `json:"expenseCategories,omitempty" yaml:"expenseCategories,omitempty" mapstructure:"expenseCategories"`
	TravauxCommuns    float64           `json:"travauxCommuns" yaml:"travauxCommuns" mapstructure:"travauxCommuns"`
}

// UnitDetail holds the construction costs of one unit.
type UnitDetail struct {
	Casco          float64 `json:"casco" yaml:"casco" mapstructure:"casco"`
	Parachevements float64 `json:"parachevements" yaml:"parachevements" mapstructure:"parachevements"`
}

// UnitDetails maps unit ids to their construction costs.
type UnitDetails map[int]UnitDetail

// Purchase sources reported on each calculation.
const (
	SourceBlended               = "blended"
	SourceSeller                = "seller"
	SourceSellerRecomputed      = "sellerRecomputed"
	SourceCoproprieteRecomputed = "coproprieteRecomputed"
	SourceCoproprieteStored     = "coproprieteStored"
)

// ParticipantCalculation is the derived breakdown of one participant.
type ParticipantCalculation struct {
	Name           string  `json:"name"`
	UnitID         int     `json:"unitId"`
	Surface        float64 `json:"surface"`
	Quantity       int     `json:"quantity"`
	IsFounder      bool    `json:"isFounder"`
	PurchaseSource string  `json:"purchaseSource"`

	PurchaseShare          float64 `json:"purchaseShare"`
	RegistrationFees       float64 `json:"registrationFees"`
	Casco                  float64 `json:"casco"`
	Parachevements         float64 `json:"parachevements"`
	PersonalRenovationCost float64 `json:"personalRenovationCost"`
	TravauxCommunsShare    float64 `json:"travauxCommunsShare"`
	ConstructionCost       float64 `json:"constructionCost"`
	SharedCosts            float64 `json:"sharedCosts"`
	TotalCost              float64 `json:"totalCost"`

	Capital        float64 `json:"capitalApporte"`
	LoanNeeded     float64 `json:"loanNeeded"`
	FinancingRatio float64 `json:"financingRatio"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalRepayment float64 `json:"totalRepayment"`
	TotalInterest  float64 `json:"totalInterest"`

	// Loan is a loans.SingleLoan or a loans.TwoLoans.
	Loan loans.LoanPlan `json:"-"`
	// PortagePrice is set when the purchase price was computed from a
	// portage formula during this calculation.
	PortagePrice *portage.PriceBreakdown `json:"portagePrice,omitempty"`
}

// TwoLoans returns the two-loan plan, if the participant uses one.
func (c ParticipantCalculation) TwoLoans() (loans.TwoLoans, bool) {
	plan, ok := c.Loan.(loans.TwoLoans)
	return plan, ok
}

// Totals aggregates all participant calculations.
type Totals struct {
	Purchase              float64 `json:"purchase"`
	RegistrationFees      float64 `json:"registrationFees"`
	Casco                 float64 `json:"casco"`
	Parachevements        float64 `json:"parachevements"`
	TravauxCommuns        float64 `json:"travauxCommuns"`
	Construction          float64 `json:"construction"`
	Shared                float64 `json:"shared"`
	Total                 float64 `json:"total"`
	Capital               float64 `json:"capitalTotal"`
	LoansNeeded           float64 `json:"totalLoansNeeded"`
	AverageLoan           float64 `json:"averageLoan"`
	AverageCapital        float64 `json:"averageCapital"`
	AverageMonthlyPayment float64 `json:"averageMonthlyPayment"`
	ParticipantCount      int     `json:"participantCount"`
}

// CalculationResults is the output of CalculateAll.
type CalculationResults struct {
	TotalSurface            float64                  `json:"totalSurface"`
	PricePerM2              float64                  `json:"pricePerM2"`
	SharedCosts             float64                  `json:"sharedCosts"`
	SharedPerPerson         float64                  `json:"sharedPerPerson"`
	TravauxCommunsPerPerson float64                  `json:"travauxCommunsPerPerson"`
	Participants            []ParticipantCalculation `json:"participantBreakdown"`
	Totals                  Totals                   `json:"totals"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
