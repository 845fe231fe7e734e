package calculator

import (
	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"go.uber.org/zap"
)

// Scenario bundles every input of CalculateAll.
type Scenario struct {
	Participants  []Participant          `json:"participants" yaml:"participants" mapstructure:"participants"`
	ProjectParams ProjectParams          `json:"projectParams" yaml:"projectParams" mapstructure:"projectParams"`
	UnitDetails   UnitDetails            `json:"unitDetails" yaml:"unitDetails" mapstructure:"unitDetails"`
	DeedDate      string                 `json:"deedDate,omitempty" yaml:"deedDate,omitempty" mapstructure:"deedDate"`
	FormulaParams *portage.FormulaParams `json:"formulaParams,omitempty" yaml:"formulaParams,omitempty" mapstructure:"formulaParams"`
	Carrying      *carrying.Config       `json:"carrying,omitempty" yaml:"carrying,omitempty" mapstructure:"carrying"`
}

// Options returns the calculation options the scenario carries.
func (s Scenario) Options(logger *zap.Logger) []Option {
	opts := []Option{
		WithDeedDate(s.DeedDate),
		WithFormulaParams(s.FormulaParams),
		WithLogger(logger),
	}
	if s.Carrying != nil {
		opts = append(opts, WithCarryingConfig(*s.Carrying))
	}
	return opts
}

// Calculate runs CalculateAll on the scenario.
func (s Scenario) Calculate(logger *zap.Logger) (CalculationResults, error) {
	return CalculateAll(s.Participants, s.ProjectParams, s.UnitDetails, s.Options(logger)...)
}

// Validate returns the warnings of Validate for the scenario.
func (s Scenario) Validate() []string {
	return Validate(s.Participants, s.ProjectParams, s.UnitDetails, s.DeedDate)
}
