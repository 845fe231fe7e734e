package calculator

import (
	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"go.uber.org/zap"
)

type options struct {
	deedDate      string
	formulaParams portage.FormulaParams
	carrying      carrying.Config
	logger        *zap.Logger
}

// Option customizes a calculation.
type Option func(*options)

// WithDeedDate sets the date of the collective purchase deed, the reference
// date for portage holding periods.
func WithDeedDate(deedDate string) Option {
	return func(o *options) {
		o.deedDate = deedDate
	}
}

// WithFormulaParams overrides the portage pricing parameters. A nil value
// keeps the defaults.
func WithFormulaParams(params *portage.FormulaParams) Option {
	return func(o *options) {
		if params != nil {
			o.formulaParams = *params
		}
	}
}

// WithCarryingConfig overrides the tax and insurance used for carrying costs.
func WithCarryingConfig(cfg carrying.Config) Option {
	return func(o *options) {
		o.carrying = cfg
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		formulaParams: portage.DefaultFormulaParams(),
		carrying:      carrying.DefaultConfig(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
