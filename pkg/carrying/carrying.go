// Package carrying computes the cost of holding a lot in portage: interest
// on the capital still owed plus the fixed tax and insurance of a vacant
// dwelling.
package carrying

import (
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
)

const (
	// DefaultAnnualPropertyTax is the yearly property tax of an unoccupied dwelling.
	DefaultAnnualPropertyTax = 388.38
	// DefaultAnnualInsurance is the yearly building insurance premium.
	DefaultAnnualInsurance = 2000.0
)

// Config holds the fixed yearly charges of a held lot.
type Config struct {
	AnnualPropertyTax float64 `json:"annualPropertyTax" yaml:"annualPropertyTax" mapstructure:"annualPropertyTax"`
	AnnualInsurance   float64 `json:"annualInsurance" yaml:"annualInsurance" mapstructure:"annualInsurance"`
}

// DefaultConfig returns the charges used when the caller supplies none.
func DefaultConfig() Config {
	return Config{
		AnnualPropertyTax: DefaultAnnualPropertyTax,
		AnnualInsurance:   DefaultAnnualInsurance,
	}
}

// Share returns the charges borne by a fraction of the lot.
func (c Config) Share(ratio float64) Config {
	return Config{
		AnnualPropertyTax: c.AnnualPropertyTax * ratio,
		AnnualInsurance:   c.AnnualInsurance * ratio,
	}
}

// Costs is the monthly breakdown of holding a lot and its total over the
// holding period.
type Costs struct {
	MonthlyInterest  float64 `json:"monthlyInterest"`
	MonthlyTax       float64 `json:"monthlyTax"`
	MonthlyInsurance float64 `json:"monthlyInsurance"`
	TotalMonthly     float64 `json:"totalMonthly"`
	TotalForPeriod   float64 `json:"totalForPeriod"`
}

// Calculate returns the carrying costs of a lot worth lotValue of which
// capitalPaid is already paid, held for monthsHeld months. Interest only
// accrues on the unpaid part; tax and insurance are due regardless.
// Negative holding periods count as zero.
func Calculate(cfg Config, lotValue, capitalPaid, monthsHeld, annualRatePercent float64) Costs {
	outstanding := mathutil.ClampZero(lotValue - capitalPaid)
	interest := outstanding * annualRatePercent / (constants.PercentageMultiplier * constants.MonthsPerYear)
	tax := cfg.AnnualPropertyTax / constants.MonthsPerYear
	insurance := cfg.AnnualInsurance / constants.MonthsPerYear
	monthly := interest + tax + insurance

	return Costs{
		MonthlyInterest:  interest,
		MonthlyTax:       tax,
		MonthlyInsurance: insurance,
		TotalMonthly:     monthly,
		TotalForPeriod:   monthly * mathutil.ClampZero(monthsHeld),
	}
}
