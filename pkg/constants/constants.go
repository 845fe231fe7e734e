// Package constants provides shared constants for the cohousing-finance application.
package constants

// DateLayout is the calendar date format expected in scenario files and used
// for every date the engine emits.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the average year length used for fractional years held
	DaysPerYear = 365.25

	// DecimalPlaces is the precision for currency rounding (2 decimal places)
	DecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Registration fee tiers (droits d'enregistrement), in percent.
const (
	// RegistrationFeesStandard is the standard registration fee rate
	RegistrationFeesStandard = 12.5

	// RegistrationFeesReduced is the reduced rate for modest dwellings
	RegistrationFeesReduced = 3.0
)

// Collective identifiers
const (
	// Copropriete is the seller name used when a newcomer buys from the collective
	Copropriete = "Copropriété"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default scenario file name
	DefaultConfigFile = "scenario.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides of scenario keys
	EnvPrefix = "COHOUSING"
)

// Export constants
const (
	// ExportVersion is the schema version written into export documents
	ExportVersion = "2"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheTTLSeconds is how long computed results stay cached
	DefaultCacheTTLSeconds = 600

	// DefaultRateLimit is the sustained number of API requests accepted per second
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the number of API requests accepted in a burst
	DefaultRateBurst = 30
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// RelativeTolerance is the tolerance for reconciliation checks
	RelativeTolerance = 1e-6
)
