package validation

import (
	"fmt"

	"github.com/iwvelando/cohousing-finance/pkg/datetime"
)

// ValidateLoanMaturity checks whether a loan starting on startDate is
// repaid before exitDate. It returns a warning when it is not, and an error
// when a date cannot be parsed. An empty exit date never warns.
func ValidateLoanMaturity(name, startDate, exitDate string, termMonths int) (string, error) {
	if exitDate == "" {
		return "", nil
	}
	maturityDate, err := datetime.OffsetDate(startDate, datetime.DateLayout, termMonths)
	if err != nil {
		return "", err
	}
	exit, ok := datetime.ParseDate(exitDate)
	if !ok {
		return "", fmt.Errorf("invalid exit date %q", exitDate)
	}

	if maturityDate > datetime.Format(exit) {
		return fmt.Sprintf("Loan of '%s' matures after exit date (%s > %s) - loan will have outstanding balance",
			name, maturityDate, datetime.Format(exit)), nil
	}
	return "", nil
}

// ValidateStayDates checks that a participant enters on or after the deed
// and leaves after entering. Unparsable dates are reported as warnings too.
func ValidateStayDates(name, entryDate, exitDate, deedDate string) []string {
	var warnings []string

	entry, hasEntry := datetime.ParseDate(entryDate)
	if entryDate != "" && !hasEntry {
		warnings = append(warnings, fmt.Sprintf("%s has invalid entry date %q", name, entryDate))
	}
	deed, hasDeed := datetime.ParseDate(deedDate)
	if hasEntry && hasDeed && entry.Before(deed) {
		warnings = append(warnings, fmt.Sprintf("%s enters on %s, before the deed date %s",
			name, datetime.Format(entry), datetime.Format(deed)))
	}

	exit, hasExit := datetime.ParseDate(exitDate)
	if exitDate != "" && !hasExit {
		warnings = append(warnings, fmt.Sprintf("%s has invalid exit date %q", name, exitDate))
	}
	if hasEntry && hasExit && !entry.Before(exit) {
		warnings = append(warnings, fmt.Sprintf("%s leaves on %s, not after entering on %s",
			name, datetime.Format(exit), datetime.Format(entry)))
	}

	return warnings
}
