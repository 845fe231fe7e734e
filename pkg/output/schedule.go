package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iwvelando/cohousing-finance/pkg/loans"
)

// ScheduleCsv writes one comma-separated row per monthly payment.
func ScheduleCsv(w io.Writer, payments []loans.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "date", "payment", "principal", "interest", "remainingPrincipal"}); err != nil {
		return err
	}
	for _, p := range payments {
		record := []string{
			strconv.Itoa(p.Month), p.Date,
			amount(p.Payment), amount(p.Principal), amount(p.Interest), amount(p.RemainingPrincipal),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
