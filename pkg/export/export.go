// Package export writes a scenario and its calculation into a durable
// document and reads it back. A loaded document holds every input of the
// calculation, so recomputing it reproduces the stored results.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/mathutil"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"go.uber.org/zap"

	json "github.com/goccy/go-json"
)

// Version is the document format written by Marshal.
const Version = constants.ExportVersion

var (
	// ErrUnsupportedVersion is returned by Load for documents of another format.
	ErrUnsupportedVersion = errors.New("unsupported export version")
	// ErrMismatch is returned by Verify when recomputed figures differ from
	// the stored ones.
	ErrMismatch = errors.New("recomputed results differ from export")
)

// Document is the exported form of a scenario.
type Document struct {
	Version       string                        `json:"version"`
	ExportID      string                        `json:"exportId"`
	ExportedAt    time.Time                     `json:"exportedAt"`
	Participants  []calculator.Participant      `json:"participants"`
	ProjectParams calculator.ProjectParams      `json:"projectParams"`
	DeedDate      string                        `json:"deedDate,omitempty"`
	UnitDetails   calculator.UnitDetails        `json:"unitDetails"`
	FormulaParams *portage.FormulaParams        `json:"formulaParams,omitempty"`
	Carrying      *carrying.Config              `json:"carrying,omitempty"`
	Calculations  calculator.CalculationResults `json:"calculations"`
}

// Build calculates the scenario and wraps inputs and results in a document
// stamped with exportedAt.
func Build(logger *zap.Logger, scenario calculator.Scenario, exportedAt time.Time) (Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results, err := scenario.Calculate(logger)
	if err != nil {
		return Document{}, fmt.Errorf("calculating scenario: %w", err)
	}

	doc := Document{
		Version:       Version,
		ExportID:      uuid.NewString(),
		ExportedAt:    exportedAt.UTC(),
		Participants:  scenario.Participants,
		ProjectParams: scenario.ProjectParams,
		DeedDate:      scenario.DeedDate,
		UnitDetails:   scenario.UnitDetails,
		FormulaParams: scenario.FormulaParams,
		Carrying:      scenario.Carrying,
		Calculations:  results,
	}
	logger.Debug(fmt.Sprintf("built export %s with %d participants", doc.ExportID, len(doc.Participants)),
		zap.String("op", "export.Build"),
	)
	return doc, nil
}

// Scenario returns the calculation inputs stored in the document.
func (d Document) Scenario() calculator.Scenario {
	return calculator.Scenario{
		Participants:  d.Participants,
		ProjectParams: d.ProjectParams,
		UnitDetails:   d.UnitDetails,
		DeedDate:      d.DeedDate,
		FormulaParams: d.FormulaParams,
		Carrying:      d.Carrying,
	}
}

// Marshal encodes the document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// Load decodes a document written by Marshal.
func Load(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding export: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %q (expected %q)", ErrUnsupportedVersion, doc.Version, Version)
	}
	return doc, nil
}

// Recompute runs the calculation again on the document's inputs.
func Recompute(logger *zap.Logger, doc Document) (calculator.CalculationResults, error) {
	return doc.Scenario().Calculate(logger)
}

// Verify recomputes the document and checks that total surface, price per
// m² and grand total match the stored results.
func Verify(logger *zap.Logger, doc Document) error {
	results, err := Recompute(logger, doc)
	if err != nil {
		return err
	}
	stored := doc.Calculations
	checks := []struct {
		name      string
		got, want float64
	}{
		{"totalSurface", results.TotalSurface, stored.TotalSurface},
		{"pricePerM2", results.PricePerM2, stored.PricePerM2},
		{"totals.total", results.Totals.Total, stored.Totals.Total},
	}
	for _, c := range checks {
		if !mathutil.WithinRelative(c.got, c.want, constants.RelativeTolerance) {
			return fmt.Errorf("%w: %s is %.2f, export has %.2f", ErrMismatch, c.name, c.got, c.want)
		}
	}
	return nil
}
