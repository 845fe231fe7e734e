package integration

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/cohousing-finance/internal/config"
	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/export"
	"github.com/iwvelando/cohousing-finance/pkg/output"
	"github.com/iwvelando/cohousing-finance/pkg/redistribution"
	"github.com/iwvelando/cohousing-finance/pkg/testutil"
	"go.uber.org/zap"

	json "github.com/goccy/go-json"
)

const scenarioPath = "../scenario.yaml"

func loadAndCalculate(t *testing.T) (*config.Configuration, calculator.CalculationResults) {
	t.Helper()
	conf, err := config.LoadConfiguration(scenarioPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	results, err := conf.Calculate(zap.NewNop())
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return conf, results
}

// TestMainIntegrationBaseline runs the example scenario the way the command
// line tool does and checks the project-level figures.
func TestMainIntegrationBaseline(t *testing.T) {
	_, results := loadAndCalculate(t)

	expected := []struct {
		name   string
		source string
	}{
		{"Manuela", calculator.SourceBlended},
		{"Cathy", calculator.SourceBlended},
		{"Annabelle", calculator.SourceSeller},
		{"Colin", calculator.SourceCoproprieteRecomputed},
	}
	if len(results.Participants) != len(expected) {
		t.Fatalf("expected %d participants, got %d", len(expected), len(results.Participants))
	}
	for i, e := range expected {
		got := results.Participants[i]
		if got.Name != e.name || got.PurchaseSource != e.source {
			t.Errorf("participant %d = %s (%s), expected %s (%s)", i, got.Name, got.PurchaseSource, e.name, e.source)
		}
	}

	if results.TotalSurface != 360 {
		t.Errorf("TotalSurface = %.2f, expected 360", results.TotalSurface)
	}
	if math.Abs(results.PricePerM2-650000.0/360) > 1e-9 {
		t.Errorf("PricePerM2 = %.4f, expected %.4f", results.PricePerM2, 650000.0/360)
	}
	if !testutil.Reconciles(results) {
		t.Errorf("participant figures do not add up to the totals %+v", results.Totals)
	}

	cathy := testutil.FindParticipant(results, "Cathy")
	if cathy == nil {
		t.Fatal("Cathy missing from results")
	}
	if _, ok := cathy.TwoLoans(); !ok {
		t.Error("Cathy should finance with two loans")
	}
}

func TestOutputFormats(t *testing.T) {
	_, results := loadAndCalculate(t)

	var pretty bytes.Buffer
	if err := output.PrettyFormat(&pretty, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	for _, name := range []string{"Manuela", "Cathy", "Annabelle", "Colin"} {
		if !strings.Contains(pretty.String(), "--- "+name+" ---") {
			t.Errorf("pretty output is missing %s", name)
		}
	}
	if strings.Contains(pretty.String(), "Dormant") {
		t.Error("pretty output should not mention disabled participants")
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, results); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	records, err := csv.NewReader(&csvBuf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output is invalid: %v", err)
	}
	if len(records) != 6 {
		t.Errorf("expected 6 CSV records, got %d", len(records))
	}

	var jsonBuf bytes.Buffer
	if err := output.JSONFormat(&jsonBuf, results); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	var decoded calculator.CalculationResults
	if err := json.Unmarshal(jsonBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output is invalid: %v", err)
	}
	if decoded.Totals != results.Totals {
		t.Errorf("decoded totals %+v differ from %+v", decoded.Totals, results.Totals)
	}
}

// TestTransferThenRecalculate moves a buyer's entry date and checks that the
// recomputed portage price flows into the next calculation.
func TestTransferThenRecalculate(t *testing.T) {
	conf, _ := loadAndCalculate(t)

	params := *conf.FormulaParams
	updated, err := calculator.ApplyBuyerEntryDate(conf.Participants, "Annabelle", "2029-02-01", params)
	if err != nil {
		t.Fatalf("ApplyBuyerEntryDate() error = %v", err)
	}
	if conf.Participants[2].EntryDate != "2028-02-01" {
		t.Fatal("ApplyBuyerEntryDate should not modify its input")
	}

	scenario := conf.Scenario
	scenario.Participants = updated
	results, err := scenario.Calculate(zap.NewNop())
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	annabelle := testutil.FindParticipant(results, "Annabelle")
	if annabelle == nil {
		t.Fatal("Annabelle missing from results")
	}
	newPrice := updated[2].PurchaseDetails.PurchasePrice
	if annabelle.PurchaseShare != newPrice || newPrice == 180000 {
		t.Errorf("PurchaseShare = %.2f, expected the repriced %.2f", annabelle.PurchaseShare, newPrice)
	}
	if sold := updated[0].LotsOwned[1].SoldDate; sold != "2029-02-01" {
		t.Errorf("Manuela's lot sold on %q, expected 2029-02-01", sold)
	}
}

func TestExportRoundTrip(t *testing.T) {
	conf, results := loadAndCalculate(t)

	doc, err := export.Build(zap.NewNop(), conf.Scenario, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	data, err := export.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	loaded, err := export.Load(data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := export.Verify(zap.NewNop(), loaded); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
	if loaded.Calculations.Totals != results.Totals {
		t.Errorf("exported totals %+v differ from %+v", loaded.Calculations.Totals, results.Totals)
	}
}

// TestCoproprieteSaleRedistribution hands the proceeds of the copropriété
// sale to the founders present before the buyer arrived.
func TestCoproprieteSaleRedistribution(t *testing.T) {
	_, results := loadAndCalculate(t)

	colin := testutil.FindParticipant(results, "Colin")
	if colin == nil || colin.PortagePrice == nil {
		t.Fatalf("Colin should carry a copropriété price breakdown, got %+v", colin)
	}

	shares := []redistribution.Share{
		{Name: "Manuela", Surface: 140},
		{Name: "Cathy", Surface: 100},
	}
	split, err := redistribution.SplitCoproprieteSale(colin.PurchaseShare, 30, shares)
	if err != nil {
		t.Fatalf("SplitCoproprieteSale() error = %v", err)
	}

	total := split.Reserves
	for _, a := range split.Allocations {
		total += a.Amount
	}
	if math.Abs(total-colin.PurchaseShare) > 0.01 {
		t.Errorf("reserves and allocations sum to %.2f, expected %.2f", total, colin.PurchaseShare)
	}
	if split.Allocations[0].Amount <= split.Allocations[1].Amount {
		t.Error("the larger surface should receive the larger share")
	}
}
