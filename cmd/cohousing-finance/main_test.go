package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/cohousing-finance/internal/config"
	"github.com/iwvelando/cohousing-finance/pkg/export"
	"github.com/xuri/excelize/v2"
)

const scenarioPath = "../../test/scenario.yaml"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	base := []string{"cohousing-finance", "--config", scenarioPath, "--log-level", "error"}
	err := newApp(&stdout).Run(append(base, args...))
	return stdout.String(), err
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "Defaults", config: config.LoggingConfig{}},
		{name: "Console debug", config: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "Override wins", config: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "Invalid level", config: config.LoggingConfig{Level: "bogus"}, wantErr: true},
		{name: "Invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
		{name: "Output file", config: config.LoggingConfig{OutputFile: filepath.Join(t.TempDir(), "logs", "app.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("initializeLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("expected a logger")
			}
		})
	}
}

func TestCalculateCommand(t *testing.T) {
	out, err := runApp(t, "calculate", "--output-format", "csv")
	if err != nil {
		t.Fatalf("calculate error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected header, 4 participants and totals, got %d records", len(records))
	}
	if records[0][0] != "name" || records[5][0] != "TOTAL" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestCalculateIsDefaultCommand(t *testing.T) {
	out, err := runApp(t)
	if err != nil {
		t.Fatalf("default command error = %v", err)
	}
	if !strings.Contains(out, "--- Project ---") {
		t.Errorf("expected the pretty report, got %q", out)
	}
}

func TestCalculateRejectsUnknownFormat(t *testing.T) {
	if _, err := runApp(t, "calculate", "--output-format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown output format")
	}
}

func TestMissingConfiguration(t *testing.T) {
	var stdout bytes.Buffer
	err := newApp(&stdout).Run([]string{"cohousing-finance", "--config", "missing.yaml", "calculate"})
	if err == nil || !strings.Contains(err.Error(), "failed to load configuration") {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := runApp(t, "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "Dormant is disabled") {
		t.Errorf("expected a warning about Dormant, got %q", out)
	}
}

func TestScheduleCommand(t *testing.T) {
	out, err := runApp(t, "schedule", "--participant", "Manuela")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 301 {
		t.Fatalf("expected header and 300 payments, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "1,2026-02-01,") {
		t.Errorf("unexpected first payment %q", lines[1])
	}

	if _, err := runApp(t, "schedule", "--participant", "Nobody"); err == nil {
		t.Error("expected an error for an unknown participant")
	}
}

func TestExportAndVerifyCommands(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "scenario.json")

	if _, err := runApp(t, "export", "--out", jsonPath); err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	doc, err := export.Load(data)
	if err != nil {
		t.Fatalf("export.Load() error = %v", err)
	}

	out, err := runApp(t, "verify", jsonPath)
	if err != nil {
		t.Fatalf("verify error = %v", err)
	}
	if !strings.Contains(out, doc.ExportID) {
		t.Errorf("expected verify to name the export, got %q", out)
	}

	doc.Calculations.PricePerM2 *= 2
	tampered, err := export.Marshal(doc)
	if err != nil {
		t.Fatalf("export.Marshal() error = %v", err)
	}
	if err := os.WriteFile(jsonPath, tampered, 0600); err != nil {
		t.Fatalf("failed to write tampered export: %v", err)
	}
	if _, err := runApp(t, "verify", jsonPath); err == nil {
		t.Error("expected verify to reject a tampered export")
	}

	if _, err := runApp(t, "verify"); err == nil {
		t.Error("expected an error without an export file")
	}
}

func TestExportWorkbookCommand(t *testing.T) {
	xlsxPath := filepath.Join(t.TempDir(), "scenario.xlsx")
	if _, err := runApp(t, "export", "--out", xlsxPath); err != nil {
		t.Fatalf("export error = %v", err)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != export.ParticipantsSheet {
		t.Errorf("unexpected sheets %v", sheets)
	}
}

func TestExportReportsWriteFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := runApp(t, "export", "--out", dir); err == nil {
		t.Error("expected an error when the destination is a directory")
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full is not available")
	}
	if _, err := runApp(t, "export", "--out", "/dev/full"); err == nil {
		t.Error("expected an error when the device is full")
	}
}
