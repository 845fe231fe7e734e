package datetime

import (
	"math"
	"testing"
	"time"
)

func TestMustParseTime(t *testing.T) {
	result := MustParseTime(DateLayout, "2026-02-01")
	if result.Format(DateLayout) != "2026-02-01" {
		t.Errorf("MustParseTime() = %s, expected 2026-02-01", result.Format(DateLayout))
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "invalid-date")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"Calendar date", "2026-02-01", "2026-02-01", true},
		{"Surrounding whitespace", "  2026-02-01 ", "2026-02-01", true},
		{"RFC 3339 timestamp", "2026-02-01T15:04:05Z", "2026-02-01", true},
		{"Month only", "2027-06", "2027-06-01", true},
		{"Empty", "", "", false},
		{"Garbage", "not a date", "", false},
		{"Invalid day", "2026-02-31", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if ok && Format(got) != tt.expected {
				t.Errorf("ParseDate(%q) = %s, expected %s", tt.input, Format(got), tt.expected)
			}
		})
	}
}

func TestYearsHeld(t *testing.T) {
	deed := MustParseTime(DateLayout, "2026-02-01")
	tests := []struct {
		name     string
		to       string
		expected float64
	}{
		{"Same day", "2026-02-01", 0},
		{"One year", "2027-02-01", 365.0 / 365.25},
		{"Leap-spanning two years", "2028-02-01", 730.0 / 365.25},
		{"Before reference clamps to zero", "2025-02-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearsHeld(deed, MustParseTime(DateLayout, tt.to))
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("YearsHeld() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMonthsHeld(t *testing.T) {
	from := MustParseTime(DateLayout, "2026-01-01")
	to := from.AddDate(2, 0, 0)
	got := MonthsHeld(from, to)
	if math.Abs(got-24) > 0.05 {
		t.Errorf("MonthsHeld() = %v, expected about 24", got)
	}
}

func TestCalculateYearsHeld(t *testing.T) {
	tests := []struct {
		name    string
		deed    string
		entry   string
		ok      bool
		atLeast float64
	}{
		{"Both dates valid", "2026-02-01", "2028-02-01", true, 1.99},
		{"Entry before deed", "2026-02-01", "2025-01-01", true, 0},
		{"Missing deed", "", "2028-02-01", false, 0},
		{"Unparsable entry", "2026-02-01", "soon", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years, ok := CalculateYearsHeld(tt.deed, tt.entry)
			if ok != tt.ok {
				t.Fatalf("CalculateYearsHeld() ok = %v, expected %v", ok, tt.ok)
			}
			if years < tt.atLeast {
				t.Errorf("CalculateYearsHeld() = %v, expected at least %v", years, tt.atLeast)
			}
			if math.IsNaN(years) || years < 0 {
				t.Errorf("CalculateYearsHeld() returned invalid value %v", years)
			}
		})
	}
}

func TestDayComparisons(t *testing.T) {
	a := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	if !OnOrBefore(b, a) {
		t.Error("same day should count as on-or-before")
	}
	if OnOrBefore(a.AddDate(0, 0, 1), a) {
		t.Error("next day is not on-or-before")
	}
}

func TestOffsetDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
		wantErr  bool
	}{
		{"Add multiple years", "2025-01-15", 24, "2027-01-15", false},
		{"Subtract a year", "2025-01-15", -12, "2024-01-15", false},
		{"Cross year boundary forward", "2025-06-01", 8, "2026-02-01", false},
		{"Invalid date", "invalid", 1, "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, DateLayout, tt.months)
			if (err != nil) != tt.wantErr {
				t.Errorf("OffsetDate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %s, expected %s", result, tt.expected)
			}
		})
	}
}
