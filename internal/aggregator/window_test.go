package aggregator

import (
	"testing"

	"env-monitor/internal/models"
)

func TestParseYearWindow(t *testing.T) {
	tests := []struct {
		input   string
		want    YearWindow
		wantErr bool
	}{
		{"all", AllYears, false},
		{"ALL", AllYears, false},
		{"", AllYears, false},
		{"3", 3, false},
		{" 5 ", 5, false},
		{"0", AllYears, true},
		{"-2", AllYears, true},
		{"five", AllYears, true},
	}

	for _, tt := range tests {
		got, err := ParseYearWindow(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseYearWindow(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil {
			if _, ok := err.(*models.ValidationError); !ok {
				t.Errorf("ParseYearWindow(%q) error type = %T", tt.input, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseYearWindow(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFilterByRecentYears(t *testing.T) {
	summaries := []models.YearlySummary{
		{Year: 2018}, {Year: 2019}, {Year: 2020}, {Year: 2021}, {Year: 2022}, {Year: 2023},
	}

	t.Run("all returns input unchanged", func(t *testing.T) {
		got := FilterByRecentYears(summaries, AllYears, 2023)
		if len(got) != len(summaries) {
			t.Fatalf("len = %d, want %d", len(got), len(summaries))
		}
		if &got[0] != &summaries[0] {
			t.Error("expected the same backing slice for AllYears")
		}
	})

	t.Run("last three years", func(t *testing.T) {
		window, err := ParseYearWindow("3")
		if err != nil {
			t.Fatalf("ParseYearWindow() error = %v", err)
		}

		got := FilterByRecentYears(summaries, window, 2023)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		for _, s := range got {
			if s.Year < 2021 {
				t.Errorf("unexpected year %d", s.Year)
			}
		}
	})

	t.Run("window beyond data", func(t *testing.T) {
		got := FilterByRecentYears(summaries, 5, 2030)
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		_ = FilterByRecentYears(summaries, 1, 2023)
		if len(summaries) != 6 || summaries[0].Year != 2018 {
			t.Error("input was modified")
		}
	})
}

func TestYearWindowString(t *testing.T) {
	if AllYears.String() != "all" {
		t.Errorf("AllYears.String() = %q", AllYears.String())
	}
	if YearWindow(5).String() != "5" {
		t.Errorf("YearWindow(5).String() = %q", YearWindow(5).String())
	}
}
