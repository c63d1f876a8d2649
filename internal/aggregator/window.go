package aggregator

import (
	"strconv"
	"strings"

	"env-monitor/internal/models"
)

// YearWindow is the number of most recent years to keep; AllYears keeps everything
type YearWindow int

// AllYears disables year filtering
const AllYears YearWindow = 0

// String returns "all" or the number of years
func (w YearWindow) String() string {
	if w == AllYears {
		return "all"
	}
	return strconv.Itoa(int(w))
}

// ParseYearWindow accepts "all" (or an empty string) or a positive integer
func ParseYearWindow(s string) (YearWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllYears, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return AllYears, &models.ValidationError{
			Field:   "range",
			Value:   s,
			Message: "invalid range, expected \"all\" or a positive number of years",
		}
	}

	return YearWindow(n), nil
}

// FilterByRecentYears keeps summaries with Year >= referenceYear-window+1.
// With AllYears the input slice is returned as is.
func FilterByRecentYears(summaries []models.YearlySummary, window YearWindow, referenceYear int) []models.YearlySummary {
	if window == AllYears {
		return summaries
	}

	cutoff := referenceYear - int(window) + 1
	filtered := make([]models.YearlySummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Year >= cutoff {
			filtered = append(filtered, s)
		}
	}

	return filtered
}
