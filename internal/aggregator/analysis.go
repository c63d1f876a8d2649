package aggregator

import (
	"math"

	"env-monitor/internal/models"
)

// Direction labels the sign of a percentage trend
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionStable   Direction = "stable"
)

// Analysis is the headline report over a window of yearly summaries
type Analysis struct {
	Available     bool               `json:"available"`
	LatestYear    int                `json:"latest_year,omitempty"`
	LatestAverage float64            `json:"latest_average"`
	Highest       float64            `json:"highest"`
	Lowest        float64            `json:"lowest"`
	Trend         models.TrendResult `json:"trend"`
	Direction     Direction          `json:"direction,omitempty"`
}

// Analyze summarises the latest year, the extremes and the trend.
// An empty input yields Available == false.
func Analyze(summaries []models.YearlySummary) Analysis {
	if len(summaries) == 0 {
		return Analysis{}
	}

	latest := summaries[len(summaries)-1]
	analysis := Analysis{
		Available:     true,
		LatestYear:    latest.Year,
		LatestAverage: latest.Average,
		Highest:       math.Inf(-1),
		Lowest:        math.Inf(1),
		Trend:         ComputeTrend(summaries),
	}

	for _, s := range summaries {
		analysis.Highest = math.Max(analysis.Highest, s.Max)
		analysis.Lowest = math.Min(analysis.Lowest, s.Min)
	}

	if pct := analysis.Trend.PercentageChange; pct != nil {
		switch {
		case *pct > 0:
			analysis.Direction = DirectionIncrease
		case *pct < 0:
			analysis.Direction = DirectionDecrease
		default:
			analysis.Direction = DirectionStable
		}
	}

	return analysis
}

// Round2 rounds to two decimal places for display
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
