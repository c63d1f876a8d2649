// Package greenhouse serves the static greenhouse gas report.
package greenhouse

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
)

//go:embed report.yaml
var defaultReport []byte

// Share is a named percentage slice
type Share struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// MonthlyEmission holds the emissions of each gas for one month
type MonthlyEmission struct {
	Month string  `json:"month" yaml:"month"`
	CO2   float64 `json:"co2" yaml:"CO2"`
	CH4   float64 `json:"ch4" yaml:"CH4"`
	N2O   float64 `json:"n2o" yaml:"N2O"`
}

// AnnualValue is one point of the annual trend series
type AnnualValue struct {
	Year  int     `json:"year" yaml:"year"`
	Value float64 `json:"value" yaml:"value"`
}

// ReductionEffort is the cost of one emission reduction project
type ReductionEffort struct {
	Platform string  `json:"platform" yaml:"platform"`
	Cost     float64 `json:"cost" yaml:"cost"`
}

// Report is the full greenhouse gas report
type Report struct {
	ConcentrationLevels  []Share            `json:"concentration_levels" yaml:"concentration_levels"`
	MonthlyEmissions     []MonthlyEmission  `json:"monthly_emissions" yaml:"monthly_emissions"`
	AnnualTrends         []AnnualValue      `json:"annual_trends" yaml:"annual_trends"`
	SectoralDistribution []Share            `json:"sectoral_distribution" yaml:"sectoral_distribution"`
	ReductionEfforts     []ReductionEffort  `json:"reduction_efforts" yaml:"reduction_efforts"`
	AnnualTrend          models.TrendResult `json:"annual_trend" yaml:"-"`
}

// DefaultReport returns the built-in report
func DefaultReport() (*Report, error) {
	return ParseReport(defaultReport)
}

// ParseReport decodes a YAML report and computes its annual trend
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse greenhouse report: %w", err)
	}

	for i := 1; i < len(r.AnnualTrends); i++ {
		if r.AnnualTrends[i].Year <= r.AnnualTrends[i-1].Year {
			return nil, fmt.Errorf("annual trends must be in ascending year order, got %d after %d",
				r.AnnualTrends[i].Year, r.AnnualTrends[i-1].Year)
		}
	}

	r.AnnualTrend = aggregator.ComputeTrend(r.annualSummaries())
	return &r, nil
}

func (r *Report) annualSummaries() []models.YearlySummary {
	summaries := make([]models.YearlySummary, len(r.AnnualTrends))
	for i, v := range r.AnnualTrends {
		summaries[i] = models.YearlySummary{Year: v.Year, Average: v.Value, Min: v.Value, Max: v.Value}
	}
	return summaries
}
