// Package aggregator turns raw methane dataset lines into yearly and monthly
// summaries and first-to-last trend estimates.
//
// Every function here is pure: inputs are never mutated and no state is shared,
// so callers may invoke them concurrently.
package aggregator

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"env-monitor/internal/models"
)

// ParseStats counts what happened to each input line
type ParseStats struct {
	TotalLines int
	Accepted   int
	Discarded  int
}

// Parse converts dataset lines into observations sorted by timestamp.
// Malformed lines are dropped without error.
func Parse(lines []string) []models.Observation {
	observations, _ := parseLines(lines)
	return observations
}

// ParseReader reads newline separated records from r. Lines have no length
// limit. The returned error is only set when r itself fails.
func ParseReader(r io.Reader) ([]models.Observation, ParseStats, error) {
	var lines []string

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ParseStats{}, fmt.Errorf("failed to read dataset: %w", err)
		}
	}

	observations, stats := parseLines(lines)
	return observations, stats, nil
}

func parseLines(lines []string) ([]models.Observation, ParseStats) {
	stats := ParseStats{}
	observations := make([]models.Observation, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.TotalLines++

		record, ok := models.SplitRawMethaneRecord(line)
		if !ok {
			stats.Discarded++
			continue
		}

		obs, err := record.ToObservation()
		if err != nil {
			stats.Discarded++
			continue
		}

		observations = append(observations, obs)
	}

	stats.Accepted = len(observations)

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].ObservedAt.Before(observations[j].ObservedAt)
	})

	return observations, stats
}

// AggregateByYear groups observations by UTC calendar year.
// Summaries follow the order in which each year first appears, so callers
// relying on ascending years must pass time-sorted input (as Parse returns).
func AggregateByYear(observations []models.Observation) []models.YearlySummary {
	index := make(map[int]int)
	counts := make([]int, 0)
	summaries := make([]models.YearlySummary, 0)

	for _, obs := range observations {
		year := obs.ObservedAt.UTC().Year()
		i, ok := index[year]
		if !ok {
			i = len(summaries)
			index[year] = i
			summaries = append(summaries, models.YearlySummary{
				Year: year,
				Min:  obs.Measurement,
				Max:  obs.Measurement,
			})
			counts = append(counts, 0)
		}

		s := &summaries[i]
		counts[i]++
		s.Average += (obs.Measurement - s.Average) / float64(counts[i])
		if obs.Measurement < s.Min {
			s.Min = obs.Measurement
		}
		if obs.Measurement > s.Max {
			s.Max = obs.Measurement
		}
	}

	// rounding must not push the mean outside the observed range
	for i := range summaries {
		s := &summaries[i]
		s.Average = math.Max(s.Min, math.Min(s.Max, s.Average))
	}

	return summaries
}

// AggregateByMonth averages observations per calendar month across all years.
// The result is sorted by month (January = 0) regardless of input order.
func AggregateByMonth(observations []models.Observation) []models.MonthlySummary {
	var sums [12]float64
	var counts [12]int

	for _, obs := range observations {
		month := int(obs.ObservedAt.UTC().Month()) - 1
		sums[month] += obs.Measurement
		counts[month]++
	}

	summaries := make([]models.MonthlySummary, 0, 12)
	for month := 0; month < 12; month++ {
		if counts[month] == 0 {
			continue
		}
		summaries = append(summaries, models.MonthlySummary{
			Month:   month,
			Average: sums[month] / float64(counts[month]),
		})
	}

	return summaries
}

// ComputeTrend estimates the yearly change between the first and last summary.
// Both values are nil when fewer than two summaries are given or the span is
// zero years; PercentageChange alone is nil when the first average is zero.
func ComputeTrend(summaries []models.YearlySummary) models.TrendResult {
	if len(summaries) < 2 {
		return models.TrendResult{}
	}

	first := summaries[0]
	last := summaries[len(summaries)-1]

	totalYears := last.Year - first.Year
	if totalYears == 0 {
		return models.TrendResult{}
	}

	yearlyChange := (last.Average - first.Average) / float64(totalYears)
	result := models.TrendResult{YearlyChange: &yearlyChange}

	if first.Average != 0 {
		percentageChange := (yearlyChange / first.Average) * 100
		result.PercentageChange = &percentageChange
	}

	return result
}
