package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
	"env-monitor/pkg/logging"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// methane-report prints the methane analysis for a CSV file without any storage
func main() {
	rangeFlag := flag.String("range", "all", "Number of most recent years to analyse, or \"all\"")
	refYear := flag.Int("reference-year", time.Now().UTC().Year(), "Year the range is counted back from")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: methane-report [-range all|N] [-reference-year YYYY] <methane.csv|->")
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger("env-monitor-report", "1.0.0", logging.WarnLevel)
	ctx := context.Background()

	window, err := aggregator.ParseYearWindow(*rangeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid range: %v\n", err)
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if path := flag.Arg(0); path != "-" {
		file, err := os.Open(path)
		if err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Failed to open dataset", logging.Fields{"path": path}, err)
		}
		defer file.Close()
		in = file
	}

	observations, stats, err := aggregator.ParseReader(in)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to read dataset", logging.Fields{}, err)
	}

	yearly := aggregator.FilterByRecentYears(aggregator.AggregateByYear(observations), window, *refYear)
	monthly := aggregator.AggregateByMonth(observations)
	analysis := aggregator.Analyze(yearly)

	printReport(stats, window, yearly, monthly, analysis)
}

func formatValue(v *float64, suffix string) string {
	if v == nil {
		return "Unavailable"
	}
	return fmt.Sprintf("%.2f%s", aggregator.Round2(*v), suffix)
}

func printReport(stats aggregator.ParseStats, window aggregator.YearWindow, yearly []models.YearlySummary, monthly []models.MonthlySummary, analysis aggregator.Analysis) {
	rule := strings.Repeat("=", 64)

	fmt.Println(rule)
	fmt.Println("METHANE ANALYSIS")
	fmt.Println(rule)
	fmt.Printf("Lines: %d  Accepted: %d  Discarded: %d  Range: %s\n\n",
		stats.TotalLines, stats.Accepted, stats.Discarded, window)

	fmt.Println("Yearly")
	fmt.Printf("  %-6s %12s %12s %12s\n", "Year", "Average", "Min", "Max")
	for _, s := range yearly {
		fmt.Printf("  %-6d %12.2f %12.2f %12.2f\n", s.Year, s.Average, s.Min, s.Max)
	}
	fmt.Println()

	fmt.Println("Seasonality")
	for _, m := range monthly {
		fmt.Printf("  %-4s %12.2f\n", monthNames[m.Month], m.Average)
	}
	fmt.Println()

	fmt.Println(rule)
	if !analysis.Available {
		fmt.Println("Insufficient data for analysis")
		return
	}
	fmt.Printf("Latest year:       %d (average %.2f)\n", analysis.LatestYear, aggregator.Round2(analysis.LatestAverage))
	fmt.Printf("Highest / lowest:  %.2f / %.2f\n", aggregator.Round2(analysis.Highest), aggregator.Round2(analysis.Lowest))
	fmt.Printf("Yearly change:     %s\n", formatValue(analysis.Trend.YearlyChange, ""))
	fmt.Printf("Percentage change: %s\n", formatValue(analysis.Trend.PercentageChange, "%"))
	if analysis.Direction != "" {
		fmt.Printf("Direction:         %s\n", analysis.Direction)
	}
}
