package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Observation represents a single timestamped methane measurement
type Observation struct {
	ID          string    `json:"id,omitempty" db:"id"`
	ObservedAt  time.Time `json:"observed_at" db:"observed_at"`
	Location    string    `json:"location,omitempty" db:"location"`
	Measurement float64   `json:"measurement" db:"measurement"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}

// YearlySummary holds aggregate statistics for one calendar year
type YearlySummary struct {
	Year    int     `json:"year"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// MonthlySummary holds the average for one calendar month across all years.
// Month is zero based (January = 0).
type MonthlySummary struct {
	Month   int     `json:"month"`
	Average float64 `json:"average"`
}

// TrendResult is a first-to-last linear change estimate.
// A nil field means the value is unavailable.
type TrendResult struct {
	YearlyChange     *float64 `json:"yearly_change"`
	PercentageChange *float64 `json:"percentage_change"`
}

// Available reports whether a yearly change could be computed
func (t TrendResult) Available() bool {
	return t.YearlyChange != nil
}

// RawMethaneRecord represents a single line from a methane dataset.
// Location may contain commas; it is everything between the first and last comma.
type RawMethaneRecord struct {
	Timestamp   string
	Location    string
	Measurement string
}

// timestampLayouts are tried in order when parsing RawMethaneRecord timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// SplitRawMethaneRecord splits a line on its first and last comma.
// ok is false when the line has fewer than two commas.
func SplitRawMethaneRecord(line string) (RawMethaneRecord, bool) {
	first := strings.IndexByte(line, ',')
	last := strings.LastIndexByte(line, ',')
	if first < 0 || first == last {
		return RawMethaneRecord{}, false
	}

	return RawMethaneRecord{
		Timestamp:   line[:first],
		Location:    line[first+1 : last],
		Measurement: line[last+1:],
	}, true
}

// ToObservation converts a RawMethaneRecord to an Observation.
// Measurements must parse to a finite number; timestamps are normalised to UTC.
func (r RawMethaneRecord) ToObservation() (Observation, error) {
	raw := strings.TrimSpace(r.Measurement)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Observation{}, &ValidationError{
			Field:   "measurement",
			Value:   raw,
			Message: "measurement is not a finite number",
		}
	}

	ts := strings.TrimSpace(r.Timestamp)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return Observation{
				ObservedAt:  parsed.UTC(),
				Location:    strings.TrimSpace(r.Location),
				Measurement: value,
			}, nil
		}
	}

	return Observation{}, &ValidationError{
		Field:   "timestamp",
		Value:   ts,
		Message: "invalid timestamp format, expected ISO-8601",
	}
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
