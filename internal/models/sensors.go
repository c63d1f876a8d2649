package models

import "time"

// GasType describes a monitored gas and the upper bound used for simulated readings
type GasType struct {
	Name     string  `json:"name" yaml:"name"`
	MaxLimit float64 `json:"max_limit" yaml:"max_limit"`
	Unit     string  `json:"unit" yaml:"unit"`
}

// GasReading is a single sensor value for one region and gas
type GasReading struct {
	ID         string    `json:"id" db:"id"`
	Region     string    `json:"region" db:"region"`
	Gas        string    `json:"gas" db:"gas"`
	Value      float64   `json:"value" db:"value"`
	Manual     bool      `json:"manual" db:"manual"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// GasLevel is one cell of the sensor board
type GasLevel struct {
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	ExceedsLimit bool    `json:"exceeds_limit"`
}

// SensorRow is the set of latest gas levels for one region
type SensorRow struct {
	Region string              `json:"region"`
	Levels map[string]GasLevel `json:"levels"`
}
