// Package sensors holds the gas sensor catalogue and the board of latest
// readings per region.
package sensors

import (
	_ "embed"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gopkg.in/yaml.v3"

	"env-monitor/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog lists the monitored gases and regions
type Catalog struct {
	Gases   []models.GasType `json:"gases" yaml:"gases"`
	Regions []string         `json:"regions" yaml:"regions"`
}

// DefaultCatalog returns the built-in Oman catalogue
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes a YAML catalogue and checks it for duplicates
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse sensor catalog: %w", err)
	}

	if len(c.Gases) == 0 || len(c.Regions) == 0 {
		return nil, fmt.Errorf("sensor catalog needs at least one gas and one region")
	}

	seen := make(map[string]bool)
	for _, g := range c.Gases {
		if g.Name == "" || g.MaxLimit <= 0 {
			return nil, fmt.Errorf("invalid gas entry %+v", g)
		}
		if seen["gas:"+g.Name] {
			return nil, fmt.Errorf("duplicate gas %q", g.Name)
		}
		seen["gas:"+g.Name] = true
	}
	for _, r := range c.Regions {
		if r == "" || seen["region:"+r] {
			return nil, fmt.Errorf("invalid or duplicate region %q", r)
		}
		seen["region:"+r] = true
	}

	return &c, nil
}

// Gas looks up a gas type by name
func (c *Catalog) Gas(name string) (models.GasType, bool) {
	for _, g := range c.Gases {
		if g.Name == name {
			return g, true
		}
	}
	return models.GasType{}, false
}

// HasRegion reports whether region is in the catalogue
func (c *Catalog) HasRegion(region string) bool {
	for _, r := range c.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// GasNames returns the gas names in catalogue order
func (c *Catalog) GasNames() []string {
	names := make([]string, len(c.Gases))
	for i, g := range c.Gases {
		names[i] = g.Name
	}
	return names
}

// SimulateReadings produces one random reading per gas for each region,
// uniformly in [0, maxLimit) and rounded down as the dashboard did.
func (c *Catalog) SimulateReadings(rng *rand.Rand, regions []string, at time.Time) []*models.GasReading {
	readings := make([]*models.GasReading, 0, len(regions)*len(c.Gases))
	for _, region := range regions {
		for _, gas := range c.Gases {
			readings = append(readings, &models.GasReading{
				Region:     region,
				Gas:        gas.Name,
				Value:      math.Floor(rng.Float64() * gas.MaxLimit),
				RecordedAt: at,
			})
		}
	}
	return readings
}
