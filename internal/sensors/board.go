package sensors

import "env-monitor/internal/models"

// Selection restricts the board to some regions and gases.
// An empty list selects everything.
type Selection struct {
	Regions []string
	Gases   []string
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Board arranges the latest readings into one row per selected region,
// following catalogue order. Regions without readings get an empty row.
func (c *Catalog) Board(latest []models.GasReading, sel Selection) []models.SensorRow {
	byRegion := make(map[string][]models.GasReading)
	for _, r := range latest {
		byRegion[r.Region] = append(byRegion[r.Region], r)
	}

	rows := make([]models.SensorRow, 0, len(c.Regions))
	for _, region := range c.Regions {
		if len(sel.Regions) > 0 && !contains(sel.Regions, region) {
			continue
		}

		row := models.SensorRow{
			Region: region,
			Levels: make(map[string]models.GasLevel),
		}
		for _, reading := range byRegion[region] {
			if len(sel.Gases) > 0 && !contains(sel.Gases, reading.Gas) {
				continue
			}
			gas, ok := c.Gas(reading.Gas)
			if !ok {
				continue
			}
			row.Levels[reading.Gas] = models.GasLevel{
				Value:        reading.Value,
				Unit:         gas.Unit,
				ExceedsLimit: reading.Value > gas.MaxLimit,
			}
		}
		rows = append(rows, row)
	}

	return rows
}
