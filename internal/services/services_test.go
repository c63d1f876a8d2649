package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
	"env-monitor/internal/repository"
	"env-monitor/internal/sensors"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

func newCollector() *metrics.Collector {
	return metrics.NewCollector("env_monitor_test", prometheus.NewRegistry())
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
}

const methaneCSV = `2020-01-15T00:00:00.000Z,,10
2020-06-15T00:00:00.000Z,POLYGON((1 2,3 4)),30
2021-01-15T00:00:00.000Z,,50
not a record
2021-02-01T00:00:00.000Z,,abc
`

func TestIngestionService_IngestReader(t *testing.T) {
	repo := repository.NewMemoryRepository()
	collector := newCollector()
	svc := NewIngestionService(repo, logging.NewDiscardLogger(), collector)

	result, err := svc.IngestReader(context.Background(), strings.NewReader(methaneCSV), 2)
	if err != nil {
		t.Fatalf("IngestReader() error = %v", err)
	}

	checkValues := func(name string, got, want int) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	checkValues("TotalLines", result.TotalLines, 5)
	checkValues("Accepted", result.Accepted, 3)
	checkValues("Discarded", result.Discarded, 2)
	checkValues("Batches", result.Batches, 2)

	count, _ := repo.CountObservations(context.Background())
	checkValues("stored", count, 3)

	if got := testutil.ToFloat64(collector.IngestionRecordsTotal); got != 3 {
		t.Errorf("records metric = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.IngestionDiscardedTotal); got != 2 {
		t.Errorf("discarded metric = %v, want 2", got)
	}
}

func TestIngestionService_IngestFile(t *testing.T) {
	svc := NewIngestionService(repository.NewMemoryRepository(), logging.NewDiscardLogger(), newCollector())

	path := filepath.Join(t.TempDir(), "methane.csv")
	if err := os.WriteFile(path, []byte(methaneCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := svc.IngestFile(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if result.Accepted != 3 || result.Batches != 1 || result.Source != path {
		t.Errorf("unexpected result %+v", result)
	}

	if _, err := svc.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), 10); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngestionService_SeedIfEmpty(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewIngestionService(repo, logging.NewDiscardLogger(), newCollector())
	ctx := context.Background()

	seeded, err := svc.SeedIfEmpty(ctx)
	if err != nil || !seeded {
		t.Fatalf("SeedIfEmpty() = %v, %v; want true, nil", seeded, err)
	}

	observations, _ := repo.ListObservations(ctx, repository.ObservationFilter{})
	if len(observations) != 3 {
		t.Fatalf("len = %d, want 3", len(observations))
	}
	if observations[0].Measurement != 1820.4945296966437 || !strings.HasPrefix(observations[0].Location, "POLYGON((") {
		t.Errorf("first observation = %+v", observations[0])
	}

	seeded, err = svc.SeedIfEmpty(ctx)
	if err != nil || seeded {
		t.Errorf("second SeedIfEmpty() = %v, %v; want false, nil", seeded, err)
	}
}

func TestMethaneService_Views(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	collector := newCollector()

	ingest := NewIngestionService(repo, logging.NewDiscardLogger(), collector)
	if _, err := ingest.IngestReader(ctx, strings.NewReader(methaneCSV), 10); err != nil {
		t.Fatal(err)
	}

	svc := NewMethaneService(repo, logging.NewDiscardLogger(), collector, fixedClock(2021))

	yearly, err := svc.Yearly(ctx, aggregator.AllYears)
	if err != nil {
		t.Fatalf("Yearly() error = %v", err)
	}
	want := []models.YearlySummary{
		{Year: 2020, Average: 20, Min: 10, Max: 30},
		{Year: 2021, Average: 50, Min: 50, Max: 50},
	}
	if len(yearly) != len(want) {
		t.Fatalf("yearly = %+v", yearly)
	}
	for i := range want {
		if yearly[i] != want[i] {
			t.Errorf("yearly[%d] = %+v, want %+v", i, yearly[i], want[i])
		}
	}

	recent, _ := svc.Yearly(ctx, aggregator.YearWindow(1))
	if len(recent) != 1 || recent[0].Year != 2021 {
		t.Errorf("Yearly(1) = %+v", recent)
	}

	monthly, _ := svc.Monthly(ctx)
	if len(monthly) != 2 || monthly[0].Month != 0 || monthly[0].Average != 30 || monthly[1].Month != 5 {
		t.Errorf("Monthly() = %+v", monthly)
	}

	trend, _ := svc.Trend(ctx, aggregator.AllYears)
	if trend.YearlyChange == nil || *trend.YearlyChange != 30 || trend.PercentageChange == nil || *trend.PercentageChange != 150 {
		t.Errorf("Trend() = %+v", trend)
	}

	analysis, _ := svc.Analysis(ctx, aggregator.AllYears)
	if !analysis.Available || analysis.Direction != aggregator.DirectionIncrease || analysis.Highest != 50 || analysis.Lowest != 10 {
		t.Errorf("Analysis() = %+v", analysis)
	}

	if got := testutil.ToFloat64(collector.DatasetObservations); got != 3 {
		t.Errorf("dataset gauge = %v, want 3", got)
	}
}

func TestMethaneService_Reload(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	collector := newCollector()
	svc := NewMethaneService(repo, logging.NewDiscardLogger(), collector, fixedClock(2021))

	analysis, err := svc.Analysis(ctx, aggregator.AllYears)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Available {
		t.Error("empty dataset should not be available")
	}

	repo.SaveObservations(ctx, []models.Observation{
		{ObservedAt: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Measurement: 5},
	})

	// cached until reloaded
	if yearly, _ := svc.Yearly(ctx, aggregator.AllYears); len(yearly) != 0 {
		t.Errorf("cached yearly = %+v, want empty", yearly)
	}

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if yearly, _ := svc.Yearly(ctx, aggregator.AllYears); len(yearly) != 1 {
		t.Errorf("reloaded yearly = %+v, want one year", yearly)
	}
	if got := testutil.ToFloat64(collector.DatasetObservations); got != 1 {
		t.Errorf("dataset gauge = %v, want 1", got)
	}
}

func newSensorService(t *testing.T, repo repository.Repository) *SensorService {
	t.Helper()
	catalog, err := sensors.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	return NewSensorService(repo, catalog, logging.NewDiscardLogger(), newCollector(), rand.New(rand.NewSource(7)), fixedClock(2024))
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestSensorService_AddReading(t *testing.T) {
	svc := newSensorService(t, repository.NewMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name      string
		req       ReadingRequest
		wantField string
	}{
		{name: "valid", req: ReadingRequest{Region: "Muscat", Gas: "CO2", Value: floatPtr(1500)}},
		{name: "zero value", req: ReadingRequest{Region: "Dhofar", Gas: "O3", Value: floatPtr(0)}},
		{name: "missing region", req: ReadingRequest{Gas: "CO2", Value: floatPtr(1)}, wantField: "region"},
		{name: "missing value", req: ReadingRequest{Region: "Muscat", Gas: "CO2"}, wantField: "value"},
		{name: "unknown region", req: ReadingRequest{Region: "Dubai", Gas: "CO2", Value: floatPtr(1)}, wantField: "region"},
		{name: "unknown gas", req: ReadingRequest{Region: "Muscat", Gas: "SO2", Value: floatPtr(1)}, wantField: "gas"},
		{name: "not finite", req: ReadingRequest{Region: "Muscat", Gas: "CO2", Value: floatPtr(math.Inf(1))}, wantField: "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := svc.AddReading(ctx, tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("AddReading() error = %v", err)
				}
				if reading.ID == "" || !reading.Manual || reading.Value != *tt.req.Value {
					t.Errorf("unexpected reading %+v", reading)
				}
				return
			}

			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("AddReading() error = %v, want ValidationError", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.wantField)
			}
		})
	}
}

func TestSensorService_BoardAndRefresh(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newSensorService(t, repo)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	rows, err := svc.Board(ctx, sensors.Selection{})
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if len(rows) != 11 {
		t.Fatalf("rows = %d, want 11", len(rows))
	}
	for _, row := range rows {
		if len(row.Levels) != 4 {
			t.Errorf("%s has %d levels, want 4", row.Region, len(row.Levels))
		}
	}

	// a manual reading replaces the value and freezes the region against refresh
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 1, 0, 0, time.UTC) }
	if _, err := svc.AddReading(ctx, ReadingRequest{Region: "Muscat", Gas: "CO2", Value: floatPtr(1500)}); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 2, 0, 0, time.UTC) }
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	rows, _ = svc.Board(ctx, sensors.Selection{Regions: []string{"Muscat"}, Gases: []string{"CO2"}})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	level := rows[0].Levels["CO2"]
	if level.Value != 1500 || !level.ExceedsLimit || level.Unit != "ppm" {
		t.Errorf("Muscat CO2 = %+v, want manual 1500 exceeding limit", level)
	}

	latest, _ := repo.LatestReadings(ctx)
	refreshed := 0
	for _, r := range latest {
		if r.Region == "Dhofar" && r.RecordedAt.Minute() == 2 {
			refreshed++
		}
		if r.Region == "Muscat" && r.RecordedAt.Minute() == 2 {
			t.Errorf("Muscat %s was refreshed despite a manual reading", r.Gas)
		}
	}
	if refreshed != 4 {
		t.Errorf("refreshed Dhofar readings = %d, want 4", refreshed)
	}

	if _, err := svc.Board(ctx, sensors.Selection{Gases: []string{"SO2"}}); err == nil {
		t.Error("expected error for unknown gas selection")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_Disabled(t *testing.T) {
	svc := newSensorService(t, repository.NewMemoryRepository())
	scheduler := NewScheduler(logging.NewDiscardLogger())

	if err := scheduler.Every("sensor_refresh", 0, svc.Refresh); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	scheduler.Start()
	scheduler.Stop()
}

func TestScheduler_SensorRefresh(t *testing.T) {
	catalog, err := sensors.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	collector := newCollector()
	svc := NewSensorService(repository.NewMemoryRepository(), catalog, logging.NewDiscardLogger(), collector, rand.New(rand.NewSource(7)), fixedClock(2024))

	scheduler := NewScheduler(logging.NewDiscardLogger())
	if err := scheduler.Every("sensor_refresh", 50*time.Millisecond, svc.Refresh); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 5*time.Second, func() bool {
		return testutil.ToFloat64(collector.SensorRefreshTotal) >= 2
	})
}

func TestScheduler_DatasetReload(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	svc := NewMethaneService(repo, logging.NewDiscardLogger(), newCollector(), fixedClock(2021))

	if yearly, _ := svc.Yearly(ctx, aggregator.AllYears); len(yearly) != 0 {
		t.Fatalf("yearly = %+v, want empty", yearly)
	}

	scheduler := NewScheduler(logging.NewDiscardLogger())
	if err := scheduler.Every("dataset_reload", 50*time.Millisecond, svc.Reload); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// written by another process sharing the database
	if err := repo.SaveObservations(ctx, []models.Observation{
		{ObservedAt: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Measurement: 5},
	}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool {
		yearly, err := svc.Yearly(ctx, aggregator.AllYears)
		return err == nil && len(yearly) == 1
	})
}
