// Package ingest builds a schedenv.Environment for one asset from its
// configured horizon and CSV extracts, the same "load once at startup"
// responsibility cmd/warren/main.go's storage-initialization block performs
// for its raft store, generalized to the scheduler's file-based inputs.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oceanridge/ordinator/internal/config"
	"github.com/oceanridge/ordinator/internal/exportio"
	"github.com/oceanridge/ordinator/internal/schedenv"
)

// defaultHorizonPeriods is used when time_inputs.toml sets a tier's horizon
// to zero (file absent or field omitted).
const defaultHorizonPeriods = 26

// AssetEnvironment reads <dataDir>/<asset>/work_orders.csv and
// <dataDir>/<asset>/technicians.csv and builds a fully populated
// schedenv.Environment over a period/day horizon
// sized from cfg.TimeInputs, anchored at the start of the day of the
// earlier of time.Now() and the earliest non-zero EarliestAllowedStart
// among the asset's work orders.
func AssetEnvironment(cfg *config.SystemConfigurations, dataDir, asset string) (*schedenv.Environment, error) {
	assetDir := filepath.Join(dataDir, asset)

	workOrders, err := readWorkOrders(filepath.Join(assetDir, "work_orders.csv"))
	if err != nil {
		return nil, err
	}
	technicians, err := readTechnicians(filepath.Join(assetDir, "technicians.csv"))
	if err != nil {
		return nil, err
	}

	horizonPeriods := cfg.TimeInputs.StrategicHorizonPeriods
	if horizonPeriods <= 0 {
		horizonPeriods = defaultHorizonPeriods
	}

	anchor := time.Now().UTC()
	for _, wo := range workOrders {
		if !wo.EarliestAllowedStart.IsZero() && wo.EarliestAllowedStart.Before(anchor) {
			anchor = wo.EarliestAllowedStart
		}
	}
	anchor = truncateToDay(anchor)

	periods := schedenv.GeneratePeriods(anchor, horizonPeriods)
	days := schedenv.GenerateDays(anchor, horizonPeriods*14)

	env := schedenv.NewEnvironment(periods, days)
	for _, wo := range workOrders {
		env.UpsertWorkOrder(wo)
	}
	for _, tech := range technicians {
		if tech.Asset == "" {
			tech.Asset = asset
		}
		env.UpsertTechnician(tech)
	}
	return env, nil
}

func readWorkOrders(path string) ([]*schedenv.WorkOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open work orders %s: %w", path, err)
	}
	defer f.Close()
	wos, err := exportio.ReadWorkOrders(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	return wos, nil
}

func readTechnicians(path string) ([]*schedenv.Technician, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open technicians %s: %w", path, err)
	}
	defer f.Close()
	techs, err := exportio.ReadTechnicians(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	return techs, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
