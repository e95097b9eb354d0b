// Package config loads and hot-reloads the SystemConfigurations
// aggregate: work-order weight parameters, per-asset actor
// specifications, per-tier actor options, the throttle table, the
// status-to-period exclusion table, and the strategic/tactical horizon
// sizes. TOML files are parsed with github.com/pelletier/go-toml/v2; the
// one file the spec names as JSON uses encoding/json, matching the
// example corpus's convention of using the library implied by a file's
// own extension rather than picking one format for everything.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// WorkOrderWeightParameters shapes the strategic tier's per-work-order
// weight, loaded from work_order_weight_parameters.json.
type WorkOrderWeightParameters struct {
	UrgencyWeight     float64            `json:"urgency_weight"`
	StatusMultipliers map[string]float64 `json:"status_multipliers"`
	PriorityWeights   map[int]float64    `json:"priority_weights"`
}

// TimeInterval is a wall-clock band expressed as "HH:MM" strings in the
// config file, matching SAP-adjacent tooling's convention of never
// serializing raw durations.
type TimeInterval struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// AvailabilityWindow bounds a technician's overall calendar availability.
type AvailabilityWindow struct {
	StartDate string `toml:"start_date"`
	FinishDate string `toml:"finish_date"`
}

// OperationalConfiguration is one technician's non-work bands and
// calendar bounds.
type OperationalConfiguration struct {
	OffShiftInterval TimeInterval        `toml:"off_shift_interval"`
	BreakInterval    TimeInterval        `toml:"break_interval"`
	ToolboxInterval  TimeInterval        `toml:"toolbox_interval"`
	Availability     AvailabilityWindow  `toml:"availability"`
}

// TechnicianSpec is one entry in an asset's actor_specification file.
type TechnicianSpec struct {
	ID                       string                   `toml:"id"`
	Resources                []string                 `toml:"resources"`
	HoursPerDay              float64                  `toml:"hours_per_day"`
	OperationalConfiguration OperationalConfiguration `toml:"operational_configuration"`
}

// SupervisorSpec is one supervisor entry in an asset's actor_specification
// file.
type SupervisorSpec struct {
	ID                         string `toml:"id"`
	NumberOfSupervisorPeriods int    `toml:"number_of_supervisor_periods"`
}

// ActorSpecification is one asset's full actor_specification_<asset>.toml.
type ActorSpecification struct {
	Asset       string
	Supervisors []SupervisorSpec `toml:"supervisors"`
	Technicians []TechnicianSpec `toml:"technicians"`
}

// StrategicOptions is actor_options/strategic_options.toml.
type StrategicOptions struct {
	NumberOfRemovedWorkOrders int     `toml:"number_of_removed_work_orders"`
	UrgencyWeight             float64 `toml:"urgency_weight"`
	ResourcePenaltyWeight     float64 `toml:"resource_penalty_weight"`
	ClusteringWeight          float64 `toml:"clustering_weight"`
}

// TacticalOptions is actor_options/tactical_options.toml.
type TacticalOptions struct {
	NumberOfRemovedWorkOrders int     `toml:"number_of_removed_work_orders"`
	UrgencyWeight             float64 `toml:"urgency_weight"`
	ResourcePenaltyWeight     float64 `toml:"resource_penalty_weight"`
}

// SupervisorOptions is actor_options/supervisor_options.toml.
type SupervisorOptions struct {
	NumberOfRemovedWorkOrders int `toml:"number_of_removed_work_orders"`
}

// OperationalOptions is actor_options/operational_options.toml.
type OperationalOptions struct {
	NumberOfRemovedWorkOrders int `toml:"number_of_removed_work_orders"`
}

// ActorOptionsSet bundles the four per-tier options files.
type ActorOptionsSet struct {
	Strategic   StrategicOptions
	Tactical    TacticalOptions
	Supervisor  SupervisorOptions
	Operational OperationalOptions
}

// ThrottleTable is throttling/throttling.toml: actor id to milliseconds
// slept between LNS iterations.
type ThrottleTable map[string]int64

// TimeInputs is time_environment/time_inputs.toml.
type TimeInputs struct {
	StrategicHorizonPeriods int `toml:"strategic_horizon_periods"`
	TacticalHorizonPeriods  int `toml:"tactical_horizon_periods"`
}

// SystemConfigurations aggregates every configuration surface the
// scheduler reads at startup.
type SystemConfigurations struct {
	WorkOrderWeightParameters WorkOrderWeightParameters
	ActorSpecifications       map[string]ActorSpecification // keyed by asset
	ActorOptions              ActorOptionsSet
	ThrottleTable             ThrottleTable
	StatusToPeriod            map[string]int
	TimeInputs                TimeInputs
}

// Load reads every recognized configuration file under dir. Missing
// optional files (actor_specification_*, per-tier options) are tolerated
// and leave their corresponding field at its zero value; a malformed file
// that exists is a load error.
func Load(dir string) (*SystemConfigurations, error) {
	cfg := &SystemConfigurations{
		ActorSpecifications: make(map[string]ActorSpecification),
		ThrottleTable:       make(ThrottleTable),
		StatusToPeriod:      make(map[string]int),
	}

	if err := loadJSON(filepath.Join(dir, "work_order_weight_parameters.json"), &cfg.WorkOrderWeightParameters); err != nil {
		return nil, err
	}

	specs, err := filepath.Glob(filepath.Join(dir, "actor_specification_*.toml"))
	if err != nil {
		return nil, fmt.Errorf("config: glob actor specifications: %w", err)
	}
	for _, path := range specs {
		asset := assetFromSpecPath(path)
		var spec ActorSpecification
		if err := loadTOML(path, &spec); err != nil {
			return nil, err
		}
		spec.Asset = asset
		cfg.ActorSpecifications[asset] = spec
	}

	optionsDir := filepath.Join(dir, "actor_options")
	if err := loadTOMLIfExists(filepath.Join(optionsDir, "strategic_options.toml"), &cfg.ActorOptions.Strategic); err != nil {
		return nil, err
	}
	if err := loadTOMLIfExists(filepath.Join(optionsDir, "tactical_options.toml"), &cfg.ActorOptions.Tactical); err != nil {
		return nil, err
	}
	if err := loadTOMLIfExists(filepath.Join(optionsDir, "supervisor_options.toml"), &cfg.ActorOptions.Supervisor); err != nil {
		return nil, err
	}
	if err := loadTOMLIfExists(filepath.Join(optionsDir, "operational_options.toml"), &cfg.ActorOptions.Operational); err != nil {
		return nil, err
	}

	var throttleFile struct {
		Throttle map[string]int64 `toml:"throttle"`
	}
	if err := loadTOMLIfExists(filepath.Join(dir, "throttling", "throttling.toml"), &throttleFile); err != nil {
		return nil, err
	}
	for id, ms := range throttleFile.Throttle {
		cfg.ThrottleTable[id] = ms
	}

	var statusFile struct {
		StatusToPeriod map[string]int `toml:"status_to_period"`
	}
	if err := loadTOMLIfExists(filepath.Join(dir, "materials", "status_to_period.toml"), &statusFile); err != nil {
		return nil, err
	}
	for code, n := range statusFile.StatusToPeriod {
		cfg.StatusToPeriod[code] = n
	}

	if err := loadTOMLIfExists(filepath.Join(dir, "time_environment", "time_inputs.toml"), &cfg.TimeInputs); err != nil {
		return nil, err
	}

	return cfg, nil
}

func assetFromSpecPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "actor_specification_")
	return strings.TrimSuffix(base, ".toml")
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func loadTOML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func loadTOMLIfExists(path string, v any) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	return loadTOML(path, v)
}
