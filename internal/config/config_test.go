package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadToleratesAllFilesMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.ActorSpecifications)
	assert.Equal(t, 0.0, cfg.WorkOrderWeightParameters.UrgencyWeight)
}

func TestLoadParsesWeightParametersAndActorSpecification(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "work_order_weight_parameters.json"), `{
		"urgency_weight": 1.5,
		"status_multipliers": {"URG": 2.0},
		"priority_weights": {"1": 3.0}
	}`)
	writeFile(t, filepath.Join(dir, "actor_specification_PLATFORM-7.toml"), `
[[supervisors]]
id = "default"
number_of_supervisor_periods = 2

[[technicians]]
id = "tech-1"
resources = ["MTN-MECH"]
hours_per_day = 8.0
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.WorkOrderWeightParameters.UrgencyWeight)
	assert.Equal(t, 2.0, cfg.WorkOrderWeightParameters.StatusMultipliers["URG"])
	assert.Equal(t, 3.0, cfg.WorkOrderWeightParameters.PriorityWeights[1])

	spec, ok := cfg.ActorSpecifications["PLATFORM-7"]
	require.True(t, ok)
	assert.Equal(t, "PLATFORM-7", spec.Asset)
	require.Len(t, spec.Supervisors, 1)
	assert.Equal(t, 2, spec.Supervisors[0].NumberOfSupervisorPeriods)
	require.Len(t, spec.Technicians, 1)
	assert.Equal(t, "tech-1", spec.Technicians[0].ID)
}

func TestLoadReturnsErrorOnMalformedPresentFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "actor_options", "strategic_options.toml"), "not valid = = toml")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadParsesThrottleAndTimeInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "throttling", "throttling.toml"), `
[throttle]
"strategic:PLATFORM-7" = 500
`)
	writeFile(t, filepath.Join(dir, "time_environment", "time_inputs.toml"), `
strategic_horizon_periods = 26
tactical_horizon_periods = 4
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.ThrottleTable["strategic:PLATFORM-7"])
	assert.Equal(t, 26, cfg.TimeInputs.StrategicHorizonPeriods)
	assert.Equal(t, 4, cfg.TimeInputs.TacticalHorizonPeriods)
}
