package exportio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanridge/ordinator/internal/schedenv"
)

const workOrderHeader = "work_order,activity,functional_location_asset,functional_location_sector," +
	"functional_location_system,functional_location_subsystem,functional_location_tag," +
	"priority,order_type,revision,user_status,system_status," +
	"earliest_allowed_start,latest_allowed_finish,basic_start,basic_finish," +
	"resource,crew_size,planned_work,actual_work\n"

func TestReadWorkOrdersGroupsActivitiesByWorkOrderNumber(t *testing.T) {
	csv := workOrderHeader +
		"100,1,PLATFORM-7,TOP,GEN,TURB,TAG-1,1,PM01,0,REL|SCH,REL,2026-01-01T00:00:00Z,2026-01-10T00:00:00Z,,,MTN-MECH,2,8.0,0.0\n" +
		"100,2,PLATFORM-7,TOP,GEN,TURB,TAG-1,1,PM01,0,REL|SCH,REL,2026-01-01T00:00:00Z,2026-01-10T00:00:00Z,,,MTN-ELEC,1,4.0,0.0\n" +
		"101,1,PLATFORM-7,TOP,GEN,PUMP,TAG-2,3,PM02,1,,,2026-01-01T00:00:00Z,2026-01-12T00:00:00Z,,,MTN-INST,1,2.5,0.0\n"

	orders, err := ReadWorkOrders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	wo100 := orders[0]
	assert.Equal(t, schedenv.WorkOrderNumber(100), wo100.Number)
	assert.Equal(t, "PLATFORM-7", wo100.FunctionalLocation.Asset)
	assert.True(t, wo100.UserStatus.Has("REL"))
	assert.True(t, wo100.UserStatus.Has("SCH"))
	require.Len(t, wo100.Operations, 2)
	assert.Equal(t, schedenv.ResourceMtnMech, wo100.Operations[1].Resource)
	assert.Equal(t, 2, wo100.Operations[1].CrewSize)
	assert.Equal(t, 8.0, wo100.Operations[1].PlannedWork.Hours())

	wo101 := orders[1]
	assert.Equal(t, schedenv.WorkOrderNumber(101), wo101.Number)
	assert.False(t, wo101.UserStatus.Has("REL"))
}

func TestReadWorkOrdersRejectsWrongHeader(t *testing.T) {
	csv := "wrong,header\n1,2\n"
	_, err := ReadWorkOrders(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestReadWorkOrdersRejectsMalformedNumber(t *testing.T) {
	csv := workOrderHeader +
		"notanumber,1,PLATFORM-7,TOP,GEN,TURB,TAG-1,1,PM01,0,REL,REL,2026-01-01T00:00:00Z,2026-01-10T00:00:00Z,,,MTN-MECH,2,8.0,0.0\n"
	_, err := ReadWorkOrders(strings.NewReader(csv))
	assert.Error(t, err)
}

const technicianHeader = "id,asset,resources,hours_per_day," +
	"availability_start,availability_end," +
	"off_shift_start,off_shift_end,break_start,break_end," +
	"toolbox_start,toolbox_end\n"

func TestReadTechniciansParsesResourcesAndBands(t *testing.T) {
	csv := technicianHeader +
		"tech-1,PLATFORM-7,MTN-MECH|MTN-ELEC,8.0," +
		"2026-01-01T00:00:00Z,2026-12-31T00:00:00Z," +
		"18:00,06:00,12:00,12:30,07:30,08:00\n"

	techs, err := ReadTechnicians(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, techs, 1)

	tech := techs[0]
	assert.Equal(t, schedenv.TechnicianID("tech-1"), tech.ID)
	assert.Equal(t, "PLATFORM-7", tech.Asset)
	assert.Contains(t, tech.Skills, schedenv.ResourceMtnMech)
	assert.Contains(t, tech.Skills, schedenv.ResourceMtnElec)
	assert.Equal(t, 8.0, tech.HoursPerDay.Hours())
	assert.Equal(t, 12*60, int(tech.Break.Start.Minutes()))
}

func TestReadTechniciansRejectsUnknownResourceCode(t *testing.T) {
	csv := technicianHeader +
		"tech-1,PLATFORM-7,NOT-A-RESOURCE,8.0," +
		"2026-01-01T00:00:00Z,2026-12-31T00:00:00Z," +
		"18:00,06:00,12:00,12:30,07:30,08:00\n"

	_, err := ReadTechnicians(strings.NewReader(csv))
	assert.Error(t, err)
}
