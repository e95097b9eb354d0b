package exportio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

// AssignmentRow is one exported (technician, work order, activity) row:
// the supervisor's Delegate state joined with the operational tier's
// reported Fitness for that cell, the join the orchestrator's bulk export
// operation performs.
type AssignmentRow struct {
	Technician string
	WorkOrder  uint64
	Activity   uint64
	Delegate   string
	Scheduled  bool
	Cost       uint64
}

// RowsFromComposite joins a published snapshot.Composite's supervisor and
// operational slices into export rows. A cell with no corresponding
// operational report yet (the technician actor hasn't run since the
// assignment was made) is still emitted, with Scheduled=false.
func RowsFromComposite(composite *snapshot.Composite) ([]AssignmentRow, error) {
	supervisorSlice, ok := composite.Supervisor.(tierstate.SupervisorSlice)
	if !ok {
		return nil, fmt.Errorf("exportio: composite has no supervisor slice published yet")
	}

	operational := make(map[tierstate.Cell]tierstate.Fitness)
	for technicianID, raw := range composite.Operational {
		slice, ok := raw.(tierstate.OperationalSlice)
		if !ok {
			continue
		}
		for key, fitness := range slice.Fitness {
			operational[tierstate.Cell{Technician: slice.TechnicianID, Key: key}] = fitness
		}
		_ = technicianID
	}

	rows := make([]AssignmentRow, 0, len(supervisorSlice.State))
	for cell, delegate := range supervisorSlice.State {
		fitness := operational[cell]
		rows = append(rows, AssignmentRow{
			Technician: string(cell.Technician),
			WorkOrder:  uint64(cell.Key.WorkOrder),
			Activity:   uint64(cell.Key.Activity),
			Delegate:   delegate.String(),
			Scheduled:  fitness.Scheduled,
			Cost:       fitness.Cost,
		})
	}
	return rows, nil
}

var assignmentColumns = []string{"technician", "work_order", "activity", "delegate", "scheduled", "cost"}

// WriteAssignments renders rows as CSV, the one export format this system
// produces natively; callers layering an XLSX workbook on top bring their
// own library (see DESIGN.md — no such library appears in the retrieved
// corpus, so it is out of scope here).
func WriteAssignments(w io.Writer, rows []AssignmentRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(assignmentColumns); err != nil {
		return fmt.Errorf("exportio: write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Technician,
			fmt.Sprintf("%d", row.WorkOrder),
			fmt.Sprintf("%d", row.Activity),
			row.Delegate,
			fmt.Sprintf("%t", row.Scheduled),
			fmt.Sprintf("%d", row.Cost),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("exportio: write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
