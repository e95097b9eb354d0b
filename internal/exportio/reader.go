// Package exportio is the system's only file-format boundary: reading the
// CSV work-order and technician extracts that feed internal/schedenv, and
// writing CSV renderings of a published snapshot for offline consumption.
// CSV has no dedicated library anywhere in the retrieved corpus, so this
// package is the one place that reaches for encoding/csv directly rather
// than a third-party parser (see DESIGN.md).
package exportio

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/oceanridge/ordinator/internal/schedenv"
)

// workOrderColumns names the expected header row of a work-order extract,
// in order. A file whose header does not match exactly is rejected rather
// than guessed at.
var workOrderColumns = []string{
	"work_order", "activity", "functional_location_asset", "functional_location_sector",
	"functional_location_system", "functional_location_subsystem", "functional_location_tag",
	"priority", "order_type", "revision", "user_status", "system_status",
	"earliest_allowed_start", "latest_allowed_finish", "basic_start", "basic_finish",
	"resource", "crew_size", "planned_work", "actual_work",
}

const csvTimeLayout = "2006-01-02T15:04:05Z"

// ReadWorkOrders parses a CSV work-order extract, grouping rows into
// schedenv.WorkOrder values by work_order number with one Operation per
// row's activity. Column order is required to match workOrderColumns
// exactly; this is a downstream extract from a fixed upstream export, not
// a user-authored file, so there's no benefit to more permissive parsing.
func ReadWorkOrders(r io.Reader) ([]*schedenv.WorkOrder, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(workOrderColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("exportio: read work order header: %w", err)
	}
	if err := checkHeader(header, workOrderColumns); err != nil {
		return nil, err
	}

	byNumber := make(map[schedenv.WorkOrderNumber]*schedenv.WorkOrder)
	order := make([]schedenv.WorkOrderNumber, 0)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("exportio: read work order row: %w", err)
		}

		number, err := parseUint(row[0])
		if err != nil {
			return nil, fmt.Errorf("exportio: work order number: %w", err)
		}
		activity, err := parseUint(row[1])
		if err != nil {
			return nil, fmt.Errorf("exportio: activity number: %w", err)
		}

		wo, ok := byNumber[schedenv.WorkOrderNumber(number)]
		if !ok {
			priority, err := parseInt(row[7])
			if err != nil {
				return nil, fmt.Errorf("exportio: priority: %w", err)
			}
			revision, err := parseInt(row[9])
			if err != nil {
				return nil, fmt.Errorf("exportio: revision: %w", err)
			}
			earliestStart, err := parseTime(row[12])
			if err != nil {
				return nil, fmt.Errorf("exportio: earliest_allowed_start: %w", err)
			}
			latestFinish, err := parseTime(row[13])
			if err != nil {
				return nil, fmt.Errorf("exportio: latest_allowed_finish: %w", err)
			}
			basicStart, err := parseTime(row[14])
			if err != nil {
				return nil, fmt.Errorf("exportio: basic_start: %w", err)
			}
			basicFinish, err := parseTime(row[15])
			if err != nil {
				return nil, fmt.Errorf("exportio: basic_finish: %w", err)
			}

			wo = &schedenv.WorkOrder{
				Number: schedenv.WorkOrderNumber(number),
				FunctionalLocation: schedenv.FunctionalLocation{
					Asset:     row[2],
					Sector:    row[3],
					System:    row[4],
					Subsystem: row[5],
					Tag:       row[6],
				},
				Priority:             priority,
				OrderType:            row[8],
				Revision:             revision,
				UserStatus:           statusSetFromField(row[10]),
				SystemStatus:         statusSetFromField(row[11]),
				EarliestAllowedStart: earliestStart,
				LatestAllowedFinish:  latestFinish,
				BasicStart:           basicStart,
				BasicFinish:          basicFinish,
				Operations:           make(map[schedenv.ActivityNumber]*schedenv.Operation),
			}
			byNumber[wo.Number] = wo
			order = append(order, wo.Number)
		}

		resource, err := schedenv.ParseResource(row[16])
		if err != nil {
			return nil, fmt.Errorf("exportio: work order %d activity %d: %w", number, activity, err)
		}
		crewSize, err := parseInt(row[17])
		if err != nil {
			return nil, fmt.Errorf("exportio: crew_size: %w", err)
		}
		plannedWork, err := schedenv.ParseWork(row[18])
		if err != nil {
			return nil, fmt.Errorf("exportio: planned_work: %w", err)
		}
		actualWork, err := schedenv.ParseWork(row[19])
		if err != nil {
			return nil, fmt.Errorf("exportio: actual_work: %w", err)
		}

		wo.Operations[schedenv.ActivityNumber(activity)] = &schedenv.Operation{
			Activity:    schedenv.ActivityNumber(activity),
			Resource:    resource,
			CrewSize:    crewSize,
			PlannedWork: plannedWork,
			ActualWork:  actualWork,
		}
	}

	out := make([]*schedenv.WorkOrder, 0, len(order))
	for _, number := range order {
		out = append(out, byNumber[number])
	}
	return out, nil
}

var technicianColumns = []string{
	"id", "asset", "resources", "hours_per_day",
	"availability_start", "availability_end",
	"off_shift_start", "off_shift_end", "break_start", "break_end",
	"toolbox_start", "toolbox_end",
}

// ReadTechnicians parses a CSV technician extract into schedenv.Technician
// values. Resources is a pipe-delimited list of resource codes (e.g.
// "MTN-MECH|MTN-ELEC").
func ReadTechnicians(r io.Reader) ([]*schedenv.Technician, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(technicianColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("exportio: read technician header: %w", err)
	}
	if err := checkHeader(header, technicianColumns); err != nil {
		return nil, err
	}

	var out []*schedenv.Technician
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("exportio: read technician row: %w", err)
		}

		hoursPerDay, err := schedenv.ParseWork(row[3])
		if err != nil {
			return nil, fmt.Errorf("exportio: hours_per_day: %w", err)
		}
		availStart, err := parseTime(row[4])
		if err != nil {
			return nil, fmt.Errorf("exportio: availability_start: %w", err)
		}
		availEnd, err := parseTime(row[5])
		if err != nil {
			return nil, fmt.Errorf("exportio: availability_end: %w", err)
		}
		offShift, err := parseBand(row[6], row[7])
		if err != nil {
			return nil, fmt.Errorf("exportio: off_shift band: %w", err)
		}
		brk, err := parseBand(row[8], row[9])
		if err != nil {
			return nil, fmt.Errorf("exportio: break band: %w", err)
		}
		toolbox, err := parseBand(row[10], row[11])
		if err != nil {
			return nil, fmt.Errorf("exportio: toolbox band: %w", err)
		}

		skills, err := parseResourceList(row[2])
		if err != nil {
			return nil, fmt.Errorf("exportio: technician %s resources: %w", row[0], err)
		}

		out = append(out, &schedenv.Technician{
			ID:           schedenv.TechnicianID(row[0]),
			Asset:        row[1],
			Skills:       skills,
			HoursPerDay:  hoursPerDay,
			Availability: schedenv.Availability{Start: availStart, End: availEnd},
			OffShift:     offShift,
			Break:        brk,
			Toolbox:      toolbox,
		})
	}
	return out, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("exportio: expected %d columns, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i] != name {
			return fmt.Errorf("exportio: expected column %d to be %q, got %q", i, name, got[i])
		}
	}
	return nil
}

func statusSetFromField(field string) schedenv.StatusSet {
	if field == "" {
		return schedenv.NewStatusSet()
	}
	var codes []string
	start := 0
	for i := 0; i <= len(field); i++ {
		if i == len(field) || field[i] == '|' {
			codes = append(codes, field[start:i])
			start = i + 1
		}
	}
	return schedenv.NewStatusSet(codes...)
}

func parseResourceList(field string) (map[schedenv.Resource]struct{}, error) {
	skills := make(map[schedenv.Resource]struct{})
	start := 0
	for i := 0; i <= len(field); i++ {
		if i == len(field) || field[i] == '|' {
			if i > start {
				r, err := schedenv.ParseResource(field[start:i])
				if err != nil {
					return nil, err
				}
				skills[r] = struct{}{}
			}
			start = i + 1
		}
	}
	return skills, nil
}

func parseBand(startField, endField string) (schedenv.TimeOfDayBand, error) {
	start, err := time.Parse("15:04", startField)
	if err != nil {
		return schedenv.TimeOfDayBand{}, fmt.Errorf("parse band start %q: %w", startField, err)
	}
	end, err := time.Parse("15:04", endField)
	if err != nil {
		return schedenv.TimeOfDayBand{}, fmt.Errorf("parse band end %q: %w", endField, err)
	}
	return schedenv.TimeOfDayBand{
		Start: time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute,
		End:   time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(csvTimeLayout, s)
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseUint(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
