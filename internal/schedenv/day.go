package schedenv

import "time"

// Day is a contiguous, integer-indexed UTC calendar day used by the
// tactical and operational tiers for day- and minute-resolution placement.
type Day struct {
	Index int
	Date  time.Time // UTC midnight
}

// NewDay truncates date to UTC midnight and pairs it with index.
func NewDay(index int, date time.Time) Day {
	y, m, d := date.UTC().Date()
	return Day{Index: index, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Next returns the following contiguous day.
func (d Day) Next() Day {
	return NewDay(d.Index+1, d.Date.AddDate(0, 0, 1))
}

// GenerateDays returns a contiguous run of n days starting at start.
func GenerateDays(start time.Time, n int) []Day {
	days := make([]Day, 0, n)
	d := NewDay(0, start)
	for i := 0; i < n; i++ {
		days = append(days, d)
		d = d.Next()
	}
	return days
}

// GeneratePeriods returns a contiguous run of n two-week periods starting
// with the bucket [start, start+14d).
func GeneratePeriods(start time.Time, n int) []Period {
	periods := make([]Period, 0, n)
	end := start.AddDate(0, 0, 13).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	p := NewPeriod(0, start, end)
	for i := 0; i < n; i++ {
		periods = append(periods, p)
		if i < n-1 {
			p = p.Add(14 * 24 * time.Hour)
		}
	}
	return periods
}
