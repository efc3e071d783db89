package daterange

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

// Layout is the accepted string form of a date.
const Layout = "2006-01-02"

// Range is an inclusive-exclusive window of days: [start, end).
type Range struct {
	start time.Time
	end   time.Time
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New creates a Range from two instants, keeping only their dates.
func New(start, end time.Time) (Range, error) {
	s, e := Day(start), Day(end)
	if s.After(e) {
		return Range{}, domain.Paramf("start date %s must not be after end date %s",
			s.Format(Layout), e.Format(Layout))
	}
	return Range{start: s, end: e}, nil
}

// Parse creates a Range from two "2006-01-02" strings.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(Layout, start)
	if err != nil {
		return Range{}, domain.Paramf("start date %q: %v", start, err)
	}
	e, err := time.Parse(Layout, end)
	if err != nil {
		return Range{}, domain.Paramf("end date %q: %v", end, err)
	}
	return New(s, e)
}

// Start returns the first day of the window.
func (r Range) Start() time.Time { return r.start }

// End returns the first day after the window.
func (r Range) End() time.Time { return r.end }

// IsEmpty reports whether the window holds no day.
func (r Range) IsEmpty() bool { return r.start.Equal(r.end) }

// Contains reports whether t falls on a day inside the window.
func (r Range) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.start) && d.Before(r.end)
}

// AnyContains reports whether t falls in at least one of ranges.
// An empty slice matches everything.
func AnyContains(ranges []Range, t time.Time) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

func (r Range) String() string {
	return fmt.Sprintf("Range(start_date=%s, end_date=%s)", r.start.Format(Layout), r.end.Format(Layout))
}
