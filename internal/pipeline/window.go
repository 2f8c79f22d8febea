package pipeline

import (
	"iter"
	"time"
)

// IntervalDayLayout renders a window bound in analytics interval strings.
const IntervalDayLayout = "2006-01-02T00:00:00.000Z"

// Window is a half-open time range [Start, End). First is set only on the
// first window of a sync, so schemas are declared once.
type Window struct {
	Start time.Time
	End   time.Time
	First bool
}

// Interval renders the window as "start/end" at day precision.
func (w Window) Interval() string {
	return w.Start.UTC().Format(IntervalDayLayout) + "/" + w.End.UTC().Format(IntervalDayLayout)
}

// Date renders the window start as YYYY-MM-DD.
func (w Window) Date() string {
	return w.Start.UTC().Format("2006-01-02")
}

// Days yields consecutive one-day windows from the day of start up to, not
// including, the day of end. Both bounds are truncated to UTC midnight.
func Days(start, end time.Time) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		cur, stop := StartOfDay(start), StartOfDay(end)
		for first := true; cur.Before(stop); first = false {
			next := cur.AddDate(0, 0, 1)
			if !yield(Window{Start: cur, End: next, First: first}) {
				return
			}
			cur = next
		}
	}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
