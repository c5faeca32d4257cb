package picker

import (
	"time"
)

// type window struct {{{

// A year-agnostic month/day range.
//
// "Around this date" regardless of year - a photo taken 2019-08-23 is in
// the window of 2026-08-25 +- 7 days. Months and days are encoded as
// month*100+day so they compare as plain ints.
type window struct {
	start int
	end   int

	// Set when the range crosses a year boundary (late December into
	// early January). An md is then in the window when it is >= start OR
	// <= end instead of between them.
	wraps bool
} // }}}

// func monthDay {{{

func monthDay(t time.Time) int {
	return int(t.Month())*100 + t.Day()
} // }}}

// func newWindow {{{

// The window around today, days either side.
//
// AddDate handles the calendar for us, so the month lengths and leap days
// come out right for the specific year of today. The year is then thrown
// away and only the month/day pair kept.
func newWindow(today time.Time, days int) window {
	w := window{
		start: monthDay(today.AddDate(0, 0, -days)),
		end:   monthDay(today.AddDate(0, 0, days)),
	}

	if w.start > w.end {
		w.wraps = true
	}

	return w
} // }}}

// func window.In {{{

// In reports if the photo's date falls in the window, any year.
//
// The zero time means the date is unknown, never in the window.
func (w window) In(t time.Time) bool {
	if t.IsZero() {
		return false
	}

	md := monthDay(t)

	if w.wraps {
		return md >= w.start || md <= w.end
	}

	return md >= w.start && md <= w.end
} // }}}
