// Package schedule evaluates recurring weekly time windows against a
// wall-clock instant. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Time is always injectable via time.Time
// parameters and the result is recomputed wholesale on every call.
package schedule

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// Window is a recurring time-of-day interval with a day-of-week mask.
// Start > End means the window wraps past midnight into the next day.
// Windows are immutable once loaded from configuration.
type Window struct {
	// Start and End are minutes of day, 0..1439. Start is inclusive,
	// End is exclusive.
	Start int
	End   int
	// Days is indexed by time.Weekday (0 = Sunday). For a wrapping
	// window the mask applies to the day the window starts.
	Days [7]bool
}

// ActiveWindow is the ephemeral instance of a currently active always-on
// window. It exists only while the window is active and is rebuilt on
// every Resolve call.
type ActiveWindow struct {
	Start     time.Time
	End       time.Time
	Total     int // window length in whole seconds
	Remaining int // whole seconds until End
}

// State is the resolver verdict for a single instant.
// AlwaysOn and Ignore are never both true: always-on takes precedence.
type State struct {
	AlwaysOn bool
	Ignore   bool
	Window   *ActiveWindow // non-nil only when AlwaysOn
}

// Resolve evaluates the configured ignore and always-on windows at now.
// If multiple always-on windows are active the first in declared order wins.
func Resolve(now time.Time, ignore, alwaysOn []Window) State {
	var st State
	for i := range alwaysOn {
		if alwaysOn[i].active(now) {
			st.AlwaysOn = true
			st.Window = alwaysOn[i].instance(now)
			break
		}
	}
	if st.AlwaysOn {
		return st
	}
	for i := range ignore {
		if ignore[i].active(now) {
			st.Ignore = true
			break
		}
	}
	return st
}

// active reports whether the window covers the instant now.
// For a wrapping window observed after midnight, the weekday check applies
// to the previous day, the day the window started.
func (w Window) active(now time.Time) bool {
	min := now.Hour()*60 + now.Minute()
	if w.Start <= w.End {
		return min >= w.Start && min < w.End && w.Days[now.Weekday()]
	}
	if min >= w.Start {
		return w.Days[now.Weekday()]
	}
	if min < w.End {
		return w.Days[now.AddDate(0, 0, -1).Weekday()]
	}
	return false
}

// instance builds the ActiveWindow for a window known to be active at now.
func (w Window) instance(now time.Time) *ActiveWindow {
	day := now
	if w.Start > w.End && now.Hour()*60+now.Minute() < w.End {
		// Past midnight inside a wrapping window: it started yesterday.
		day = now.AddDate(0, 0, -1)
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, w.Start/60, w.Start%60, 0, 0, now.Location())
	total := ((w.End-w.Start)%minutesPerDay + minutesPerDay) % minutesPerDay * 60
	end := start.Add(time.Duration(total) * time.Second)
	remaining := int(end.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &ActiveWindow{Start: start, End: end, Total: total, Remaining: remaining}
}

// Length returns the window length in minutes, accounting for wrap.
func (w Window) Length() int {
	return ((w.End-w.Start)%minutesPerDay + minutesPerDay) % minutesPerDay
}

// Overlaps reports whether two windows share at least one minute of the
// week. Used by configuration validation to reject ambiguous always-on
// declarations.
func (w Window) Overlaps(o Window) bool {
	for _, a := range w.weekIntervals() {
		for _, b := range o.weekIntervals() {
			if a[0] < b[1] && b[0] < a[1] {
				return true
			}
		}
	}
	return false
}

// weekIntervals expands the window into half-open [start, end) minute
// intervals on a 0..10080 weekly axis. A window wrapping past the end of
// Saturday is split across the week boundary.
func (w Window) weekIntervals() [][2]int {
	const week = 7 * minutesPerDay
	var iv [][2]int
	for d := 0; d < 7; d++ {
		if !w.Days[d] {
			continue
		}
		s := d*minutesPerDay + w.Start
		e := s + w.Length()
		if e > week {
			iv = append(iv, [2]int{s, week}, [2]int{0, e - week})
		} else {
			iv = append(iv, [2]int{s, e})
		}
	}
	return iv
}

// ParseClock parses an "HH:MM" string into minutes of day.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return h*60 + m, nil
}
