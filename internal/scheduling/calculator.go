// Package scheduling computes bookable time slots from a doctor's daily
// working-hours window minus already-booked appointment times.
package scheduling

import (
	"fmt"
	"time"
)

// Window is a daily working-hours range in "HH:MM" 24-hour format.
type Window struct {
	From string
	To   string
}

// Calculator discretizes a window into fixed-size slots.
type Calculator struct {
	interval time.Duration
}

// NewCalculator creates a calculator with the given slot length in minutes.
func NewCalculator(intervalMinutes int) *Calculator {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	return &Calculator{interval: time.Duration(intervalMinutes) * time.Minute}
}

// Interval returns the slot length.
func (c *Calculator) Interval() time.Duration {
	return c.interval
}

// Slots steps from the window start in fixed increments and emits every time
// string strictly before the window end that is not in the booked set, in
// ascending order. An empty window (From == To) yields no slots.
func (c *Calculator) Slots(w Window, booked map[string]struct{}) ([]string, error) {
	from, err := parseClock(w.From)
	if err != nil {
		return nil, fmt.Errorf("scheduling: bad window start %q: %w", w.From, err)
	}
	to, err := parseClock(w.To)
	if err != nil {
		return nil, fmt.Errorf("scheduling: bad window end %q: %w", w.To, err)
	}

	var slots []string
	for t := from; t.Before(to); t = t.Add(c.interval) {
		s := t.Format("15:04")
		if _, taken := booked[s]; taken {
			continue
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// BookedSet builds a lookup set from a list of "HH:MM" strings.
func BookedSet(times []string) map[string]struct{} {
	set := make(map[string]struct{}, len(times))
	for _, t := range times {
		set[t] = struct{}{}
	}
	return set
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}
