package availability

import "time"

// TimeSlot is a bookable start time and whether it can still be picked.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// MarkAvailability flags every slot whose time is in disabled as unavailable.
func MarkAvailability(slots []string, disabled []string) []TimeSlot {
	taken := toSet(disabled)
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		_, busy := taken[s]
		out = append(out, TimeSlot{Time: s, Available: !busy})
	}
	return out
}

// Remark recomputes availability of already marked slots against disabled.
func Remark(slots []TimeSlot, disabled []string) []TimeSlot {
	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	return MarkAvailability(times, disabled)
}

// Booking is the part of an existing schedule that blocks a slot.
type Booking struct {
	At        time.Time
	Cancelled bool
}

// DisabledTimes returns the HH:MM start times already taken on day, evaluated in loc.
// Cancelled bookings do not block.
func DisabledTimes(bookings []Booking, day time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	seen := map[string]struct{}{}
	var out []string
	for _, b := range bookings {
		if b.Cancelled {
			continue
		}
		at := b.At.In(loc)
		by, bm, bd := at.Date()
		if by != y || bm != m || bd != d {
			continue
		}
		key := ClockOf(at).String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// SplitByPeriod separates slots starting before noon from the rest.
func SplitByPeriod(slots []TimeSlot) (morning, afternoon []TimeSlot) {
	noon := Clock(12 * 60)
	for _, s := range slots {
		c, err := ParseClock(s.Time)
		if err != nil {
			continue
		}
		if c < noon {
			morning = append(morning, s)
		} else {
			afternoon = append(afternoon, s)
		}
	}
	return morning, afternoon
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
