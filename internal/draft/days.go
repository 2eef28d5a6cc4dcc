package draft

// Fixed Monday-first ordering for operating-hours day ranges.
var weekdays = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Weekdays returns the start-day options in Monday-first order.
func Weekdays() []string {
	out := make([]string, len(weekdays))
	copy(out, weekdays[:])
	return out
}

func dayIndex(day string) int {
	for i, d := range weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// EndDayOptions returns exactly the weekdays strictly after the start day.
// An empty or unknown start day yields no options.
func EndDayOptions(startDay string) []string {
	idx := dayIndex(startDay)
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(weekdays)-idx-1)
	out = append(out, weekdays[idx+1:]...)
	return out
}

func validEndDay(startDay, endDay string) bool {
	start := dayIndex(startDay)
	end := dayIndex(endDay)
	return start >= 0 && end > start
}
