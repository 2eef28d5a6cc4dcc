package draft

import (
	"reflect"
	"testing"
)

func TestEndDayOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		startDay string
		want     []string
	}{
		{startDay: "Monday", want: []string{"Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}},
		{startDay: "Wednesday", want: []string{"Thursday", "Friday", "Saturday", "Sunday"}},
		{startDay: "Saturday", want: []string{"Sunday"}},
		{startDay: "Sunday", want: []string{}},
		{startDay: "", want: nil},
		{startDay: "Funday", want: nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.startDay, func(t *testing.T) {
			got := EndDayOptions(tc.startDay)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("EndDayOptions(%q) = %v, want %v", tc.startDay, got, tc.want)
			}
		})
	}
}

func TestValidEndDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		start, end string
		want       bool
	}{
		{"Monday", "Friday", true},
		{"Monday", "Tuesday", true},
		{"Friday", "Monday", false},
		{"Monday", "Monday", false},
		{"", "Friday", false},
		{"Monday", "", false},
	}
	for _, tc := range cases {
		if got := validEndDay(tc.start, tc.end); got != tc.want {
			t.Fatalf("validEndDay(%q, %q) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestWeekdaysMondayFirst(t *testing.T) {
	t.Parallel()

	days := Weekdays()
	if len(days) != 7 || days[0] != "Monday" || days[6] != "Sunday" {
		t.Fatalf("unexpected weekday ordering: %v", days)
	}
}
