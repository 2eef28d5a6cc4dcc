package obs

import "testing"

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{
		0:   "transport_error",
		-1:  "transport_error",
		200: "200",
		201: "201",
		400: "400",
		502: "502",
	}
	for input, expected := range cases {
		if got := StatusLabel(input); got != expected {
			t.Fatalf("StatusLabel(%d)=%q, want %q", input, got, expected)
		}
	}
}
