package utils

import "testing"

func TestFormatMillis(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0m"},
		{-5, "0m"},
		{59_999, "0m"},
		{60_000, "1m"},
		{2_700_000, "45m"},
		{3_600_000, "1h 00m"},
		{7_500_000, "2h 05m"},
		{90_000_000, "25h 00m"},
	}

	for i, c := range cases {
		if got := FormatMillis(c.in); got != c.want {
			t.Fatalf("case %d: FormatMillis(%d) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0:00:00"},
		{-1000, "0:00:00"},
		{45_000, "0:00:45"},
		{5_025_000, "1:23:45"},
		{36_000_000, "10:00:00"},
	}

	for i, c := range cases {
		if got := FormatClock(c.in); got != c.want {
			t.Fatalf("case %d: FormatClock(%d) = %q, want %q", i, c.in, got, c.want)
		}
	}
}
