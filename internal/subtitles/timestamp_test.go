package subtitles

import "testing"

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"00:00:00,000", 0},
		{"00:00:02,000", 2000},
		{"00:23:59,500", 23*60*1000 + 59*1000 + 500},
		{"01:02:03,004", 3723004},
		{" 00:00:01.250 ", 1250},
		{"100:00:00,000", 360000000},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTimestamp(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "00:00:00", "00:00,000", "aa:00:00,000", "00:-1:00,000", "00:00:00,1000", "00:00:00,"} {
		if _, err := ParseTimestamp(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, h := range []int64{0, 1, 9, 10, 99} {
		for m := int64(0); m < 60; m += 7 {
			for s := int64(0); s < 60; s += 11 {
				for _, ms := range []int64{0, 1, 99, 500, 999} {
					value := ((h*3600 + m*60 + s) * 1000) + ms
					got, err := ParseTimestamp(FormatTimestamp(value))
					if err != nil {
						t.Fatalf("round trip %d: %v", value, err)
					}
					if got != value {
						t.Fatalf("round trip %d: got %d via %q", value, got, FormatTimestamp(value))
					}
				}
			}
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(1440500); got != "00:24:00,500" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatTimestamp(-5); got != "00:00:00,000" {
		t.Fatalf("expected negative clamp, got %q", got)
	}
}

func TestFormatDisplayTimestamp(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{2000, "00:02"},
		{59999, "00:59"},
		{23*60*1000 + 59*1000 + 999, "23:59"},
		{3600000, "01:00:00"},
		{3723004, "01:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDisplayTimestamp(tt.ms); got != tt.want {
			t.Fatalf("FormatDisplayTimestamp(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
