package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// ParseTimestamp converts an SRT timestamp ("HH:MM:SS,mmm") to milliseconds.
// A period is accepted in place of the comma.
func ParseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	clock, millisText, ok := strings.Cut(strings.Replace(value, ".", ",", 1), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := parseField(hms[0])
	minutes, errM := parseField(hms[1])
	seconds, errS := parseField(hms[2])
	millis, errMS := parseField(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if millis >= msPerSecond {
		return 0, fmt.Errorf("invalid timestamp %q: milliseconds out of range", value)
	}
	return (hours*3600+minutes*60+seconds)*msPerSecond + millis, nil
}

func parseField(text string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.ParseInt(text, 10, 64)
}

// FormatTimestamp renders milliseconds as an SRT timestamp. Negative values clamp to zero.
func FormatTimestamp(ms int64) string {
	h, m, s, millis := split(ms)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

// FormatDisplayTimestamp renders milliseconds for human-readable output:
// "MM:SS", or "HH:MM:SS" once the hour field is non-zero. Milliseconds are
// truncated, not rounded.
func FormatDisplayTimestamp(ms int64) string {
	h, m, s, _ := split(ms)
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func split(ms int64) (h, m, s, millis int64) {
	if ms < 0 {
		ms = 0
	}
	h = ms / msPerHour
	ms %= msPerHour
	m = ms / msPerMinute
	ms %= msPerMinute
	s = ms / msPerSecond
	millis = ms % msPerSecond
	return h, m, s, millis
}
