package model

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay maps clock minutes onto absolute days.
const MinutesPerDay = 24 * 60

// ErrClockFormat is returned when a time of day is not a zero-padded HH:MM value.
var ErrClockFormat = errors.New("invalid clock time")

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock parses a zero-padded 24-hour HH:MM string.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrClockFormat, s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrClockFormat, s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrClockFormat, s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c lies within a single day.
func (c Clock) Valid() bool { return c >= 0 && c < MinutesPerDay }

// At returns the absolute time of c on the given day, in the day's location.
func (c Clock) At(day time.Time) time.Time {
	y, mo, d := day.Date()
	midnight := time.Date(y, mo, d, 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(c) * time.Minute)
}

// ClockOf returns the time of day of t truncated to the minute.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
