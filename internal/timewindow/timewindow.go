// Package timewindow implements §4.H: TIME command timestamp parsing,
// miniSEED v2 BTime extraction, and start/end window containment. Both
// formats are hand-converted to seconds-since-epoch with the same
// civil-calendar arithmetic, so the two are directly comparable without
// going through time.Time and its monotonic/location baggage.
package timewindow

import (
	"strconv"
	"strings"
)

// Timestamp is seconds since the Unix epoch, comparable with < and ==.
type Timestamp struct {
	seconds int64
}

// Before reports whether t is strictly earlier than other.
func (t Timestamp) Before(other Timestamp) bool { return t.seconds < other.seconds }

// After reports whether t is strictly later than other.
func (t Timestamp) After(other Timestamp) bool { return t.seconds > other.seconds }

// ParseTimeCommand parses the TIME command's "YYYY,M,D,h,m,s" format.
func ParseTimeCommand(s string) (Timestamp, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return Timestamp{}, false
	}
	year, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Timestamp{}, false
	}
	month, err1 := strconv.Atoi(parts[1])
	day, err2 := strconv.Atoi(parts[2])
	hour, err3 := strconv.Atoi(parts[3])
	minute, err4 := strconv.Atoi(parts[4])
	second, err5 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return Timestamp{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return Timestamp{}, false
	}

	doy, ok := monthDayToDOY(year, month, day)
	if !ok {
		return Timestamp{}, false
	}
	return fromComponents(year, doy, hour, minute, second), true
}

// ParseMseedBTime extracts a Timestamp from a miniSEED v2 payload's BTime
// field (bytes 20-29, big-endian): year(u16) doy(u16) hour minute second
// unused ticks(u16, ignored for comparison).
func ParseMseedBTime(payload []byte) (Timestamp, bool) {
	if len(payload) < 30 {
		return Timestamp{}, false
	}
	year := int64(uint16(payload[20])<<8 | uint16(payload[21]))
	doy := int(uint16(payload[22])<<8 | uint16(payload[23]))
	hour := int(payload[24])
	minute := int(payload[25])
	second := int(payload[26])

	if year == 0 || doy == 0 || doy > 366 || hour > 23 || minute > 59 || second > 59 {
		return Timestamp{}, false
	}
	return fromComponents(year, doy, hour, minute, second), true
}

func fromComponents(year int64, doy, hour, minute, second int) Timestamp {
	var days int64
	if year >= 1970 {
		for y := int64(1970); y < year; y++ {
			days += yearLength(y)
		}
	} else {
		for y := year; y < 1970; y++ {
			days -= yearLength(y)
		}
	}
	days += int64(doy) - 1

	seconds := days*86400 + int64(hour)*3600 + int64(minute)*60 + int64(second)
	return Timestamp{seconds: seconds}
}

func yearLength(y int64) int64 {
	if isLeap(y) {
		return 366
	}
	return 365
}

func isLeap(y int64) bool {
	return (y%4 == 0 && y%100 != 0) || y%400 == 0
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// monthDayToDOY converts a (year, month, day) civil date to a 1-based
// day-of-year, validating day against the month's length in that year.
func monthDayToDOY(year int64, month, day int) (int, bool) {
	if month < 1 || month > 12 {
		return 0, false
	}
	maxDay := monthDays[month-1]
	if month == 2 && isLeap(year) {
		maxDay = 29
	}
	if day < 1 || day > maxDay {
		return 0, false
	}

	doy := day
	for i := 0; i < month-1; i++ {
		md := monthDays[i]
		if i == 1 && isLeap(year) {
			md = 29
		}
		doy += md
	}
	return doy, true
}

// Window is a TIME command's start/end filter (§4.H).
type Window struct {
	Start  Timestamp
	End    Timestamp
	HasEnd bool
}

// ParseWindow parses TIME command arguments into a Window. end may be "".
func ParseWindow(start, end string) (Window, bool) {
	startTS, ok := ParseTimeCommand(start)
	if !ok {
		return Window{}, false
	}
	if end == "" {
		return Window{Start: startTS}, true
	}
	endTS, ok := ParseTimeCommand(end)
	if !ok {
		return Window{}, false
	}
	return Window{Start: startTS, End: endTS, HasEnd: true}, true
}

// Contains reports whether ts falls within w: start <= ts, and ts <= end
// when an end bound is set.
func (w Window) Contains(ts Timestamp) bool {
	if ts.Before(w.Start) {
		return false
	}
	if w.HasEnd && ts.After(w.End) {
		return false
	}
	return true
}
