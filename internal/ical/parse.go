package ical

import (
	"strings"
	"time"
)

// VEvent is a single event extracted from a VCALENDAR document. Only the
// literal DTSTART/DTEND published in the feed is captured; recurrence rules
// in remote feeds are deliberately not expanded, so a repeating VEVENT
// contributes exactly one occurrence.
type VEvent struct {
	UID         string
	Summary     string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
}

// Parse extracts VEVENT blocks from raw iCal text. Feeds are untrusted input:
// malformed lines are skipped, a VEVENT without DTSTART is dropped, and the
// function never fails — it returns whatever well-formed events it could
// read. Other component types (VTODO, VALARM, VTIMEZONE) are ignored.
func Parse(raw string) []VEvent {
	var events []VEvent

	var cur VEvent
	var inEvent bool

	for _, line := range strings.Split(unfold(raw), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		switch line {
		case "BEGIN:VEVENT":
			cur = VEvent{}
			inEvent = true
			continue
		case "END:VEVENT":
			if inEvent && !cur.Start.IsZero() {
				if cur.Summary == "" {
					cur.Summary = "Untitled"
				}
				if cur.End.IsZero() {
					cur.End = cur.Start.Add(time.Hour)
				}
				events = append(events, cur)
			}
			inEvent = false
			continue
		}

		if !inEvent {
			continue
		}

		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		switch name {
		case "UID":
			cur.UID = value
		case "SUMMARY":
			cur.Summary = unescape(value)
		case "LOCATION":
			cur.Location = unescape(value)
		case "DESCRIPTION":
			cur.Description = unescape(value)
		case "DTSTART":
			if t, ok := parseDateValue(value); ok {
				cur.Start = t
			}
		case "DTEND":
			if t, ok := parseDateValue(value); ok {
				cur.End = t
			}
		}
	}

	return events
}

// unfold normalizes line endings and joins soft-wrapped continuation lines: a
// line break immediately followed by a space or tab is removed entirely.
func unfold(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.ReplaceAll(raw, "\n ", "")
	raw = strings.ReplaceAll(raw, "\n\t", "")
	return raw
}

// splitProperty splits "NAME;PARAM=X:value" into the bare property name and
// value. Parameters (TZID and friends) are not interpreted.
func splitProperty(line string) (name, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", "", false
	}
	name = line[:colon]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.ToUpper(name), line[colon+1:], true
}

// parseDateValue reads the two date forms feeds actually publish: an 8-digit
// date (all-day, local midnight) and a basic date-time with optional trailing
// Z. A bare date-time without Z is interpreted in the process's local
// timezone; TZID parameters are not honored.
func parseDateValue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)

	if len(v) == 8 {
		if t, err := time.ParseInLocation("20060102", v, time.Local); err == nil {
			return t, true
		}
		return time.Time{}, false
	}

	if strings.HasSuffix(v, "Z") {
		if t, err := time.ParseInLocation("20060102T150405", v[:len(v)-1], time.UTC); err == nil {
			return t, true
		}
		return time.Time{}, false
	}

	if t, err := time.ParseInLocation("20060102T150405", v, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// unescape reverses iCal text escaping for SUMMARY/LOCATION/DESCRIPTION
// values. Substitutions are applied in a fixed order.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\,`, ",")
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = strings.ReplaceAll(s, `\;`, ";")
	return s
}
