package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode is the repeat frequency of a rule.
type Mode string

const (
	ModeNone    Mode = "none"
	ModeDaily   Mode = "daily"
	ModeWeekly  Mode = "weekly"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
)

// EndType describes how a recurring series stops.
type EndType string

const (
	EndNever      EndType = "never"
	EndAfterCount EndType = "count"
	EndUntil      EndType = "until"
)

// End is a rule's stop condition. Count is set for EndAfterCount; Until holds
// a YYYY-MM-DD date for EndUntil.
type End struct {
	Type  EndType `json:"type"`
	Count int     `json:"count,omitempty"`
	Until string  `json:"until,omitempty"`
}

// Spec is the UI-facing form of a stored recurrence rule: frequency,
// interval, weekday set (weekly only), and end condition.
type Spec struct {
	Mode     Mode     `json:"mode"`
	Interval int      `json:"interval"`
	Weekdays []string `json:"weekdays,omitempty"`
	End      End      `json:"end"`
}

var modeFromFreq = map[string]Mode{
	"DAILY":   ModeDaily,
	"WEEKLY":  ModeWeekly,
	"MONTHLY": ModeMonthly,
	"YEARLY":  ModeYearly,
}

var weekdayFromCode = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// None returns the spec for a non-repeating event.
func None() Spec {
	return Spec{Mode: ModeNone, Interval: 1, End: End{Type: EndNever}}
}

// Decode parses a stored rule string like "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE"
// into a Spec. It never fails: an empty rule or one without a recognizable
// FREQ decodes to the none spec, unknown keys (BYMONTHDAY and other
// unsupported features) are ignored, and a bad INTERVAL falls back to 1. When
// both COUNT and UNTIL are present, COUNT wins.
func Decode(rule string) Spec {
	spec := None()

	var count int
	var until string

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.ToUpper(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])

		switch key {
		case "FREQ":
			if m, ok := modeFromFreq[strings.ToUpper(val)]; ok {
				spec.Mode = m
			}

		case "INTERVAL":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				spec.Interval = n
			}

		case "BYDAY":
			for _, code := range strings.Split(val, ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				if _, ok := weekdayFromCode[code]; ok {
					spec.Weekdays = append(spec.Weekdays, code)
				}
			}

		case "COUNT":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				count = n
			}

		case "UNTIL":
			if len(val) >= 8 {
				if _, err := strconv.Atoi(val[:8]); err == nil {
					until = val[:4] + "-" + val[4:6] + "-" + val[6:8]
				}
			}
		}
	}

	if spec.Mode == ModeNone {
		return None()
	}

	switch {
	case count > 0:
		spec.End = End{Type: EndAfterCount, Count: count}
	case until != "":
		spec.End = End{Type: EndUntil, Until: until}
	}

	return spec
}

// Encode serializes a Spec back into the stored rule format. The none mode
// encodes to the empty string. BYDAY is emitted only for weekly rules with a
// non-empty weekday set.
func (s Spec) Encode() string {
	if s.Mode == ModeNone {
		return ""
	}

	interval := s.Interval
	if interval < 1 {
		interval = 1
	}

	parts := []string{
		"FREQ=" + strings.ToUpper(string(s.Mode)),
		fmt.Sprintf("INTERVAL=%d", interval),
	}

	if s.Mode == ModeWeekly && len(s.Weekdays) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(s.Weekdays, ","))
	}

	switch s.End.Type {
	case EndAfterCount:
		parts = append(parts, fmt.Sprintf("COUNT=%d", s.End.Count))
	case EndUntil:
		parts = append(parts, "UNTIL="+strings.ReplaceAll(s.End.Until, "-", "")+"T000000Z")
	}

	return strings.Join(parts, ";")
}

// Describe returns a human-readable description of the rule for event
// detail views.
func (s Spec) Describe() string {
	switch s.Mode {
	case ModeDaily:
		if s.Interval > 1 {
			return fmt.Sprintf("Repeats every %d days", s.Interval)
		}
		return "Repeats daily"
	case ModeWeekly:
		prefix := "Repeats weekly"
		if s.Interval == 2 {
			prefix = "Repeats every 2 weeks"
		} else if s.Interval > 2 {
			prefix = fmt.Sprintf("Repeats every %d weeks", s.Interval)
		}
		if len(s.Weekdays) > 0 {
			var names []string
			for _, code := range s.Weekdays {
				if wd, ok := weekdayFromCode[code]; ok {
					names = append(names, wd.String()[:3])
				}
			}
			if len(names) > 0 {
				return prefix + " on " + strings.Join(names, ", ")
			}
		}
		return prefix
	case ModeMonthly:
		if s.Interval > 1 {
			return fmt.Sprintf("Repeats every %d months", s.Interval)
		}
		return "Repeats monthly"
	case ModeYearly:
		if s.Interval > 1 {
			return fmt.Sprintf("Repeats every %d years", s.Interval)
		}
		return "Repeats yearly"
	}
	return ""
}
