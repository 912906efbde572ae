package recurrence

import (
	"sort"
	"testing"
	"time"
)

func TestDecodeWeekly(t *testing.T) {
	spec := Decode("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE")
	if spec.Mode != ModeWeekly {
		t.Errorf("mode = %q, want weekly", spec.Mode)
	}
	if spec.Interval != 2 {
		t.Errorf("interval = %d, want 2", spec.Interval)
	}
	if len(spec.Weekdays) != 2 || spec.Weekdays[0] != "MO" || spec.Weekdays[1] != "WE" {
		t.Errorf("weekdays = %v, want [MO WE]", spec.Weekdays)
	}
	if spec.End.Type != EndNever {
		t.Errorf("end type = %q, want never", spec.End.Type)
	}
}

func TestDecodeEmptyRule(t *testing.T) {
	spec := Decode("")
	if spec.Mode != ModeNone {
		t.Errorf("mode = %q, want none", spec.Mode)
	}
	if spec.Interval != 1 {
		t.Errorf("interval = %d, want 1", spec.Interval)
	}
	if spec.End.Type != EndNever {
		t.Errorf("end type = %q, want never", spec.End.Type)
	}
}

func TestDecodeNoFreqYieldsNone(t *testing.T) {
	spec := Decode("INTERVAL=3;BYDAY=MO")
	if spec.Mode != ModeNone {
		t.Errorf("mode = %q, want none", spec.Mode)
	}
	if spec.Interval != 1 || len(spec.Weekdays) != 0 {
		t.Errorf("expected full defaults, got %+v", spec)
	}
}

func TestDecodeUnknownKeysIgnored(t *testing.T) {
	spec := Decode("FREQ=MONTHLY;BYMONTHDAY=15;WKST=MO;X-CUSTOM=1")
	if spec.Mode != ModeMonthly {
		t.Errorf("mode = %q, want monthly", spec.Mode)
	}
	if spec.Interval != 1 {
		t.Errorf("interval = %d, want 1", spec.Interval)
	}
}

func TestDecodeBadIntervalDefaultsToOne(t *testing.T) {
	for _, rule := range []string{"FREQ=DAILY;INTERVAL=abc", "FREQ=DAILY;INTERVAL=0", "FREQ=DAILY;INTERVAL=-2"} {
		if spec := Decode(rule); spec.Interval != 1 {
			t.Errorf("Decode(%q).Interval = %d, want 1", rule, spec.Interval)
		}
	}
}

func TestDecodeCount(t *testing.T) {
	spec := Decode("FREQ=DAILY;COUNT=10")
	if spec.End.Type != EndAfterCount || spec.End.Count != 10 {
		t.Errorf("end = %+v, want count 10", spec.End)
	}
}

func TestDecodeUntil(t *testing.T) {
	spec := Decode("FREQ=WEEKLY;UNTIL=20240915T000000Z")
	if spec.End.Type != EndUntil {
		t.Fatalf("end type = %q, want until", spec.End.Type)
	}
	if spec.End.Until != "2024-09-15" {
		t.Errorf("until = %q, want 2024-09-15", spec.End.Until)
	}
}

func TestDecodeCountWinsOverUntil(t *testing.T) {
	spec := Decode("FREQ=DAILY;UNTIL=20240915T000000Z;COUNT=5")
	if spec.End.Type != EndAfterCount || spec.End.Count != 5 {
		t.Errorf("end = %+v, want count 5", spec.End)
	}
}

func TestEncodeNone(t *testing.T) {
	if got := None().Encode(); got != "" {
		t.Errorf("encode none = %q, want empty", got)
	}
}

func TestEncodeWeekly(t *testing.T) {
	spec := Spec{
		Mode:     ModeWeekly,
		Interval: 2,
		Weekdays: []string{"MO", "WE"},
		End:      End{Type: EndAfterCount, Count: 5},
	}
	want := "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5"
	if got := spec.Encode(); got != want {
		t.Errorf("encode = %q, want %q", got, want)
	}
}

func TestEncodeUntil(t *testing.T) {
	spec := Spec{
		Mode:     ModeMonthly,
		Interval: 1,
		End:      End{Type: EndUntil, Until: "2025-01-31"},
	}
	want := "FREQ=MONTHLY;INTERVAL=1;UNTIL=20250131T000000Z"
	if got := spec.Encode(); got != want {
		t.Errorf("encode = %q, want %q", got, want)
	}
}

func TestEncodeByDayOnlyForWeekly(t *testing.T) {
	spec := Spec{Mode: ModeDaily, Interval: 1, Weekdays: []string{"MO"}, End: End{Type: EndNever}}
	want := "FREQ=DAILY;INTERVAL=1"
	if got := spec.Encode(); got != want {
		t.Errorf("encode = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	specs := []Spec{
		{Mode: ModeDaily, Interval: 1, End: End{Type: EndNever}},
		{Mode: ModeWeekly, Interval: 2, Weekdays: []string{"MO", "WE"}, End: End{Type: EndAfterCount, Count: 5}},
		{Mode: ModeMonthly, Interval: 3, End: End{Type: EndUntil, Until: "2025-06-01"}},
		{Mode: ModeYearly, Interval: 1, End: End{Type: EndNever}},
	}

	for _, spec := range specs {
		got := Decode(spec.Encode())
		if got.Mode != spec.Mode || got.Interval != spec.Interval || got.End != spec.End {
			t.Errorf("round trip %+v -> %+v", spec, got)
		}
		// Weekday sets compare unordered.
		a, b := append([]string(nil), spec.Weekdays...), append([]string(nil), got.Weekdays...)
		sort.Strings(a)
		sort.Strings(b)
		if len(a) != len(b) {
			t.Errorf("round trip weekdays %v -> %v", spec.Weekdays, got.Weekdays)
			continue
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("round trip weekdays %v -> %v", spec.Weekdays, got.Weekdays)
				break
			}
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{Spec{Mode: ModeDaily, Interval: 1}, "Repeats daily"},
		{Spec{Mode: ModeDaily, Interval: 3}, "Repeats every 3 days"},
		{Spec{Mode: ModeWeekly, Interval: 2, Weekdays: []string{"MO", "FR"}}, "Repeats every 2 weeks on Mon, Fri"},
		{Spec{Mode: ModeMonthly, Interval: 1}, "Repeats monthly"},
		{Spec{Mode: ModeNone}, ""},
	}
	for _, tt := range tests {
		if got := tt.spec.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestExpandDaily(t *testing.T) {
	spec := Decode("FREQ=DAILY;INTERVAL=1")
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occs := Expand(spec, start, end,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	)
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	for i, occ := range occs {
		wantStart := start.AddDate(0, 0, i)
		if !occ.Start.Equal(wantStart) {
			t.Errorf("occ[%d].Start = %v, want %v", i, occ.Start, wantStart)
		}
		if occ.End.Sub(occ.Start) != time.Hour {
			t.Errorf("occ[%d] duration = %v, want 1h", i, occ.End.Sub(occ.Start))
		}
	}
}

func TestExpandWeeklyByDay(t *testing.T) {
	// Monday March 4, 2024; repeat Mon+Wed.
	spec := Decode("FREQ=WEEKLY;BYDAY=MO,WE")
	start := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occs := Expand(spec, start, end,
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	)
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2 (Mon+Wed)", len(occs))
	}
	if occs[0].Start.Weekday() != time.Monday {
		t.Errorf("first occurrence on %v, want Monday", occs[0].Start.Weekday())
	}
	if occs[1].Start.Weekday() != time.Wednesday {
		t.Errorf("second occurrence on %v, want Wednesday", occs[1].Start.Weekday())
	}
}

func TestExpandCountLimit(t *testing.T) {
	spec := Decode("FREQ=DAILY;COUNT=3")
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	occs := Expand(spec, start, start.Add(time.Hour),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
}

func TestExpandUntilLimit(t *testing.T) {
	spec := Decode("FREQ=DAILY;UNTIL=20240303T000000Z")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	occs := Expand(spec, start, start.Add(24*time.Hour),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	// March 1, 2, 3 — occurrences at midnight up to and including the
	// until date.
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	spec := Decode("FREQ=MONTHLY")
	start := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	occs := Expand(spec, start, start.Add(time.Hour),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	)
	for _, occ := range occs {
		if occ.Start.Day() != 31 {
			t.Errorf("occurrence on day %d, want 31 (short months skipped)", occ.Start.Day())
		}
	}
	if len(occs) < 2 {
		t.Fatalf("got %d occurrences, want at least Jan and Mar", len(occs))
	}
}

func TestExpandYearly(t *testing.T) {
	spec := Decode("FREQ=YEARLY")
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	occs := Expand(spec, start, start.Add(time.Hour),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	for i, occ := range occs {
		want := time.Date(2024+i, 6, 15, 10, 0, 0, 0, time.UTC)
		if !occ.Start.Equal(want) {
			t.Errorf("occ[%d].Start = %v, want %v", i, occ.Start, want)
		}
	}
}

func TestExpandYearlyFeb29LeapYearsOnly(t *testing.T) {
	// A Feb 29 anchor must fire on leap years only and must not spin
	// through common years without terminating.
	spec := Decode("FREQ=YEARLY")
	start := time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)

	done := make(chan []Occurrence, 1)
	go func() {
		done <- Expand(spec, start, start.Add(time.Hour),
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		)
	}()

	var occs []Occurrence
	select {
	case occs = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Expand did not terminate for a Feb 29 yearly rule")
	}

	want := []time.Time{
		time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC),
		time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC),
		time.Date(2032, 2, 29, 9, 0, 0, 0, time.UTC),
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, occ := range occs {
		if !occ.Start.Equal(want[i]) {
			t.Errorf("occ[%d].Start = %v, want %v", i, occ.Start, want[i])
		}
	}
}

func TestExpandNoneYieldsNothing(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	occs := Expand(None(), start, start.Add(time.Hour), start.AddDate(0, 0, -1), start.AddDate(0, 1, 0))
	if len(occs) != 0 {
		t.Errorf("got %d occurrences, want 0", len(occs))
	}
}

func TestExpandRangeFilter(t *testing.T) {
	spec := Decode("FREQ=WEEKLY")
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// Range several weeks after the series start: only in-range weeks appear.
	occs := Expand(spec, start, start.Add(time.Hour),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	)
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(occs))
	}
	for _, occ := range occs {
		if occ.Start.Before(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("occurrence %v before range start", occ.Start)
		}
	}
}
