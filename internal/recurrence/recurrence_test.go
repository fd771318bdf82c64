package recurrence

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// refInstant is a Sunday; ISO week 40 of 2014.
var refInstant = time.Date(2014, 10, 5, 2, 47, 28, 832666000, time.UTC)

func nextMeeting(t *testing.T, r Rule) time.Time {
	t.Helper()
	got, ok, err := r.NextOccurrence(refInstant, time.Wednesday)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	if !ok {
		t.Fatal("NextOccurrence: no occurrence")
	}
	return got
}

func wantDate(t *testing.T, got time.Time, year int, month time.Month, day int) {
	t.Helper()
	want := time.Date(year, month, day, 2, 47, 28, 832666000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("next occurrence = %v, want %v", got, want)
	}
}

func TestNextWeekly(t *testing.T) {
	wantDate(t, nextMeeting(t, Weekly{}), 2014, time.October, 8)
}

func TestNextBiweeklyOdd(t *testing.T) {
	// 2014-10-08 falls in ISO week 41.
	wantDate(t, nextMeeting(t, Biweekly{Parity: Odd}), 2014, time.October, 8)
}

func TestNextBiweeklyEven(t *testing.T) {
	// 2014-10-15 falls in ISO week 42.
	wantDate(t, nextMeeting(t, Biweekly{Parity: Even}), 2014, time.October, 15)
}

func TestNextQuadWeekly(t *testing.T) {
	// ISO weeks for the following Wednesdays: Oct 8 → 41, Oct 15 → 42,
	// Oct 22 → 43, Oct 29 → 44.
	wantDate(t, nextMeeting(t, QuadWeekly{Offset: 0}), 2014, time.October, 29)
	wantDate(t, nextMeeting(t, QuadWeekly{Offset: 1}), 2014, time.October, 8)
	wantDate(t, nextMeeting(t, QuadWeekly{Offset: 2}), 2014, time.October, 15)
	wantDate(t, nextMeeting(t, QuadWeekly{Offset: 3}), 2014, time.October, 22)
}

// A reference already on the target weekday pushes a full week out rather
// than returning the same day.
func TestWeeklyOnTargetDayPushesAWeek(t *testing.T) {
	ref := time.Date(2014, 10, 8, 12, 0, 0, 0, time.UTC) // a Wednesday
	got, _, _ := Weekly{}.NextOccurrence(ref, time.Wednesday)
	want := time.Date(2014, 10, 15, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("next occurrence = %v, want %v", got, want)
	}
}

func TestWeeklyLandsWithinSevenDays(t *testing.T) {
	days := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	for _, day := range days {
		for offset := 0; offset < 7; offset++ {
			ref := refInstant.AddDate(0, 0, offset)
			got, _, _ := Weekly{}.NextOccurrence(ref, day)
			if got.Weekday() != day {
				t.Errorf("ref %v day %v: landed on %v", ref, day, got.Weekday())
			}
			ahead := got.Sub(ref)
			if ahead <= 0 || ahead > 7*24*time.Hour {
				t.Errorf("ref %v day %v: %v ahead, want (0, 168h]", ref, day, ahead)
			}
		}
	}
}

// Exactly one of the two biweekly rules fires in an odd ISO week for any
// reference instant, and the two never land on the same date.
func TestBiweeklyParityPartition(t *testing.T) {
	for offset := 0; offset < 28; offset++ {
		ref := refInstant.AddDate(0, 0, offset)
		odd, _, _ := Biweekly{Parity: Odd}.NextOccurrence(ref, time.Wednesday)
		even, _, _ := Biweekly{Parity: Even}.NextOccurrence(ref, time.Wednesday)

		if isoWeek(odd)%2 != 1 {
			t.Errorf("ref %v: odd rule landed in even week %d", ref, isoWeek(odd))
		}
		if isoWeek(even)%2 != 0 {
			t.Errorf("ref %v: even rule landed in odd week %d", ref, isoWeek(even))
		}
		if odd.Equal(even) {
			t.Errorf("ref %v: both rules landed on %v", ref, odd)
		}
	}
}

func TestNextMonthly(t *testing.T) {
	// November 2014 starts on a Saturday; the first Wednesday is Nov 5.
	r := Monthly{Ordinal: 1, Weekday: time.Wednesday}
	wantDate(t, nextMeeting(t, r), 2014, time.November, 5)
}

func TestMonthlyMissingOrdinal(t *testing.T) {
	// November 2014 has only four Mondays.
	r := Monthly{Ordinal: 5, Weekday: time.Monday}
	_, _, err := r.NextOccurrence(refInstant, time.Monday)
	if err == nil {
		t.Fatal("expected error for 5th Monday of November 2014")
	}
	var cerr *ComputationError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %T, want *ComputationError", err)
	}
	if cerr.Ordinal != 5 || cerr.Month != time.November || cerr.Year != 2014 {
		t.Errorf("unexpected error detail: %+v", cerr)
	}
}

func TestAdhocHasNoOccurrence(t *testing.T) {
	_, ok, err := Adhoc{}.NextOccurrence(refInstant, time.Wednesday)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	if ok {
		t.Error("adhoc rule reported an occurrence")
	}
	if _, has := (Adhoc{}).RRule(time.Wednesday); has {
		t.Error("adhoc rule reported a descriptor")
	}
}

func TestDescriptors(t *testing.T) {
	cases := []struct {
		rule Rule
		want []string
	}{
		{Weekly{}, []string{"FREQ=WEEKLY", "BYDAY=WE"}},
		{Biweekly{Parity: Odd}, []string{"FREQ=MONTHLY", "BYDAY=WE", "BYSETPOS=1,3,5"}},
		{Biweekly{Parity: Even}, []string{"FREQ=MONTHLY", "BYDAY=WE", "BYSETPOS=2,4,6"}},
		{QuadWeekly{}, []string{"FREQ=WEEKLY", "INTERVAL=4", "BYDAY=WE"}},
		{Monthly{Ordinal: 1, Weekday: time.Monday}, []string{"FREQ=MONTHLY", "1MO"}},
	}
	for _, c := range cases {
		got, ok := c.rule.RRule(time.Wednesday)
		if !ok {
			t.Errorf("%v: no descriptor", c.rule)
			continue
		}
		for _, part := range c.want {
			if !strings.Contains(got, part) {
				t.Errorf("%v: descriptor %q missing %q", c.rule, got, part)
			}
		}
	}
}

func TestNextOccurrenceIsIdempotent(t *testing.T) {
	rules := []Rule{
		Weekly{}, Biweekly{Parity: Odd}, Biweekly{Parity: Even},
		QuadWeekly{Offset: 2}, Monthly{Ordinal: 1, Weekday: time.Wednesday},
	}
	for _, r := range rules {
		first, _, _ := r.NextOccurrence(refInstant, time.Wednesday)
		second, _, _ := r.NextOccurrence(refInstant, time.Wednesday)
		if !first.Equal(second) {
			t.Errorf("%v: %v then %v for identical inputs", r, first, second)
		}
	}
}

func TestFromFrequency(t *testing.T) {
	r, err := FromFrequency("quadweekly-alternate")
	if err != nil {
		t.Fatalf("FromFrequency: %v", err)
	}
	if q, ok := r.(QuadWeekly); !ok || q.Offset != 2 {
		t.Errorf("quadweekly-alternate = %#v, want QuadWeekly offset 2", r)
	}

	if _, err := FromFrequency("fortnightly"); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
