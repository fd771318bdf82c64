// Package recurrence computes the next concrete occurrence of a recurring
// meeting from a symbolic rule, and produces the RRULE descriptor the
// calendar output carries for that rule.
//
// Every rule is a pure function over (reference instant, weekday): calling
// NextOccurrence repeatedly with the same inputs yields the same result.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Rule is the closed set of supported recurrence patterns. The unexported
// marker keeps the set closed; dispatch is one method implementation per
// variant rather than an open class hierarchy.
type Rule interface {
	// NextOccurrence returns the next occurrence of the meeting on or after
	// ref, preserving ref's clock time. ok is false when the rule has no
	// computable occurrence (Adhoc). The error is non-nil only for Monthly
	// rules whose ordinal does not exist in the target month.
	NextOccurrence(ref time.Time, day time.Weekday) (t time.Time, ok bool, err error)

	// RRule returns the wire recurrence descriptor (RRULE value) for a
	// schedule held on day. ok is false when the rule emits no descriptor
	// (Adhoc).
	RRule(day time.Weekday) (string, bool)

	// String is a human-readable description used on index pages.
	String() string

	isRule()
}

// ComputationError reports a Monthly rule asking for an ordinal weekday
// that does not exist in the target month (e.g. the 5th Monday of a
// four-Monday month).
type ComputationError struct {
	Ordinal int
	Weekday time.Weekday
	Year    int
	Month   time.Month
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("no %s #%d in %s %d", e.Weekday, e.Ordinal, e.Month, e.Year)
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// nextOnWeekday returns the next instant falling on day, strictly after
// ref: when ref itself is on day the result is a full week out, never
// "today". This is the refined policy; the older behavior kept same-day
// references as-is.
func nextOnWeekday(ref time.Time, day time.Weekday) time.Time {
	daysAhead := (int(day) - int(ref.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return ref.AddDate(0, 0, daysAhead)
}

func isoWeek(t time.Time) int {
	_, wk := t.ISOWeek()
	return wk
}

// Weekly occurs every week on the schedule's weekday.
type Weekly struct{}

func (Weekly) NextOccurrence(ref time.Time, day time.Weekday) (time.Time, bool, error) {
	return nextOnWeekday(ref, day), true, nil
}

func (Weekly) RRule(day time.Weekday) (string, bool) {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rruleWeekdays[day]}}
	return opt.RRuleString(), true
}

func (Weekly) String() string { return "Weekly" }
func (Weekly) isRule()        {}

// Parity selects which ISO weeks a Biweekly rule fires on.
type Parity int

const (
	Even Parity = iota
	Odd
)

func (p Parity) String() string {
	if p == Odd {
		return "odd"
	}
	return "even"
}

// Biweekly occurs on alternate weeks, selected by ISO week number parity.
type Biweekly struct {
	Parity Parity
}

func (b Biweekly) NextOccurrence(ref time.Time, day time.Weekday) (time.Time, bool, error) {
	next := nextOnWeekday(ref, day)
	odd := isoWeek(next)%2 == 1
	if odd == (b.Parity == Odd) {
		return next, true, nil
	}
	// Wrong parity: the following week necessarily matches.
	return next.AddDate(0, 0, 7), true, nil
}

// RRule expresses the alternating cadence as monthly BYDAY+BYSETPOS.
// Set positions 1,3,5 (odd weeks) and 2,4,6 (even weeks) tolerate months
// with five occurrences of the weekday; a plain WEEKLY;INTERVAL=2 drifts
// against ISO parity over year boundaries.
func (b Biweekly) RRule(day time.Weekday) (string, bool) {
	pos := []int{2, 4, 6}
	if b.Parity == Odd {
		pos = []int{1, 3, 5}
	}
	opt := rrule.ROption{
		Freq:      rrule.MONTHLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Bysetpos:  pos,
	}
	return opt.RRuleString(), true
}

func (b Biweekly) String() string {
	return fmt.Sprintf("Every two weeks (on %s weeks)", b.Parity)
}
func (Biweekly) isRule() {}

// QuadWeekly occurs every fourth week. Offset selects which week of the
// rotation: occurrences fall in ISO weeks where week mod 4 == Offset.
type QuadWeekly struct {
	Offset int // 0..3
}

func (q QuadWeekly) NextOccurrence(ref time.Time, day time.Weekday) (time.Time, bool, error) {
	next := nextOnWeekday(ref, day)
	// The cycle length is 4, so one of the next four weeks matches.
	for i := 0; i < 4; i++ {
		if isoWeek(next)%4 == q.Offset {
			return next, true, nil
		}
		next = next.AddDate(0, 0, 7)
	}
	return next, true, nil
}

// RRule emits WEEKLY;INTERVAL=4, a known approximation: the standard
// grammar cannot anchor an interval to the ISO week rotation, so the
// emitted cycle starts from DTSTART rather than from week numbers. Kept
// as-is to match the published calendars.
func (q QuadWeekly) RRule(day time.Weekday) (string, bool) {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  4,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
	}
	return opt.RRuleString(), true
}

func (q QuadWeekly) String() string {
	return fmt.Sprintf("Every four weeks on week %d of the four week rotation", q.Offset)
}
func (QuadWeekly) isRule() {}

// Monthly occurs on the Ordinal-th Weekday of each month (e.g. the first
// Monday). Ordinal is 1-indexed.
type Monthly struct {
	Ordinal int
	Weekday time.Weekday
}

func (m Monthly) NextOccurrence(ref time.Time, day time.Weekday) (time.Time, bool, error) {
	// Advance to the first day of the following month, keeping clock time.
	first := time.Date(ref.Year(), ref.Month()+1, 1,
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())

	// Day-of-month of the first `day` in that month, then step ordinals.
	offset := (int(day) - int(first.Weekday()) + 7) % 7
	dom := 1 + offset + (m.Ordinal-1)*7

	// Day 0 of the month after next is the last day of the target month.
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, ref.Location()).Day()
	if dom > lastDay {
		return time.Time{}, false, &ComputationError{
			Ordinal: m.Ordinal,
			Weekday: day,
			Year:    first.Year(),
			Month:   first.Month(),
		}
	}
	return time.Date(first.Year(), first.Month(), dom,
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location()), true, nil
}

func (m Monthly) RRule(time.Weekday) (string, bool) {
	wd := rruleWeekdays[m.Weekday]
	opt := rrule.ROption{
		Freq:      rrule.MONTHLY,
		Byweekday: []rrule.Weekday{wd.Nth(m.Ordinal)},
	}
	return opt.RRuleString(), true
}

func (m Monthly) String() string { return "Monthly" }
func (Monthly) isRule()          {}

// Adhoc is a meeting with no fixed schedule; there is never a next
// occurrence and no recurrence descriptor.
type Adhoc struct{}

func (Adhoc) NextOccurrence(time.Time, time.Weekday) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (Adhoc) RRule(time.Weekday) (string, bool) { return "", false }

func (Adhoc) String() string { return "Occurs as needed, no fixed schedule." }
func (Adhoc) isRule()        {}

// supported maps the frequency names accepted in schedule records to rule
// values.
var supported = map[string]Rule{
	"weekly":               Weekly{},
	"biweekly-odd":         Biweekly{Parity: Odd},
	"biweekly-even":        Biweekly{Parity: Even},
	"quadweekly":           QuadWeekly{Offset: 0},
	"quadweekly-week-1":    QuadWeekly{Offset: 1},
	"quadweekly-week-2":    QuadWeekly{Offset: 2},
	"quadweekly-week-3":    QuadWeekly{Offset: 3},
	"quadweekly-alternate": QuadWeekly{Offset: 2},
	"adhoc":                Adhoc{},
	"first-monday":         Monthly{Ordinal: 1, Weekday: time.Monday},
	"first-tuesday":        Monthly{Ordinal: 1, Weekday: time.Tuesday},
	"first-wednesday":      Monthly{Ordinal: 1, Weekday: time.Wednesday},
	"first-thursday":       Monthly{Ordinal: 1, Weekday: time.Thursday},
	"first-friday":         Monthly{Ordinal: 1, Weekday: time.Friday},
}

// FromFrequency resolves a frequency name from a schedule record.
func FromFrequency(freq string) (Rule, error) {
	r, ok := supported[freq]
	if !ok {
		return nil, fmt.Errorf("unsupported frequency %q", freq)
	}
	return r, nil
}
