package meeting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"meetcal/internal/recurrence"
)

// ValidationError reports a malformed or missing field in a schedule or
// meeting record. It aborts processing of that record at load time.
type ValidationError struct {
	File   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %q: %s", e.File, e.Field, e.Reason)
}

// weekdayNames maps recognized (capitalized) weekday names. An
// unrecognized day is a validation failure, never a silent default.
var weekdayNames = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// weekAnchors places each weekday on a fixed reference week (Monday
// 1900-01-01 through Sunday 1900-01-07) so that weekday plus time of day
// becomes a single comparable instant.
var weekAnchors = map[time.Weekday]time.Time{
	time.Monday:    time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Tuesday:   time.Date(1900, 1, 2, 0, 0, 0, 0, time.UTC),
	time.Wednesday: time.Date(1900, 1, 3, 0, 0, 0, 0, time.UTC),
	time.Thursday:  time.Date(1900, 1, 4, 0, 0, 0, 0, time.UTC),
	time.Friday:    time.Date(1900, 1, 5, 0, 0, 0, 0, time.UTC),
	time.Saturday:  time.Date(1900, 1, 6, 0, 0, 0, 0, time.UTC),
	time.Sunday:    time.Date(1900, 1, 7, 0, 0, 0, 0, time.UTC),
}

const defaultDurationMinutes = 60

// SkipDate is a one-off cancellation: the exact UTC instant of the
// skipped occurrence plus a human-readable reason.
type SkipDate struct {
	Date   time.Time
	Reason string
}

// Timestamp renders the skipped instant in the basic UTC wire form,
// e.g. 20150810T120000Z.
func (s SkipDate) Timestamp() string {
	return s.Date.UTC().Format("20060102T150405Z")
}

// Schedule is one time/day/channel slot of a meeting. It is built once at
// load time and read-only afterwards.
type Schedule struct {
	Project string
	File    string

	Hour    int
	Minute  int
	Day     string // normalized weekday name
	Weekday time.Weekday
	Channel string
	Freq    string
	Rule    recurrence.Rule

	Duration  int // minutes
	StartDate time.Time
	SkipDates []SkipDate

	// Occurrence mapped onto the fixed reference week, half-open
	// [intervalStart, intervalEnd).
	intervalStart time.Time
	intervalEnd   time.Time
}

type scheduleRecord struct {
	Time      string       `yaml:"time"`
	Day       string       `yaml:"day"`
	IRC       string       `yaml:"irc"`
	Channel   string       `yaml:"channel"`
	Frequency string       `yaml:"frequency"`
	Duration  any          `yaml:"duration"`
	StartDate any          `yaml:"start_date"`
	SkipDates []skipRecord `yaml:"skip_dates"`
}

type skipRecord struct {
	SkipDate any    `yaml:"skip_date"`
	Reason   string `yaml:"reason"`
}

// newSchedule validates one schedule record and derives the synthetic-week
// interval. now supplies the anchor date when start_date is absent; it is
// injected so loading stays deterministic under test.
func newSchedule(m *Meeting, rec scheduleRecord, now time.Time) (*Schedule, error) {
	s := &Schedule{
		Project: m.Project,
		File:    m.File,
	}

	if rec.Time == "" {
		return nil, &ValidationError{File: m.File, Field: "time", Reason: "missing"}
	}
	t, err := time.Parse("1504", rec.Time)
	if err != nil {
		return nil, &ValidationError{File: m.File, Field: "time", Reason: fmt.Sprintf("cannot parse %q as HHMM", rec.Time)}
	}
	s.Hour, s.Minute = t.Hour(), t.Minute()

	if rec.Day == "" {
		return nil, &ValidationError{File: m.File, Field: "day", Reason: "missing"}
	}
	s.Day = capitalize(rec.Day)
	wd, ok := weekdayNames[s.Day]
	if !ok {
		return nil, &ValidationError{File: m.File, Field: "day", Reason: fmt.Sprintf("%q is not a valid day of the week", rec.Day)}
	}
	s.Weekday = wd

	s.Channel = rec.IRC
	if s.Channel == "" {
		s.Channel = rec.Channel
	}
	if s.Channel == "" {
		return nil, &ValidationError{File: m.File, Field: "irc", Reason: "missing"}
	}

	if rec.Frequency == "" {
		return nil, &ValidationError{File: m.File, Field: "frequency", Reason: "missing"}
	}
	rule, err := recurrence.FromFrequency(rec.Frequency)
	if err != nil {
		return nil, &ValidationError{File: m.File, Field: "frequency", Reason: err.Error()}
	}
	s.Freq = rec.Frequency
	s.Rule = rule

	s.Duration = defaultDurationMinutes
	if rec.Duration != nil {
		d, err := toInt(rec.Duration)
		if err != nil || d <= 0 {
			return nil, &ValidationError{File: m.File, Field: "duration", Reason: fmt.Sprintf("could not parse %v as positive minutes", rec.Duration)}
		}
		s.Duration = d
	}

	s.StartDate = now
	if rec.StartDate != nil {
		sd, err := time.Parse("20060102", fmt.Sprint(rec.StartDate))
		if err != nil {
			return nil, &ValidationError{File: m.File, Field: "start_date", Reason: fmt.Sprintf("could not parse %v", rec.StartDate)}
		}
		s.StartDate = sd
	}

	for _, sk := range rec.SkipDates {
		if sk.SkipDate == nil {
			return nil, &ValidationError{File: m.File, Field: "skip_dates", Reason: "missing skip_date"}
		}
		if sk.Reason == "" {
			return nil, &ValidationError{File: m.File, Field: "skip_dates", Reason: "missing reason"}
		}
		d, err := time.Parse("20060102", fmt.Sprint(sk.SkipDate))
		if err != nil {
			return nil, &ValidationError{File: m.File, Field: "skip_dates", Reason: fmt.Sprintf("could not parse skip_date %v", sk.SkipDate)}
		}
		// The skipped instant carries the meeting's time of day; a bare
		// date never matches a scheduled occurrence.
		s.SkipDates = append(s.SkipDates, SkipDate{
			Date:   time.Date(d.Year(), d.Month(), d.Day(), s.Hour, s.Minute, 0, 0, time.UTC),
			Reason: sk.Reason,
		})
	}

	s.intervalStart = weekAnchors[s.Weekday].Add(
		time.Duration(s.Hour)*time.Hour + time.Duration(s.Minute)*time.Minute)
	s.intervalEnd = s.intervalStart.Add(time.Duration(s.Duration) * time.Minute)
	// A Sunday meeting running past midnight spills onto the following
	// synthetic Monday; shift it back a week so every interval stays
	// inside one canonical week window.
	if s.Weekday == time.Sunday && s.intervalEnd.Weekday() == time.Monday {
		s.intervalStart = s.intervalStart.AddDate(0, 0, -7)
		s.intervalEnd = s.intervalEnd.AddDate(0, 0, -7)
	}

	return s, nil
}

// ConflictsWith reports whether two schedules double-book a channel.
// Intervals are half-open, so back-to-back meetings do not conflict, and
// a biweekly-odd/biweekly-even pair sharing a slot is the deliberate
// alternating-week idiom, never a conflict.
func (s *Schedule) ConflictsWith(other *Schedule) bool {
	if s.Channel != other.Channel {
		return false
	}
	// intervalStart already encodes the weekday, so no separate day check.
	if !(s.intervalStart.Before(other.intervalEnd) && other.intervalStart.Before(s.intervalEnd)) {
		return false
	}
	if (s.Freq == "biweekly-odd" && other.Freq == "biweekly-even") ||
		(s.Freq == "biweekly-even" && other.Freq == "biweekly-odd") {
		return false
	}
	return true
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}
