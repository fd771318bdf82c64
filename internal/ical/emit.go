// Package ical turns meeting schedules into calendar entries and encodes
// them as iCalendar subscription files.
package ical

import (
	"fmt"
	"strings"
	"time"

	"meetcal/internal/meeting"
	"meetcal/internal/recurrence"
)

// Entry is one calendar event before wire encoding: either the recurring
// event for a schedule, a single dtstart-less event for an ad hoc
// schedule, or a cancellation placeholder for a skipped occurrence.
type Entry struct {
	UID         string
	Summary     string
	Location    string
	Description string

	// Start is nil for ad hoc schedules, which have no computable next
	// occurrence.
	Start    *time.Time
	RRule    string // empty when the entry does not recur
	Duration time.Duration
	ExDates  []time.Time

	// Cancelled marks a placeholder entry for a skipped occurrence.
	Cancelled bool
}

// Emit converts a meeting's schedules into calendar entries: first the
// recurring (or ad hoc) entry per schedule, then one cancellation
// placeholder per skip date. Two linear passes, no re-entry.
func Emit(m *meeting.Meeting) ([]Entry, error) {
	var entries []Entry

	for i, s := range m.Schedules {
		e := Entry{
			UID:         entryUID(m, i, ""),
			Summary:     scheduleSummary(m, s),
			Location:    "#" + s.Channel,
			Description: scheduleDescription(m),
			Duration:    time.Duration(s.Duration) * time.Minute,
		}

		next, ok, err := s.Rule.NextOccurrence(s.StartDate, s.Weekday)
		if err != nil {
			return nil, err
		}
		if ok {
			start := time.Date(next.Year(), next.Month(), next.Day(),
				s.Hour, s.Minute, 0, 0, time.UTC)
			e.Start = &start
			if rr, has := s.Rule.RRule(s.Weekday); has {
				e.RRule = rr
			}
			for _, sk := range s.SkipDates {
				e.ExDates = append(e.ExDates, sk.Date)
			}
		}
		entries = append(entries, e)
	}

	// Second pass: a skipped occurrence still shows up on the calendar,
	// as an obviously-cancelled standalone event at the skipped instant.
	for i, s := range m.Schedules {
		if _, isAdhoc := s.Rule.(recurrence.Adhoc); isAdhoc {
			continue
		}
		for _, sk := range s.SkipDates {
			start := sk.Date
			entries = append(entries, Entry{
				UID: entryUID(m, i, sk.Timestamp()),
				// The timestamp keeps summaries unique across multiple
				// cancellations of the same meeting.
				Summary:     fmt.Sprintf("CANCELLED: %s (%s)", scheduleSummary(m, s), sk.Timestamp()),
				Location:    "#" + s.Channel,
				Description: sk.Reason,
				Start:       &start,
				Duration:    time.Duration(s.Duration) * time.Minute,
				Cancelled:   true,
			})
		}
	}

	return entries, nil
}

// scheduleSummary keeps summaries unique within one output file: some
// calendar consumers reject duplicate summaries, so meetings with several
// schedules get the channel appended.
func scheduleSummary(m *meeting.Meeting, s *meeting.Schedule) string {
	if len(m.Schedules) > 1 {
		return m.Project + " (" + s.Channel + ")"
	}
	return m.Project
}

func scheduleDescription(m *meeting.Meeting) string {
	lines := []string{
		"Project:  " + m.Project,
		"Chair:  " + m.Chair,
		"Description:  " + m.Description,
	}
	if v, ok := m.Extras["agenda_url"]; ok {
		lines = append(lines, fmt.Sprintf("Agenda URL:  %v", v))
	}
	if v, ok := m.Extras["project_url"]; ok {
		lines = append(lines, fmt.Sprintf("Project URL:  %v", v))
	}
	return strings.Join(lines, "\n")
}

// entryUID derives a deterministic per-event UID from the source file and
// schedule index, so regenerated calendars keep stable identities.
func entryUID(m *meeting.Meeting, idx int, cancelTS string) string {
	base := strings.TrimSuffix(m.OutFile, ".ics")
	if cancelTS != "" {
		return fmt.Sprintf("%s-%d-cancel-%s@meetcal", base, idx, cancelTS)
	}
	return fmt.Sprintf("%s-%d@meetcal", base, idx)
}
