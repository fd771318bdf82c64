package ical

import (
	"os"
	"path/filepath"

	ics "github.com/arran4/golang-ical"

	appLog "meetcal/internal/log"
	"meetcal/internal/meeting"
)

const prodID = "-//meetcal agendas//EN"

// NewCalendar builds an empty calendar with our product id and optional
// subscription name/description headers.
func NewCalendar(name, description string) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	if description != "" {
		cal.SetXWRCalDesc(description)
	}
	return cal
}

// AddMeeting emits the meeting's entries into cal.
func AddMeeting(cal *ics.Calendar, m *meeting.Meeting) error {
	entries, err := Emit(m)
	if err != nil {
		return err
	}
	for _, e := range entries {
		ev := cal.AddEvent(e.UID)
		ev.SetSummary(e.Summary)
		ev.SetLocation(e.Location)
		ev.SetDescription(e.Description)
		if e.Start != nil {
			ev.SetStartAt(e.Start.UTC())
			ev.SetEndAt(e.Start.UTC().Add(e.Duration))
		}
		if e.RRule != "" {
			ev.AddRrule(e.RRule)
		}
		for _, x := range e.ExDates {
			ev.AddExdate(x.UTC().Format("20060102T150405Z"))
		}
	}
	return nil
}

// WriteMeetings writes one .ics file per meeting into outDir.
func WriteMeetings(meetings []*meeting.Meeting, outDir string) error {
	for _, m := range meetings {
		cal := NewCalendar("", "")
		if err := AddMeeting(cal, m); err != nil {
			return err
		}
		path := filepath.Join(outDir, m.OutFile)
		if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
			return err
		}
		appLog.Debug("wrote meeting calendar", "file", path)
	}
	appLog.Info("wrote meeting calendars", "dir", outDir, "count", len(meetings))
	return nil
}

// WriteCombined writes all meetings into a single .ics file.
func WriteCombined(meetings []*meeting.Meeting, path, name, description string) error {
	cal := NewCalendar(name, description)
	for _, m := range meetings {
		if err := AddMeeting(cal, m); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return err
	}
	appLog.Info("wrote combined calendar", "file", path, "meeting_count", len(meetings))
	return nil
}
