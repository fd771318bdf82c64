package ical

import (
	"strings"
	"testing"
	"time"

	"meetcal/internal/meeting"
)

var testNow = time.Date(2014, 10, 5, 2, 47, 28, 832666000, time.UTC)

const skipDateMeeting = `
project: OpenStack Subteam 8 Meeting
schedule:
  - time: '1200'
    day: Monday
    irc: openstack-meeting
    frequency: weekly
    start_date: 20150801
    skip_dates:
      - skip_date: 20150810
        reason: Chair on vacation
chair: Shannon Stacker
description: >
    Weekly meeting for Subteam 8 project.
`

const adhocMeeting = `
project: OpenStack Incident Response
schedule:
  - time: '1500'
    day: Friday
    irc: openstack-meeting
    frequency: adhoc
chair: Joe Developer
description: >
    Convened as needed.
`

const multiChannelMeeting = `
project: OpenStack Subteam Meeting
schedule:
  - time: '1200'
    day: Wednesday
    irc: openstack-meeting
    frequency: biweekly-even
  - time: '1200'
    day: Thursday
    irc: openstack-meeting-alt
    frequency: biweekly-odd
chair: Jane Developer
description: >
    Alternating meeting for Subteam project.
agenda_url: https://example.org/agenda
project_url: https://example.org/project
`

func mustLoad(t *testing.T, data, source string) *meeting.Meeting {
	t.Helper()
	m, err := meeting.Load([]byte(data), source, testNow)
	if err != nil {
		t.Fatalf("Load(%s): %v", source, err)
	}
	return m
}

func TestEmitWeeklyWithSkipDate(t *testing.T) {
	m := mustLoad(t, skipDateMeeting, "subteam8.yaml")
	entries, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want recurring + cancellation", len(entries))
	}

	rec := entries[0]
	if rec.Cancelled {
		t.Error("first entry marked cancelled")
	}
	if rec.Summary != "OpenStack Subteam 8 Meeting" {
		t.Errorf("summary = %q", rec.Summary)
	}
	if rec.Location != "#openstack-meeting" {
		t.Errorf("location = %q", rec.Location)
	}
	// First Monday on or after the 2015-08-01 anchor, at the slot time.
	wantStart := time.Date(2015, 8, 3, 12, 0, 0, 0, time.UTC)
	if rec.Start == nil || !rec.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", rec.Start, wantStart)
	}
	if !strings.Contains(rec.RRule, "FREQ=WEEKLY") {
		t.Errorf("rrule = %q", rec.RRule)
	}
	if rec.Duration != time.Hour {
		t.Errorf("duration = %v", rec.Duration)
	}
	wantEx := time.Date(2015, 8, 10, 12, 0, 0, 0, time.UTC)
	if len(rec.ExDates) != 1 || !rec.ExDates[0].Equal(wantEx) {
		t.Errorf("exdates = %v, want [%v]", rec.ExDates, wantEx)
	}
	for _, want := range []string{
		"Project:  OpenStack Subteam 8 Meeting",
		"Chair:  Shannon Stacker",
		"Description:  Weekly meeting for Subteam 8 project.",
	} {
		if !strings.Contains(rec.Description, want) {
			t.Errorf("description %q missing %q", rec.Description, want)
		}
	}

	cancel := entries[1]
	if !cancel.Cancelled {
		t.Error("second entry not marked cancelled")
	}
	if cancel.Summary != "CANCELLED: OpenStack Subteam 8 Meeting (20150810T120000Z)" {
		t.Errorf("summary = %q", cancel.Summary)
	}
	if cancel.Start == nil || !cancel.Start.Equal(wantEx) {
		t.Errorf("start = %v, want %v", cancel.Start, wantEx)
	}
	if cancel.RRule != "" {
		t.Errorf("cancellation carries rrule %q", cancel.RRule)
	}
	if cancel.Description != "Chair on vacation" {
		t.Errorf("description = %q", cancel.Description)
	}
	if cancel.UID == rec.UID {
		t.Error("cancellation reuses recurring entry UID")
	}
}

func TestEmitAdhoc(t *testing.T) {
	m := mustLoad(t, adhocMeeting, "incident.yaml")
	entries, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Start != nil {
		t.Errorf("adhoc entry has start %v", e.Start)
	}
	if e.RRule != "" {
		t.Errorf("adhoc entry has rrule %q", e.RRule)
	}
	if e.Summary != "OpenStack Incident Response" {
		t.Errorf("summary = %q", e.Summary)
	}
}

func TestEmitMultiScheduleSummaries(t *testing.T) {
	m := mustLoad(t, multiChannelMeeting, "subteam.yaml")
	entries, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d", len(entries))
	}
	if entries[0].Summary != "OpenStack Subteam Meeting (openstack-meeting)" {
		t.Errorf("summary = %q", entries[0].Summary)
	}
	if entries[1].Summary != "OpenStack Subteam Meeting (openstack-meeting-alt)" {
		t.Errorf("summary = %q", entries[1].Summary)
	}
	if entries[0].Summary == entries[1].Summary {
		t.Error("summaries not unique")
	}
}

func TestEmitExtrasURLs(t *testing.T) {
	m := mustLoad(t, multiChannelMeeting, "subteam.yaml")
	entries, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	d := entries[0].Description
	if !strings.Contains(d, "Agenda URL:  https://example.org/agenda") {
		t.Errorf("description missing agenda url: %q", d)
	}
	if !strings.Contains(d, "Project URL:  https://example.org/project") {
		t.Errorf("description missing project url: %q", d)
	}
}

func TestEmitBiweeklyDescriptors(t *testing.T) {
	m := mustLoad(t, multiChannelMeeting, "subteam.yaml")
	entries, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(entries[0].RRule, "BYSETPOS=2,4,6") {
		t.Errorf("even rrule = %q", entries[0].RRule)
	}
	if !strings.Contains(entries[1].RRule, "BYSETPOS=1,3,5") {
		t.Errorf("odd rrule = %q", entries[1].RRule)
	}
}
