// Package index renders an HTML index page of all meetings from a
// user-supplied template.
package index

import (
	"html/template"
	"os"
	"path/filepath"
	"time"

	appLog "meetcal/internal/log"
	"meetcal/internal/meeting"
)

// Page is the data handed to the index template.
type Page struct {
	Meetings  []*meeting.Meeting
	Timestamp time.Time
}

// Render writes an index of meetings to outPath using the template at
// templatePath. The template can call batchMeetings to lay meetings out
// in columns. now is injected for the generation timestamp.
func Render(meetings []*meeting.Meeting, templatePath, outPath string, now time.Time) error {
	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(template.FuncMap{
		"batchMeetings": BatchMeetings,
	}).ParseFiles(templatePath)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := tmpl.Execute(out, Page{Meetings: meetings, Timestamp: now}); err != nil {
		return err
	}
	appLog.Info("wrote index", "file", outPath, "meeting_count", len(meetings))
	return nil
}

// BatchMeetings pivots the meeting list into batchSize virtual columns so
// a template iterating row-by-row renders the list column-major:
//
//	[A B C D E F G H I] with 4 columns renders as
//	A D F H
//	B E G I
//	C
func BatchMeetings(meetings []*meeting.Meeting, batchSize int) []*meeting.Meeting {
	if batchSize <= 0 {
		return meetings
	}
	colLength := len(meetings)/batchSize + 1
	out := make([]*meeting.Meeting, len(meetings))
	src := 0
	for row := 0; row < batchSize; row++ {
		for col := 0; col < colLength; col++ {
			dest := col*batchSize + row
			if dest >= len(meetings) {
				break
			}
			out[dest] = meetings[src]
			src++
		}
	}
	return out
}
