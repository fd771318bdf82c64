// Package meeting models recurring meeting definitions loaded from YAML
// records: per-meeting metadata, one or more schedules, and the pairwise
// conflict gate run before any calendar output is published.
package meeting

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "meetcal/internal/log"
)

// Meeting is one recurring meeting definition: metadata plus an ordered,
// non-empty set of schedules. Built once from a record, read-only after.
type Meeting struct {
	Project     string
	Chair       string
	Description string

	// File identifies the originating record for diagnostics.
	File string
	// OutFile is the per-meeting output filename (<source>.ics).
	OutFile string

	// Extras carries record keys not otherwise modeled (e.g. agenda_url),
	// passed through untouched to rendering.
	Extras map[string]any

	Schedules []*Schedule
}

type meetingRecord struct {
	Project     string           `yaml:"project"`
	Chair       string           `yaml:"chair"`
	Description string           `yaml:"description"`
	Schedule    []scheduleRecord `yaml:"schedule"`
}

// Load builds a Meeting from one YAML record. source is the originating
// filename (diagnostics and output naming); now anchors schedules that
// carry no explicit start_date.
func Load(data []byte, source string, now time.Time) (*Meeting, error) {
	if source == "" {
		source = "stdin"
	}

	var rec meetingRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, &ValidationError{File: source, Field: "yaml", Reason: err.Error()}
	}

	m := &Meeting{
		Project:     rec.Project,
		Chair:       rec.Chair,
		Description: rec.Description,
		File:        source,
		OutFile:     strings.TrimSuffix(source, filepath.Ext(source)) + ".ics",
	}
	if m.Project == "" {
		return nil, &ValidationError{File: source, Field: "project", Reason: "missing"}
	}
	if m.Chair == "" {
		return nil, &ValidationError{File: source, Field: "chair", Reason: "missing"}
	}
	if m.Description == "" {
		return nil, &ValidationError{File: source, Field: "description", Reason: "missing"}
	}
	if len(rec.Schedule) == 0 {
		return nil, &ValidationError{File: source, Field: "schedule", Reason: "missing or empty"}
	}

	// Keep every key the record author added beyond the modeled ones so
	// templates can reach them.
	var extras map[string]any
	if err := yaml.Unmarshal(data, &extras); err != nil {
		return nil, &ValidationError{File: source, Field: "yaml", Reason: err.Error()}
	}
	for _, k := range []string{"project", "chair", "description", "schedule"} {
		delete(extras, k)
	}
	m.Extras = extras

	for _, sr := range rec.Schedule {
		s, err := newSchedule(m, sr, now)
		if err != nil {
			return nil, err
		}
		m.Schedules = append(m.Schedules, s)
	}

	return m, nil
}

// LoadFile loads a single .yaml meeting definition.
func LoadFile(path string, now time.Time) (*Meeting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, filepath.Base(path), now)
}

// LoadPath loads meeting definitions from a .yaml file or, recursively,
// from every .yaml file under a directory. Results are sorted by project
// name. Finding no definitions at all is an error.
func LoadPath(path string, now time.Time) ([]*Meeting, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var meetings []*Meeting
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(p) != ".yaml" {
				return nil
			}
			m, err := LoadFile(p, now)
			if err != nil {
				return err
			}
			meetings = append(meetings, m)
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else if filepath.Ext(path) == ".yaml" {
		m, err := LoadFile(path, now)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}

	if len(meetings) == 0 {
		return nil, fmt.Errorf("no .yaml file or directory containing .yaml files found at %s", path)
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].Project < meetings[j].Project
	})
	appLog.Info("meetings loaded", "path", path, "count", len(meetings))
	return meetings, nil
}
