package meeting

import "fmt"

// ConflictError reports two meetings double-booking a channel. It is the
// signal that gates publishing: always fatal, never auto-resolved.
type ConflictError struct {
	First  string
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict between %s and %s", e.First, e.Second)
}

// CheckConflicts tests every schedule of every meeting pair and fails on
// the first conflict found. The check is a pre-publish gate, not a report
// generator: proving no conflict exists is enough, so it stops early.
// Quadratic in meetings and schedules, which stay small in practice.
func CheckConflicts(meetings []*Meeting) error {
	for i := range meetings {
		for j := i + 1; j < len(meetings); j++ {
			for _, s := range meetings[i].Schedules {
				for _, other := range meetings[j].Schedules {
					if s.ConflictsWith(other) {
						return &ConflictError{First: s.File, Second: other.File}
					}
				}
			}
		}
	}
	return nil
}
