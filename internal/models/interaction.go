package models

import (
	"strings"
	"time"
)

// AssignmentMarker is the literal the generator embeds when a response carries
// an accountability assignment. Interactions whose response contains it are
// tracked for later completion.
const AssignmentMarker = "Your assignment:"

// Interaction represents one request/response exchange in a user's history.
type Interaction struct {
	ID          int64      `json:"id"`
	Input       string     `json:"input"`
	Response    string     `json:"response"`
	Timestamp   time.Time  `json:"timestamp"`
	IsFollowUp  bool       `json:"isFollowUp"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// HasAssignment reports whether the interaction's response carries an assignment.
func (i *Interaction) HasAssignment() bool {
	return strings.Contains(i.Response, AssignmentMarker)
}

// IsPendingAssignment reports whether the interaction is an assignment that has
// not yet been reported complete. Follow-up interactions never carry their own
// assignments for tracking purposes.
func (i *Interaction) IsPendingAssignment() bool {
	return !i.IsFollowUp && !i.Completed && i.HasAssignment()
}

// PendingAssignments returns up to max pending assignments from history, most
// recent last (history order preserved).
func PendingAssignments(history []Interaction, max int) []Interaction {
	var pending []Interaction
	for i := range history {
		if history[i].IsPendingAssignment() {
			pending = append(pending, history[i])
		}
	}
	if max > 0 && len(pending) > max {
		pending = pending[len(pending)-max:]
	}
	return pending
}

// CompletedAssignments returns up to max completed assignments from history,
// most recent last.
func CompletedAssignments(history []Interaction, max int) []Interaction {
	var done []Interaction
	for i := range history {
		it := &history[i]
		if !it.IsFollowUp && it.Completed && it.HasAssignment() {
			done = append(done, *it)
		}
	}
	if max > 0 && len(done) > max {
		done = done[len(done)-max:]
	}
	return done
}
