package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

// BuildContext composes the text handed to the generation call. Pure text
// construction: it never mutates history.
//
// Non-follow-ups pass through unchanged. Follow-ups get the prior exchange and
// assignment state woven in, with explicit instructions for the generator:
// judge completion vs excuse for a single pending assignment, challenge
// vagueness on a mass claim over several, or acknowledge progress and issue
// the next assignment when nothing is pending.
func BuildContext(message string, last *models.Interaction, isFollowUp bool, pending, completed []models.Interaction, massClaim bool, now time.Time) string {
	if !isFollowUp || last == nil {
		return message
	}

	var b strings.Builder

	switch {
	case len(pending) == 0:
		b.WriteString("FOLLOW-UP: The user has no outstanding assignments.\n")
		if len(completed) > 0 {
			b.WriteString("Recently completed assignments:\n")
			writeAssignmentList(&b, completed, now)
		} else {
			fmt.Fprintf(&b, "Their previous situation was: %q and your last response was: %q\n", last.Input, last.Response)
		}
		fmt.Fprintf(&b, "\nUser now says: %q\n", message)
		b.WriteString("\nAcknowledge their progress and issue the next assignment.")

	case len(pending) == 1:
		a := pending[0]
		fmt.Fprintf(&b, "FOLLOW-UP: The user's previous situation was: %q and your assignment was in this response: %q (given %s).\n",
			a.Input, a.Response, elapsedLabel(a.Timestamp, now))
		if len(completed) > 0 {
			b.WriteString("They have previously completed:\n")
			writeAssignmentList(&b, completed, now)
		}
		fmt.Fprintf(&b, "\nUser now says: %q\n", message)
		b.WriteString("\nCall them out if they're making excuses, or acknowledge it if they actually did it. Then give the next assignment.")

	default:
		b.WriteString("FOLLOW-UP: The user has multiple outstanding assignments:\n")
		writeAssignmentList(&b, pending, now)
		fmt.Fprintf(&b, "\nUser now says: %q\n", message)
		if massClaim {
			b.WriteString("\nThey are claiming to have done everything at once. Do NOT accept this vague claim. Challenge them to say specifically which assignment they did and how, one at a time.")
		} else {
			b.WriteString("\nWork out which assignment they are reporting on and respond to each outstanding one: completed, excused, or still owed.")
		}
	}

	return b.String()
}

func writeAssignmentList(b *strings.Builder, items []models.Interaction, now time.Time) {
	for i := range items {
		it := &items[i]
		fmt.Fprintf(b, "%d. (%s) situation: %q / assignment response: %q\n",
			i+1, elapsedLabel(it.Timestamp, now), it.Input, it.Response)
	}
}

// elapsedLabel renders how long ago an interaction happened in UTC-day terms.
func elapsedLabel(then, now time.Time) string {
	days := int(now.Sub(then).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
