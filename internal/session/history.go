package session

import (
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

// DefaultMaxHistory is the retention bound for a user's interaction log.
const DefaultMaxHistory = 50

// HistoryManager appends interactions to a bounded per-user log, marks
// assignments completed, and prunes beyond the retention count.
type HistoryManager struct {
	maxHistory int
}

// NewHistoryManager creates a manager with the given retention count; zero or
// negative means DefaultMaxHistory.
func NewHistoryManager(maxHistory int) *HistoryManager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &HistoryManager{maxHistory: maxHistory}
}

// MaxHistory returns the configured retention count.
func (m *HistoryManager) MaxHistory() int { return m.maxHistory }

// Append adds the interaction to the record's history, assigning a unique
// monotonic id and the creation timestamp, then prunes. Ids are millisecond
// unix timestamps bumped past the previous id when two appends land in the
// same clock tick. Returns the stored interaction.
func (m *HistoryManager) Append(record *models.UserRecord, interaction models.Interaction, now time.Time) models.Interaction {
	id := now.UnixMilli()
	if last := record.LastInteraction(); last != nil && id <= last.ID {
		id = last.ID + 1
	}

	interaction.ID = id
	interaction.Timestamp = now.UTC()
	interaction.Completed = false
	interaction.CompletedAt = nil

	record.History = append(record.History, interaction)
	m.Prune(record)
	return record.History[len(record.History)-1]
}

// MarkCompleted flips the target interaction's completed flag and stamps
// CompletedAt. The target is located by exact id, then by timestamp-equality
// (legacy records used timestamps as ids), then by the most recent pending
// assignment. Returns false, without error, when nothing matches. A completed
// flag is never reverted.
func (m *HistoryManager) MarkCompleted(record *models.UserRecord, assignmentID int64, now time.Time) bool {
	target := findByID(record.History, assignmentID)
	if target == nil {
		target = findByTimestamp(record.History, assignmentID)
	}
	if target == nil {
		target = mostRecentPending(record.History)
	}
	if target == nil {
		return false
	}
	if !target.Completed {
		target.Completed = true
		ts := now.UTC()
		target.CompletedAt = &ts
	}
	return true
}

// Prune drops the oldest entries beyond the retention count.
func (m *HistoryManager) Prune(record *models.UserRecord) {
	if len(record.History) > m.maxHistory {
		record.History = record.History[len(record.History)-m.maxHistory:]
	}
}

func findByID(history []models.Interaction, id int64) *models.Interaction {
	for i := range history {
		if history[i].ID == id {
			return &history[i]
		}
	}
	return nil
}

func findByTimestamp(history []models.Interaction, id int64) *models.Interaction {
	for i := range history {
		if history[i].Timestamp.UnixMilli() == id {
			return &history[i]
		}
	}
	return nil
}

func mostRecentPending(history []models.Interaction) *models.Interaction {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsPendingAssignment() {
			return &history[i]
		}
	}
	return nil
}
