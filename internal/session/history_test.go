package session

import (
	"testing"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

func TestHistoryManagerAppend(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	record := models.NewUserRecord(time.Now())
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	stored := m.Append(record, models.Interaction{Input: "hello", Response: "hi"}, now)

	if stored.ID != now.UnixMilli() {
		t.Errorf("Expected id %d, got %d", now.UnixMilli(), stored.ID)
	}
	if !stored.Timestamp.Equal(now.UTC()) {
		t.Errorf("Expected timestamp %v, got %v", now.UTC(), stored.Timestamp)
	}
	if stored.Completed || stored.CompletedAt != nil {
		t.Error("New interactions must start uncompleted")
	}
	if len(record.History) != 1 {
		t.Errorf("Expected history length 1, got %d", len(record.History))
	}
}

func TestHistoryManagerAppendBumpsCollidingIDs(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	record := models.NewUserRecord(time.Now())
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first := m.Append(record, models.Interaction{Input: "a"}, now)
	second := m.Append(record, models.Interaction{Input: "b"}, now)
	third := m.Append(record, models.Interaction{Input: "c"}, now)

	if second.ID != first.ID+1 {
		t.Errorf("Expected second id %d, got %d", first.ID+1, second.ID)
	}
	if third.ID != second.ID+1 {
		t.Errorf("Expected third id %d, got %d", second.ID+1, third.ID)
	}
}

func TestHistoryManagerPruneDropsOldest(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(3)
	record := models.NewUserRecord(time.Now())
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m.Append(record, models.Interaction{Input: "msg"}, base.Add(time.Duration(i)*time.Second))
	}

	if len(record.History) != 3 {
		t.Fatalf("Expected history capped at 3, got %d", len(record.History))
	}
	// The survivors are the three newest.
	want := base.Add(2 * time.Second).UnixMilli()
	if record.History[0].ID != want {
		t.Errorf("Expected oldest surviving id %d, got %d", want, record.History[0].ID)
	}
}

func TestHistoryManagerMarkCompletedByID(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	record := &models.UserRecord{History: []models.Interaction{
		{ID: 100, Response: "Your assignment: a"},
		{ID: 200, Response: "Your assignment: b"},
	}}

	if !m.MarkCompleted(record, 100, now) {
		t.Fatal("Expected MarkCompleted to succeed")
	}
	if !record.History[0].Completed {
		t.Error("Expected interaction 100 to be completed")
	}
	if record.History[0].CompletedAt == nil || !record.History[0].CompletedAt.Equal(now.UTC()) {
		t.Errorf("Expected CompletedAt %v, got %v", now.UTC(), record.History[0].CompletedAt)
	}
	if record.History[1].Completed {
		t.Error("Interaction 200 must stay pending")
	}
}

func TestHistoryManagerMarkCompletedByTimestamp(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	now := time.Now()
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	// Legacy records used timestamps as ids; the id field may not match.
	record := &models.UserRecord{History: []models.Interaction{
		{ID: 1, Timestamp: ts, Response: "Your assignment: a"},
	}}

	if !m.MarkCompleted(record, ts.UnixMilli(), now) {
		t.Fatal("Expected timestamp fallback to find the interaction")
	}
	if !record.History[0].Completed {
		t.Error("Expected interaction to be completed")
	}
}

func TestHistoryManagerMarkCompletedFallsBackToMostRecentPending(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	record := &models.UserRecord{History: []models.Interaction{
		{ID: 1, Response: "Your assignment: a"},
		{ID: 2, Response: "Your assignment: b", Completed: true},
		{ID: 3, Response: "Your assignment: c"},
	}}

	if !m.MarkCompleted(record, 999999, time.Now()) {
		t.Fatal("Expected fallback to most recent pending")
	}
	if !record.History[2].Completed {
		t.Error("Expected the most recent pending assignment (id 3) to be completed")
	}
	if record.History[0].Completed {
		t.Error("Older pending assignment must not be touched")
	}
}

func TestHistoryManagerMarkCompletedNoMatch(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	record := &models.UserRecord{History: []models.Interaction{
		{ID: 1, Response: "no assignment"},
	}}

	if m.MarkCompleted(record, 42, time.Now()) {
		t.Error("Expected MarkCompleted to report false with nothing to mark")
	}
}

func TestHistoryManagerMarkCompletedNeverReverts(t *testing.T) {
	t.Parallel()

	m := NewHistoryManager(50)
	completedAt := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	record := &models.UserRecord{History: []models.Interaction{
		{ID: 1, Response: "Your assignment: a", Completed: true, CompletedAt: &completedAt},
	}}

	if !m.MarkCompleted(record, 1, time.Now()) {
		t.Fatal("Expected MarkCompleted to succeed on already-completed target")
	}
	if !record.History[0].CompletedAt.Equal(completedAt) {
		t.Error("Re-marking must not overwrite the original completion time")
	}
}
